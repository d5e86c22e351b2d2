package service

import (
	"errors"
	"fmt"
	"strings"

	"Colabi/internal/models"
)

// ErrReassignReasonRequired is returned when a reassign prompt is requested
// for a completed task that carries no reassign reason.
var ErrReassignReasonRequired = errors.New("reassign reason is required")

// CommentPrompt is the follow-up sent after a successful run to obtain the
// one-sentence completion confirmation stored alongside the output.
const CommentPrompt = "Respond with exactly one concise sentence starting with " +
	"'Task is successfully completed, and...' to confirm only task completion and " +
	"information relevance, without adding details, summaries, or suggestions."

const promptGuidelines = `### Guidelines:
1. **Do not hallucinate**: Rely only on the provided inputs, context, and data. If the input is unclear or insufficient, explicitly state the limitations and recommend further input.
2. **Formatting**:
- Use Markdown formatting by default unless explicitly instructed otherwise.
- Begin with a header titled: ### [Summary or Output Focus].
- Organize content using lists, bullet points, or tables for clarity.
- Avoid redundancy and maintain alignment with task objectives.
`

const promptExpectedOutput = `
### Expected Output:
Synthesize the above data and provide comprehensive, actionable insights. Prioritize clarity, relevance, and alignment with the task requirements.`

// BuildTaskPrompt renders the instruction prompt for a first execution. The
// four agent profile fields are always rendered, even when empty, so the
// model sees the full shape of the available context.
func BuildTaskPrompt(agent *models.Agent, instruction string, docContext, previousOutput []string, params string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are tasked with the following: **%s**\n\n", instruction)
	b.WriteString(promptGuidelines)
	b.WriteString("\n### Provided Context:\n")

	writeContextFields(&b, agent, docContext)

	if len(previousOutput) > 0 {
		fmt.Fprintf(&b, "\n### Build Upon: %s\n", strings.Join(previousOutput, "\n\n"))
	}
	if params != "" {
		fmt.Fprintf(&b, "\n### Parameters:\n%s\n", params)
	}

	b.WriteString(promptExpectedOutput)
	return strings.TrimSpace(b.String())
}

// BuildReassignPrompt renders the instruction prompt for a reassigned run.
// The reassign note sits directly under the task statement so the model
// reads it before anything else.
func BuildReassignPrompt(agent *models.Agent, instruction string, docContext, previousOutput []string, params, reassignReason string) (string, error) {
	if strings.TrimSpace(reassignReason) == "" {
		return "", ErrReassignReasonRequired
	}

	var b strings.Builder

	fmt.Fprintf(&b, "You are tasked with the following: **%s**\n\n", instruction)
	fmt.Fprintf(&b, "### Strict Reassign Note:\nThe task has been reassigned due to the following reason: **%s**. Ensure the response adheres strictly to this note and avoids repeating errors.\n\n", reassignReason)
	b.WriteString(promptGuidelines)
	b.WriteString("\n")

	writeContextFields(&b, agent, docContext)

	if len(previousOutput) > 0 {
		fmt.Fprintf(&b, "\n### Previous Output: %s\n", strings.Join(previousOutput, "\n\n"))
	}
	if params != "" {
		fmt.Fprintf(&b, "\n### Parameters:\n%s\n", params)
	}

	b.WriteString(promptExpectedOutput)
	return strings.TrimSpace(b.String()), nil
}

// writeContextFields renders the document context (when present) followed by
// the agent profile fields, in their fixed order.
func writeContextFields(b *strings.Builder, agent *models.Agent, docContext []string) {
	if len(docContext) > 0 {
		fmt.Fprintf(b, "- **Document Context**: %s\n", strings.Join(docContext, "\n"))
	}
	fmt.Fprintf(b, "- **Focus Group Survey**: %s\n", agent.FocusGroupSurvey)
	fmt.Fprintf(b, "- **Top Ideas**: %s\n", agent.TopIdea)
	fmt.Fprintf(b, "- **API Data**: %s\n", agent.APIData)
	fmt.Fprintf(b, "- **General Survey**: %s\n", agent.Survey)
}

// BuildChatPrompt renders the conversational prompt for the chat endpoint,
// weaving in prior turns and any retrieved document context.
func BuildChatPrompt(question string, previousQueries, previousResponses []string, relevantDocument []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Assist the user with their question in a friendly and helpful manner: %q.\n", question)
	b.WriteString("Use context from previous interactions to provide a more accurate response. Only mention previous interactions if it is necessary for understanding or clarification.\n\n")
	b.WriteString("### Previous Chat History ###\n")
	fmt.Fprintf(&b, "- Previous Questions: %s\n", strings.Join(previousQueries, "; "))
	fmt.Fprintf(&b, "- Previous Answers: %s\n\n", strings.Join(previousResponses, "; "))
	b.WriteString("Please refer to this chat history to improve your response. For example, if the user mentions \"he\" or \"she,\" and a person was mentioned earlier, assume they are referring to that person unless otherwise stated.\n")

	if len(relevantDocument) > 0 {
		b.WriteString("\n### Relevant Document Context ###\n")
		b.WriteString("In addition to the chat history, use the following document context if it is related to the user's question for much better accuracy & precision:\n")
		b.WriteString(strings.Join(relevantDocument, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}

// SystemPrompt renders the persona instruction derived from the agent
// profile, sent as the system message of every run.
func SystemPrompt(agent *models.Agent) string {
	return fmt.Sprintf("You are %s.\nYour goal: %s\nBackstory: %s", agent.Role, agent.Goal, agent.Backstory)
}
