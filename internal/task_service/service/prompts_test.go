package service

import (
	"errors"
	"strings"
	"testing"

	"Colabi/internal/models"
)

func testAgent() *models.Agent {
	return &models.Agent{
		Role:             "Market Analyst",
		Goal:             "Deliver concise market insights",
		Backstory:        "Years of consumer research experience",
		FocusGroupSurvey: "Customers prefer short videos",
		TopIdea:          "Launch a video-first campaign",
		APIData:          "CTR up 12% month over month",
		Survey:           "Mostly positive sentiment",
	}
}

func TestBuildTaskPrompt(t *testing.T) {
	agent := testAgent()

	t.Run("section order", func(t *testing.T) {
		prompt := BuildTaskPrompt(agent, "Summarize Q3 findings",
			[]string{"doc chunk"}, []string{"earlier output"}, "region = {region},")

		sections := []string{
			"You are tasked with the following: **Summarize Q3 findings**",
			"### Guidelines:",
			"### Provided Context:",
			"- **Document Context**: doc chunk",
			"- **Focus Group Survey**: Customers prefer short videos",
			"- **Top Ideas**: Launch a video-first campaign",
			"- **API Data**: CTR up 12% month over month",
			"- **General Survey**: Mostly positive sentiment",
			"### Build Upon: earlier output",
			"### Parameters:\nregion = {region},",
			"### Expected Output:",
		}
		pos := -1
		for _, section := range sections {
			idx := strings.Index(prompt, section)
			if idx < 0 {
				t.Fatalf("prompt missing section %q", section)
			}
			if idx < pos {
				t.Errorf("section %q out of order", section)
			}
			pos = idx
		}
	})

	t.Run("profile fields always rendered", func(t *testing.T) {
		empty := &models.Agent{}
		prompt := BuildTaskPrompt(empty, "task", nil, nil, "")
		for _, field := range []string{"- **Focus Group Survey**: ", "- **Top Ideas**: ", "- **API Data**: ", "- **General Survey**: "} {
			if !strings.Contains(prompt, field) {
				t.Errorf("prompt missing always-rendered field %q", field)
			}
		}
	})

	t.Run("optional sections omitted", func(t *testing.T) {
		prompt := BuildTaskPrompt(agent, "task", nil, nil, "")
		for _, section := range []string{"- **Document Context**:", "### Build Upon:", "### Parameters:"} {
			if strings.Contains(prompt, section) {
				t.Errorf("prompt should not contain %q when input is empty", section)
			}
		}
	})
}

func TestBuildReassignPrompt(t *testing.T) {
	agent := testAgent()

	t.Run("note directly follows task statement", func(t *testing.T) {
		prompt, err := BuildReassignPrompt(agent, "Summarize Q3 findings", nil,
			[]string{"previous answer"}, "", "numbers were wrong")
		if err != nil {
			t.Fatalf("BuildReassignPrompt() error = %v", err)
		}

		taskIdx := strings.Index(prompt, "You are tasked with the following:")
		noteIdx := strings.Index(prompt, "### Strict Reassign Note:")
		guidelinesIdx := strings.Index(prompt, "### Guidelines:")
		if noteIdx < 0 {
			t.Fatal("prompt missing reassign note")
		}
		if !(taskIdx < noteIdx && noteIdx < guidelinesIdx) {
			t.Errorf("reassign note must sit between task statement and guidelines")
		}
		if !strings.Contains(prompt, "**numbers were wrong**") {
			t.Error("reassign reason not rendered")
		}
		if !strings.Contains(prompt, "### Previous Output: previous answer") {
			t.Error("previous output section missing")
		}
		if strings.Contains(prompt, "### Build Upon:") {
			t.Error("reassign prompt must not use the Build Upon heading")
		}
	})

	t.Run("empty reason rejected", func(t *testing.T) {
		_, err := BuildReassignPrompt(agent, "task", nil, nil, "", "   ")
		if !errors.Is(err, ErrReassignReasonRequired) {
			t.Errorf("expected ErrReassignReasonRequired, got %v", err)
		}
	})
}

func TestBuildChatPrompt(t *testing.T) {
	prompt := BuildChatPrompt("Who is the CEO?", []string{"q1"}, []string{"a1"}, nil)
	if !strings.Contains(prompt, `"Who is the CEO?"`) {
		t.Error("question not rendered")
	}
	if !strings.Contains(prompt, "### Previous Chat History ###") {
		t.Error("history section missing")
	}
	if strings.Contains(prompt, "### Relevant Document Context ###") {
		t.Error("document section must be omitted without documents")
	}

	withDocs := BuildChatPrompt("Who?", nil, nil, []string{"doc a", "doc b"})
	if !strings.Contains(withDocs, "### Relevant Document Context ###") {
		t.Error("document section missing")
	}
	if !strings.Contains(withDocs, "doc a\ndoc b") {
		t.Error("documents not joined into the prompt")
	}
}

func TestCommentPrompt(t *testing.T) {
	if !strings.Contains(CommentPrompt, "'Task is successfully completed, and...'") {
		t.Error("comment prompt must pin the confirmation sentence prefix")
	}
}
