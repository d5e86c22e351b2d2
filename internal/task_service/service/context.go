package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Colabi/internal/models"
	"Colabi/internal/retrieval"
	"Colabi/internal/task_service/store"
	"Colabi/pkg/logger"
)

// docScoreThreshold is the minimum similarity score a retrieved chunk must
// reach to be included in the document context.
const docScoreThreshold = 0.2

// ErrVectorNotFound is returned when an agent is flagged as having its own
// data but no vector namespace was ever indexed for it.
var ErrVectorNotFound = errors.New("Vector of own file not found.")

// ParamResult is the outcome of parsing a task's agent_parameter column.
// A malformed document is reported through Err instead of being silently
// swallowed; callers log it and continue with empty parameters.
type ParamResult struct {
	Values   map[string]any
	Fragment string
	Err      error
}

// ParseParameters decodes the task parameter JSON and builds the prompt
// fragment, one "key = {key}," placeholder per key in sorted order.
func ParseParameters(raw datatypes.JSON) ParamResult {
	if len(raw) == 0 {
		return ParamResult{Values: map[string]any{}}
	}

	values := map[string]any{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return ParamResult{Values: map[string]any{}, Err: fmt.Errorf("parse agent parameters: %w", err)}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fragment strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&fragment, "%s = {%s},", k, k)
	}
	return ParamResult{Values: values, Fragment: fragment.String()}
}

// ParseToolIDs decodes the task's agent_tool column, a JSON array of tool
// ids. An empty column means the run uses no tools.
func ParseToolIDs(raw datatypes.JSON) ([]uint, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("parse agent tools: %w", err)
	}
	return ids, nil
}

// TaskContext carries everything the prompt builders need for one run.
type TaskContext struct {
	Agent          *models.Agent
	Task           *models.Task
	DocContext     []string
	PreviousOutput []string
	Params         ParamResult
}

// Assembler gathers the agent profile, document context, previous outputs
// and parameters that feed a run's prompt.
type Assembler struct {
	store     *store.Store
	retrieval *retrieval.Provider
}

// NewAssembler creates a context assembler over the given store and
// retrieval provider.
func NewAssembler(st *store.Store, rt *retrieval.Provider) *Assembler {
	return &Assembler{store: st, retrieval: rt}
}

// Assemble builds the task context for the given agent and task. When the
// agent owns data, the task instruction is used as the retrieval query
// against the agent's vector namespace.
func (a *Assembler) Assemble(ctx context.Context, db *gorm.DB, agent *models.Agent, task *models.Task, includePrevious bool, previousIDs []uint, log *logger.Logger) (*TaskContext, error) {
	tc := &TaskContext{Agent: agent, Task: task}

	tc.Params = ParseParameters(task.AgentParameter)
	if tc.Params.Err != nil {
		log.WithError(models.ErrorInfo{Message: tc.Params.Err.Error()}).
			Warn("Task parameters are malformed, continuing without them")
	}

	if agent.OwnData {
		if agent.VectorID == "" {
			return nil, ErrVectorNotFound
		}
		docs, err := a.retrieval.Search(ctx, agent.VectorID, task.AgentInstruction, docScoreThreshold)
		if err != nil {
			return nil, fmt.Errorf("search document context: %w", err)
		}
		tc.DocContext = docs
	}

	if includePrevious && len(previousIDs) > 0 {
		outputs, err := a.store.PreviousOutputs(db, previousIDs)
		if err != nil {
			return nil, fmt.Errorf("load previous outputs: %w", err)
		}
		tc.PreviousOutput = outputs
	}

	return tc, nil
}
