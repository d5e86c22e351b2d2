package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"Colabi/internal/models"
	"Colabi/internal/task_service/store"
	"Colabi/pkg/logger"
)

const serviceName = "task_service"

// Runner executes one assembled prompt against the model.
// *Executor is the production implementation.
type Runner interface {
	Run(ctx context.Context, agent *models.Agent, prompt, expectedOutput string, toolIDs []uint, structured bool, log *logger.Logger) (*RunResult, error)
}

// FileUploader stores an exported artifact and returns its public URL.
// *Uploader is the production implementation.
type FileUploader interface {
	Upload(ctx context.Context, data []byte, format string) (string, error)
}

// Orchestrator ties context assembly, execution, export and persistence
// together into the two entry points the consumer dispatches to.
type Orchestrator struct {
	store     *store.Store
	assembler *Assembler
	executor  Runner
	uploader  FileUploader
	recorder  *Recorder
}

// NewOrchestrator wires the run pipeline from its parts.
func NewOrchestrator(st *store.Store, assembler *Assembler, executor Runner, uploader FileUploader, recorder *Recorder) *Orchestrator {
	return &Orchestrator{
		store:     st,
		assembler: assembler,
		executor:  executor,
		uploader:  uploader,
		recorder:  recorder,
	}
}

// Dispatch routes a task message to the matching entry point.
func (o *Orchestrator) Dispatch(ctx context.Context, msg *models.TaskMessage) (string, error) {
	switch msg.Kind {
	case models.TaskMessageReassign:
		return o.ReassignTask(ctx, msg)
	case models.TaskMessageExecute:
		return o.ExecuteTask(ctx, msg)
	default:
		return "", fmt.Errorf("unknown task message kind %q", msg.Kind)
	}
}

// ExecuteTask runs a first execution end to end. Whatever happens, the
// completed-task row is finalized exactly once: by the success write inside
// the run, or by the failure write here.
func (o *Orchestrator) ExecuteTask(ctx context.Context, msg *models.TaskMessage) (string, error) {
	log := logger.New(serviceName, msg.TaskID, msg.CompletedTaskID)
	log.Info("Task execution started")

	db, err := o.store.AcquireSession(ctx)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Could not acquire database session")
		return "", err
	}

	outcome, err := o.execute(ctx, db, msg, log)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Task execution failed")
		o.finalizeFailure(db, msg.CompletedTaskID, err, false, log)
		return fmt.Sprintf("Task failed: %d, Completed Task Id: %d", msg.TaskID, msg.CompletedTaskID), err
	}

	log.Info("Task execution completed")
	return outcome, nil
}

func (o *Orchestrator) execute(ctx context.Context, db *gorm.DB, msg *models.TaskMessage, log *logger.Logger) (string, error) {
	agent, err := o.store.GetAgentByID(db, msg.AgentID)
	if err != nil {
		return "", fmt.Errorf("load agent %d: %w", msg.AgentID, err)
	}
	task, err := o.store.GetTaskByID(db, msg.TaskID)
	if err != nil {
		return "", fmt.Errorf("load task %d: %w", msg.TaskID, err)
	}

	tc, err := o.assembler.Assemble(ctx, db, agent, task, msg.IncludePreviousOutput, msg.PreviousOutputIDs, log)
	if err != nil {
		return "", err
	}

	toolIDs, err := ParseToolIDs(task.AgentTool)
	if err != nil {
		return "", err
	}

	prompt := BuildTaskPrompt(agent, task.AgentInstruction, tc.DocContext, tc.PreviousOutput, tc.Params.Fragment)

	result, err := o.executor.Run(ctx, agent, prompt, task.AgentOutput, toolIDs, msg.ExportCSV, log)
	if err != nil {
		return "", err
	}

	fileURL := ""
	if msg.ExportCSV {
		fileURL, err = o.exportAndUpload(ctx, db, msg, result.Columns, log)
		if err != nil {
			return "", err
		}
	}

	if err := o.recorder.Success(db, msg.CompletedTaskID, result.Raw, result.Comment, fileURL); err != nil {
		return "", fmt.Errorf("record success: %w", err)
	}

	return fmt.Sprintf("Task completed: %d, Completed Task Id: %d", msg.TaskID, msg.CompletedTaskID), nil
}

// exportAndUpload normalizes the columnar output, renders it in the
// requested format, uploads the file and records its URL.
func (o *Orchestrator) exportAndUpload(ctx context.Context, db *gorm.DB, msg *models.TaskMessage, columns map[string][]any, log *logger.Logger) (string, error) {
	NormalizeColumns(columns)

	format := msg.ExportFormat
	if format == "" {
		format = ExportFormatCSV
	}

	var data []byte
	var err error
	switch format {
	case ExportFormatXLSX:
		data, err = ExportXLSX(columns)
	case ExportFormatCSV:
		data, err = ExportCSV(columns)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", err
	}

	fileURL, err := o.uploader.Upload(ctx, data, format)
	if err != nil {
		return "", err
	}

	if err := o.store.CreateCompletedTaskFile(db, msg.CompletedTaskID, fileURL); err != nil {
		return "", fmt.Errorf("record exported file: %w", err)
	}

	log.WithPayload(map[string]interface{}{"fileURL": fileURL}).Info("Task export uploaded")
	return fileURL, nil
}

// ReassignTask re-runs a previously completed task with the stored reassign
// reason, building on that record's own output.
func (o *Orchestrator) ReassignTask(ctx context.Context, msg *models.TaskMessage) (string, error) {
	log := logger.New(serviceName, 0, msg.CompletedTaskID)
	log.Info("Task reassign started")

	db, err := o.store.AcquireSession(ctx)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Could not acquire database session")
		return "", err
	}

	outcome, err := o.reassign(ctx, db, msg, log)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Task reassign failed")
		o.finalizeFailure(db, msg.CompletedTaskID, err, true, log)
		return fmt.Sprintf("Reassign Task failed %d", msg.CompletedTaskID), err
	}

	log.Info("Task reassigned successfully completed")
	return outcome, nil
}

func (o *Orchestrator) reassign(ctx context.Context, db *gorm.DB, msg *models.TaskMessage, log *logger.Logger) (string, error) {
	completedTask, err := o.store.GetCompletedTaskByID(db, msg.CompletedTaskID)
	if err != nil {
		return "", fmt.Errorf("load completed task %d: %w", msg.CompletedTaskID, err)
	}
	task, err := o.store.GetTaskByID(db, completedTask.TaskID)
	if err != nil {
		return "", fmt.Errorf("load task %d: %w", completedTask.TaskID, err)
	}
	agent, err := o.store.GetAgentByID(db, task.AssignTaskAgentID)
	if err != nil {
		return "", fmt.Errorf("load agent %d: %w", task.AssignTaskAgentID, err)
	}

	tc, err := o.assembler.Assemble(ctx, db, agent, task, false, nil, log)
	if err != nil {
		return "", err
	}

	toolIDs, err := ParseToolIDs(task.AgentTool)
	if err != nil {
		return "", err
	}

	// The record's own previous output is what the rework builds on.
	previousOutput := []string{completedTask.Output}

	prompt, err := BuildReassignPrompt(agent, task.AgentInstruction, tc.DocContext, previousOutput,
		tc.Params.Fragment, completedTask.ReasonForReassign)
	if err != nil {
		return "", err
	}

	result, err := o.executor.Run(ctx, agent, prompt, task.AgentOutput, toolIDs, false, log)
	if err != nil {
		return "", err
	}

	if err := o.recorder.ReassignSuccess(db, msg.CompletedTaskID, result.Raw, result.Comment); err != nil {
		return "", fmt.Errorf("record reassign success: %w", err)
	}

	return fmt.Sprintf("Task completed %d", msg.CompletedTaskID), nil
}

// finalizeFailure writes the terminal failure state for a run. Credential
// failures are recorded with a distinct comment so "could not persist the
// artifact" stays distinguishable from "could not produce a result".
func (o *Orchestrator) finalizeFailure(db *gorm.DB, completedTaskID uint, cause error, reassign bool, log *logger.Logger) {
	if errors.Is(cause, ErrCredentials) {
		log.Error("Upload credentials rejected, recording credential failure")
		if err := o.recorder.CredentialFailure(db, completedTaskID); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Could not record credential failure")
		}
		return
	}

	var err error
	if reassign {
		err = o.recorder.ReassignFailure(db, completedTaskID)
	} else {
		err = o.recorder.Failure(db, completedTaskID)
	}
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Error("Could not record task failure")
	}
}
