package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"Colabi/internal/models"
	"Colabi/internal/task_service/store"
	"Colabi/pkg/logger"
)

// fakeRunner returns a fixed result and records the prompt it was given.
type fakeRunner struct {
	result *RunResult
	err    error

	prompt     string
	structured bool
}

func (f *fakeRunner) Run(_ context.Context, _ *models.Agent, prompt, _ string, _ []uint, structured bool, _ *logger.Logger) (*RunResult, error) {
	f.prompt = prompt
	f.structured = structured
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeUploader returns a fixed URL or error.
type fakeUploader struct {
	url    string
	err    error
	format string
}

func (f *fakeUploader) Upload(_ context.Context, _ []byte, format string) (string, error) {
	f.format = format
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Agent{}, &models.Task{}, &models.CompletedTask{}, &models.CompletedTaskFile{}); err != nil {
		t.Fatalf("migrating test schema: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	store    *store.Store
	agent    models.Agent
	task     models.Task
	resultCT models.CompletedTask
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	st := store.New(db)

	f := &fixture{db: db, store: st}

	f.agent = models.Agent{
		Role:             "Analyst",
		Goal:             "analyze",
		Backstory:        "experienced",
		FocusGroupSurvey: "fgs",
		TopIdea:          "ti",
		APIData:          "api",
		Survey:           "sv",
	}
	if err := db.Create(&f.agent).Error; err != nil {
		t.Fatalf("creating agent: %v", err)
	}

	f.task = models.Task{
		AgentInstruction:  "Summarize the findings",
		AgentTool:         datatypes.JSON(`[]`),
		AgentParameter:    datatypes.JSON(`{"region":"EU"}`),
		AssignTaskAgentID: f.agent.ID,
	}
	if err := db.Create(&f.task).Error; err != nil {
		t.Fatalf("creating task: %v", err)
	}

	ct, err := st.CreateCompletedTask(db, f.task.ID)
	if err != nil {
		t.Fatalf("creating completed task: %v", err)
	}
	f.resultCT = *ct
	return f
}

func (f *fixture) orchestrator(runner Runner, uploader FileUploader) *Orchestrator {
	assembler := NewAssembler(f.store, nil)
	recorder := NewRecorder(f.store)
	return NewOrchestrator(f.store, assembler, runner, uploader, recorder)
}

func (f *fixture) reload(t *testing.T) *models.CompletedTask {
	t.Helper()
	ct, err := f.store.GetCompletedTaskByID(f.db, f.resultCT.ID)
	if err != nil {
		t.Fatalf("reloading completed task: %v", err)
	}
	return ct
}

func executeMessage(f *fixture) *models.TaskMessage {
	return &models.TaskMessage{
		Kind:            models.TaskMessageExecute,
		AgentID:         f.agent.ID,
		TaskID:          f.task.ID,
		CompletedTaskID: f.resultCT.ID,
	}
}

func TestExecuteTask_Success(t *testing.T) {
	f := newFixture(t)
	runner := &fakeRunner{result: &RunResult{
		Raw:     "the answer",
		Comment: "Task is successfully completed, and it is relevant.",
	}}
	o := f.orchestrator(runner, &fakeUploader{})

	outcome, err := o.ExecuteTask(context.Background(), executeMessage(f))
	if err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}
	want := fmt.Sprintf("Task completed: %d, Completed Task Id: %d", f.task.ID, f.resultCT.ID)
	if outcome != want {
		t.Errorf("outcome = %q, want %q", outcome, want)
	}

	ct := f.reload(t)
	if ct.Status != models.TaskStatusSuccess || ct.MarkAs != models.MarkAsCompleted {
		t.Errorf("record state = (%d, %d), want success/completed", ct.Status, ct.MarkAs)
	}
	if ct.Output != "the answer" || !strings.HasPrefix(ct.Comment, "Task is successfully completed") {
		t.Errorf("record output/comment = %q / %q", ct.Output, ct.Comment)
	}

	if !strings.Contains(runner.prompt, "Summarize the findings") {
		t.Error("prompt missing instruction")
	}
	if !strings.Contains(runner.prompt, "region = {region},") {
		t.Error("prompt missing parameter fragment")
	}
	if runner.structured {
		t.Error("structured output must not be requested without export")
	}
}

func TestExecuteTask_ExportUploadsFile(t *testing.T) {
	f := newFixture(t)
	runner := &fakeRunner{result: &RunResult{
		Raw:     "answer",
		Comment: "Task is successfully completed, and done.",
		Columns: map[string][]any{"a": {"x", "y"}, "b": {1}},
	}}
	uploader := &fakeUploader{url: "https://files.example.com/colabi/task_output/abc.csv"}
	o := f.orchestrator(runner, uploader)

	msg := executeMessage(f)
	msg.ExportCSV = true

	if _, err := o.ExecuteTask(context.Background(), msg); err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}
	if !runner.structured {
		t.Error("export requires the structured follow-up")
	}
	if uploader.format != ExportFormatCSV {
		t.Errorf("upload format = %q, want csv", uploader.format)
	}

	ct := f.reload(t)
	if ct.FilePath != uploader.url {
		t.Errorf("FilePath = %q, want %q", ct.FilePath, uploader.url)
	}
	files, err := f.store.ListCompletedTaskFiles(f.db, ct.ID)
	if err != nil {
		t.Fatalf("listing files: %v", err)
	}
	if len(files) != 1 || files[0].URL != uploader.url {
		t.Errorf("file rows = %v", files)
	}
}

func TestExecuteTask_RunFailure(t *testing.T) {
	f := newFixture(t)
	runner := &fakeRunner{err: errors.New("model exploded")}
	o := f.orchestrator(runner, &fakeUploader{})

	outcome, err := o.ExecuteTask(context.Background(), executeMessage(f))
	if err == nil {
		t.Fatal("expected error")
	}
	want := fmt.Sprintf("Task failed: %d, Completed Task Id: %d", f.task.ID, f.resultCT.ID)
	if outcome != want {
		t.Errorf("outcome = %q, want %q", outcome, want)
	}

	ct := f.reload(t)
	if ct.Status != models.TaskStatusFailed {
		t.Errorf("Status = %d, want failed", ct.Status)
	}
	if ct.MarkAs != models.MarkAsNone {
		t.Errorf("MarkAs = %d, want none", ct.MarkAs)
	}
}

func TestExecuteTask_CredentialFailureRecordsMarker(t *testing.T) {
	f := newFixture(t)
	runner := &fakeRunner{result: &RunResult{
		Raw:     "answer",
		Comment: "Task is successfully completed, and done.",
		Columns: map[string][]any{"a": {"x"}},
	}}
	uploader := &fakeUploader{err: fmt.Errorf("%w: bad key", ErrCredentials)}
	o := f.orchestrator(runner, uploader)

	msg := executeMessage(f)
	msg.ExportCSV = true

	if _, err := o.ExecuteTask(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}

	ct := f.reload(t)
	if ct.Status != models.TaskStatusFailed {
		t.Errorf("Status = %d, credential failure must finalize as failed", ct.Status)
	}
	if ct.MarkAs != models.MarkAsNone {
		t.Errorf("MarkAs = %d, credential failure must not touch mark_as", ct.MarkAs)
	}
	if ct.Comment != CredentialFailureComment {
		t.Errorf("Comment = %q, want the credential failure marker", ct.Comment)
	}
	if ct.FilePath != "" {
		t.Errorf("FilePath = %q, want empty after rejected upload", ct.FilePath)
	}
}

func TestExecuteTask_OwnDataWithoutVector(t *testing.T) {
	f := newFixture(t)
	if err := f.db.Model(&models.Agent{}).Where("id = ?", f.agent.ID).Update("own_data", true).Error; err != nil {
		t.Fatalf("flagging own data: %v", err)
	}
	o := f.orchestrator(&fakeRunner{}, &fakeUploader{})

	_, err := o.ExecuteTask(context.Background(), executeMessage(f))
	if !errors.Is(err, ErrVectorNotFound) {
		t.Fatalf("expected ErrVectorNotFound, got %v", err)
	}

	ct := f.reload(t)
	if ct.Status != models.TaskStatusFailed {
		t.Errorf("Status = %d, want failed", ct.Status)
	}
}

func TestReassignTask_Success(t *testing.T) {
	f := newFixture(t)
	reason := "numbers were off"
	previous := "old output"
	output, markAs, filePath := previous, models.MarkAsReassignPending, "https://old.example.com/file.csv"
	status := models.TaskStatusSuccess
	if err := f.store.UpdateCompletedTask(f.db, f.resultCT.ID, store.CompletedTaskUpdate{
		Status:            &status,
		MarkAs:            &markAs,
		Output:            &output,
		FilePath:          &filePath,
		ReasonForReassign: &reason,
	}); err != nil {
		t.Fatalf("seeding completed task: %v", err)
	}

	runner := &fakeRunner{result: &RunResult{
		Raw:     "better answer",
		Comment: "Task is successfully completed, and the corrections applied.",
	}}
	o := f.orchestrator(runner, &fakeUploader{})

	outcome, err := o.ReassignTask(context.Background(), &models.TaskMessage{
		Kind:            models.TaskMessageReassign,
		CompletedTaskID: f.resultCT.ID,
	})
	if err != nil {
		t.Fatalf("ReassignTask() error = %v", err)
	}
	if want := fmt.Sprintf("Task completed %d", f.resultCT.ID); outcome != want {
		t.Errorf("outcome = %q, want %q", outcome, want)
	}

	if !strings.Contains(runner.prompt, "### Strict Reassign Note:") || !strings.Contains(runner.prompt, reason) {
		t.Error("reassign prompt missing the reassign note")
	}
	if !strings.Contains(runner.prompt, "### Previous Output: old output") {
		t.Error("reassign prompt must build on the record's own output")
	}

	ct := f.reload(t)
	if ct.Status != models.TaskStatusSuccess || ct.MarkAs != models.MarkAsCompleted {
		t.Errorf("record state = (%d, %d)", ct.Status, ct.MarkAs)
	}
	if ct.Output != "better answer" {
		t.Errorf("Output = %q", ct.Output)
	}
	if ct.FilePath != "" {
		t.Errorf("FilePath = %q, reassign must clear the stale export", ct.FilePath)
	}
}

func TestReassignTask_MissingReason(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(&fakeRunner{}, &fakeUploader{})

	_, err := o.ReassignTask(context.Background(), &models.TaskMessage{
		Kind:            models.TaskMessageReassign,
		CompletedTaskID: f.resultCT.ID,
	})
	if !errors.Is(err, ErrReassignReasonRequired) {
		t.Fatalf("expected ErrReassignReasonRequired, got %v", err)
	}

	ct := f.reload(t)
	if ct.Status != models.TaskStatusFailed || ct.MarkAs != models.MarkAsReassignFailed {
		t.Errorf("record state = (%d, %d), want failed/reassign-failed", ct.Status, ct.MarkAs)
	}
}

func TestReassignTask_RunFailure(t *testing.T) {
	f := newFixture(t)
	reason := "retry please"
	if err := f.store.UpdateCompletedTask(f.db, f.resultCT.ID, store.CompletedTaskUpdate{
		ReasonForReassign: &reason,
	}); err != nil {
		t.Fatalf("seeding reason: %v", err)
	}

	o := f.orchestrator(&fakeRunner{err: errors.New("model down")}, &fakeUploader{})

	outcome, err := o.ReassignTask(context.Background(), &models.TaskMessage{
		Kind:            models.TaskMessageReassign,
		CompletedTaskID: f.resultCT.ID,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if want := fmt.Sprintf("Reassign Task failed %d", f.resultCT.ID); outcome != want {
		t.Errorf("outcome = %q, want %q", outcome, want)
	}

	ct := f.reload(t)
	if ct.Status != models.TaskStatusFailed || ct.MarkAs != models.MarkAsReassignFailed {
		t.Errorf("record state = (%d, %d), want failed/reassign-failed", ct.Status, ct.MarkAs)
	}
}

func TestDispatch_UnknownKind(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(&fakeRunner{}, &fakeUploader{})

	if _, err := o.Dispatch(context.Background(), &models.TaskMessage{Kind: "bogus"}); err == nil {
		t.Error("expected error for unknown message kind")
	}
}
