package service

import (
	"gorm.io/gorm"

	"Colabi/internal/models"
	"Colabi/internal/task_service/store"
)

// Recorder finalizes completed-task rows. Every run ends in exactly one
// recorder call, which keeps the terminal-state writes in one place.
type Recorder struct {
	store *store.Store
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(st *store.Store) *Recorder {
	return &Recorder{store: st}
}

// Success finalizes a first execution: output, comment and optional file
// URL are stored and the row is marked completed.
func (r *Recorder) Success(db *gorm.DB, completedTaskID uint, output, comment, fileURL string) error {
	status := models.TaskStatusSuccess
	markAs := models.MarkAsCompleted
	return r.store.UpdateCompletedTask(db, completedTaskID, store.CompletedTaskUpdate{
		Status:   &status,
		MarkAs:   &markAs,
		Output:   &output,
		Comment:  &comment,
		FilePath: &fileURL,
	})
}

// ReassignSuccess finalizes a reassigned execution. The file path is
// cleared since the regenerated output supersedes any earlier export.
func (r *Recorder) ReassignSuccess(db *gorm.DB, completedTaskID uint, output, comment string) error {
	status := models.TaskStatusSuccess
	markAs := models.MarkAsCompleted
	empty := ""
	return r.store.UpdateCompletedTask(db, completedTaskID, store.CompletedTaskUpdate{
		Status:   &status,
		MarkAs:   &markAs,
		Output:   &output,
		Comment:  &comment,
		FilePath: &empty,
	})
}

// CredentialFailureComment is persisted on runs whose result was produced
// but whose artifact could not be stored because the storage credentials
// were rejected. It distinguishes this class from ordinary execution
// failures, which carry no comment.
const CredentialFailureComment = "Task output file could not be stored: storage credentials rejected."

// CredentialFailure finalizes a run whose artifact upload was rejected by
// the object store. The row is marked failed with the credential comment;
// mark_as is left untouched.
func (r *Recorder) CredentialFailure(db *gorm.DB, completedTaskID uint) error {
	status := models.TaskStatusFailed
	comment := CredentialFailureComment
	return r.store.UpdateCompletedTask(db, completedTaskID, store.CompletedTaskUpdate{
		Status:  &status,
		Comment: &comment,
	})
}

// Failure marks a first execution as failed.
func (r *Recorder) Failure(db *gorm.DB, completedTaskID uint) error {
	status := models.TaskStatusFailed
	return r.store.UpdateCompletedTask(db, completedTaskID, store.CompletedTaskUpdate{
		Status: &status,
	})
}

// ReassignFailure marks a reassigned execution as failed.
func (r *Recorder) ReassignFailure(db *gorm.DB, completedTaskID uint) error {
	status := models.TaskStatusFailed
	markAs := models.MarkAsReassignFailed
	return r.store.UpdateCompletedTask(db, completedTaskID, store.CompletedTaskUpdate{
		Status: &status,
		MarkAs: &markAs,
	})
}
