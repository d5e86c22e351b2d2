package store

import (
	"Colabi/internal/models"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// CompletedTaskUpdate is a field-optional partial update of a CompletedTask
// row. Nil fields are left untouched.
type CompletedTaskUpdate struct {
	Status   *models.TaskStatus
	MarkAs   *models.MarkAs
	Output   *string
	Comment  *string
	FilePath *string
	ReasonForReassign *string
}

// CreateCompletedTask opens a new pending execution record for a task and
// returns it with its assigned id.
func (s *Store) CreateCompletedTask(db *gorm.DB, taskID uint) (*models.CompletedTask, error) {
	ct := models.CompletedTask{
		TaskID: taskID,
		Status: models.TaskStatusPending,
		MarkAs: models.MarkAsNone,
	}
	if err := db.Create(&ct).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}

// GetCompletedTaskByID loads a single execution record by its primary key.
func (s *Store) GetCompletedTaskByID(db *gorm.DB, id uint) (*models.CompletedTask, error) {
	var ct models.CompletedTask
	if err := db.First(&ct, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("completed task %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &ct, nil
}

// UpdateCompletedTask applies a partial update to a CompletedTask row as a
// single atomic UPDATE statement.
func (s *Store) UpdateCompletedTask(db *gorm.DB, id uint, upd CompletedTaskUpdate) error {
	fields := make(map[string]interface{})
	if upd.Status != nil {
		fields["status"] = *upd.Status
	}
	if upd.MarkAs != nil {
		fields["mark_as"] = *upd.MarkAs
	}
	if upd.Output != nil {
		fields["output"] = *upd.Output
	}
	if upd.Comment != nil {
		fields["comment"] = *upd.Comment
	}
	if upd.FilePath != nil {
		fields["file_path"] = *upd.FilePath
	}
	if upd.ReasonForReassign != nil {
		fields["reason_for_reassign"] = *upd.ReasonForReassign
	}
	if len(fields) == 0 {
		return nil
	}

	res := db.Model(&models.CompletedTask{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("completed task %d: %w", id, ErrNotFound)
	}
	return nil
}

// CreateCompletedTaskFile attaches an exported artifact URL to a completed
// task.
func (s *Store) CreateCompletedTaskFile(db *gorm.DB, completedTaskID uint, url string) error {
	file := models.CompletedTaskFile{
		CompletedTaskID: completedTaskID,
		URL:             url,
	}
	return db.Create(&file).Error
}

// ListCompletedTaskFiles returns all artifact references attached to a
// completed task.
func (s *Store) ListCompletedTaskFiles(db *gorm.DB, completedTaskID uint) ([]models.CompletedTaskFile, error) {
	var files []models.CompletedTaskFile
	if err := db.Where("completed_task_id = ?", completedTaskID).Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}
