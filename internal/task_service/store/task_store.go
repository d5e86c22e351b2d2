package store

import (
	"Colabi/internal/models"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GetTaskByID loads a single task definition by its primary key.
func (s *Store) GetTaskByID(db *gorm.DB, id uint) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &task, nil
}

// PreviousOutputs returns the recorded output text of the given completed
// tasks, in the caller-specified id order. Missing ids are skipped.
func (s *Store) PreviousOutputs(db *gorm.DB, ids []uint) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []models.CompletedTask
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]string, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.Output
	}

	outputs := make([]string, 0, len(ids))
	for _, id := range ids {
		if out, ok := byID[id]; ok {
			outputs = append(outputs, out)
		}
	}
	return outputs, nil
}
