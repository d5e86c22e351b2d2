package store

import (
	"Colabi/internal/models"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// GetAgentByID loads a single agent by its primary key.
func (s *Store) GetAgentByID(db *gorm.DB, id uint) (*models.Agent, error) {
	var agent models.Agent
	if err := db.First(&agent, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agent %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &agent, nil
}

// SetAgentVector records the vector namespace for an agent's private corpus
// and flips the own_data flag on.
func (s *Store) SetAgentVector(db *gorm.DB, id uint, vectorID string) error {
	res := db.Model(&models.Agent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"own_data":  true,
		"vector_id": vectorID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("agent %d: %w", id, ErrNotFound)
	}
	return nil
}
