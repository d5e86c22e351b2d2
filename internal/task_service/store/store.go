package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// sessionRetryBackoff is the fixed delay before the single retry of a failed
// session acquisition.
const sessionRetryBackoff = time.Second

// Store bundles all task-service persistence over a shared GORM pool.
// Each task run acquires its own session at the start of the unit of work.
type Store struct {
	db *gorm.DB
}

// New creates a Store over the given GORM database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AcquireSession returns a request-scoped database handle after verifying
// connectivity. A first-attempt ping failure is retried exactly once after a
// fixed backoff; no further retry is attempted for the unit of work.
func (s *Store) AcquireSession(ctx context.Context) (*gorm.DB, error) {
	if err := s.ping(ctx); err != nil {
		time.Sleep(sessionRetryBackoff)
		if err = s.ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to acquire database session: %w", err)
		}
	}
	return s.db.WithContext(ctx), nil
}

func (s *Store) ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
