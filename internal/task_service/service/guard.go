package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// guardTTL bounds how long a dispatch lock can outlive a crashed worker.
const guardTTL = 15 * time.Minute

// InflightGuard serializes dispatches per completed-task id with a Redis
// SETNX lock. The API layer acquires before publishing; the consumer
// releases once the run has reached a terminal state. A record that is
// already executing cannot be dispatched again until its run finishes or
// the lock expires.
type InflightGuard struct {
	client *redis.Client
}

// NewInflightGuard creates a guard over the shared Redis client.
func NewInflightGuard(client *redis.Client) *InflightGuard {
	return &InflightGuard{client: client}
}

func guardKey(completedTaskID uint) string {
	return fmt.Sprintf("task:inflight:%d", completedTaskID)
}

// Acquire tries to take the dispatch lock for the record. It returns false
// when another dispatch currently holds it.
func (g *InflightGuard) Acquire(ctx context.Context, completedTaskID uint) (bool, error) {
	return g.client.SetNX(ctx, guardKey(completedTaskID), 1, guardTTL).Result()
}

// Release frees the dispatch lock.
func (g *InflightGuard) Release(ctx context.Context, completedTaskID uint) error {
	return g.client.Del(ctx, guardKey(completedTaskID)).Err()
}
