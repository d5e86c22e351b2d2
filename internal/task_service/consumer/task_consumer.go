package consumer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"Colabi/internal/models"
	"Colabi/pkg/logger"
)

// Dispatcher executes one task message end to end and returns the outcome
// description.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *models.TaskMessage) (string, error)
}

// Guard releases the per-record dispatch lock once a run has finished.
type Guard interface {
	Release(ctx context.Context, completedTaskID uint) error
}

// TaskConsumer pulls task messages off Kafka and hands them to the
// dispatcher, one at a time per consumer instance.
type TaskConsumer struct {
	reader     *kafka.Reader
	dispatcher Dispatcher
	guard      Guard
	logger     *logger.Logger
	done       chan struct{}
}

// NewTaskConsumer creates a consumer in the given consumer group.
func NewTaskConsumer(brokers []string, topic, groupID string, dispatcher Dispatcher, guard Guard, logger *logger.Logger) *TaskConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &TaskConsumer{
		reader:     reader,
		dispatcher: dispatcher,
		guard:      guard,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins consuming in a background goroutine. A task that fails is
// logged, committed and left to its terminal record state; it never stops
// the loop. The loop exits when the context is canceled, after the
// in-flight task has finished.
func (c *TaskConsumer) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stopping Kafka task consumer...")
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil {
						c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error fetching message from Kafka")
					}
					continue
				}

				c.handle(ctx, msg)

				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to commit Kafka message")
				}
			}
		}
	}()
}

func (c *TaskConsumer) handle(ctx context.Context, msg kafka.Message) {
	var taskMsg models.TaskMessage
	if err := json.Unmarshal(msg.Value, &taskMsg); err != nil {
		c.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
			"topic":     msg.Topic,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).Error("Dropping undecodable task message")
		return
	}

	outcome, err := c.dispatcher.Dispatch(ctx, &taskMsg)
	if c.guard != nil {
		if relErr := c.guard.Release(ctx, taskMsg.CompletedTaskID); relErr != nil {
			c.logger.WithError(models.ErrorInfo{Message: relErr.Error()}).Warn("Failed to release dispatch lock")
		}
	}
	if err != nil {
		// The orchestrator already finalized the record; nothing to redo here.
		c.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
			"completedTaskID": taskMsg.CompletedTaskID,
			"kind":            string(taskMsg.Kind),
		}).Error("Task message handling failed")
		return
	}
	c.logger.WithPayload(map[string]interface{}{"outcome": outcome}).Info("Task message handled")
}

// Drain blocks until the consumer loop has fully stopped.
func (c *TaskConsumer) Drain() {
	<-c.done
}

// Close closes the underlying Kafka reader.
func (c *TaskConsumer) Close() error {
	return c.reader.Close()
}
