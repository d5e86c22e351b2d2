package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"Colabi/internal/models"
	"Colabi/pkg/logger"
)

// TaskPublisher hands execution units to Kafka. The HTTP layer publishes
// and returns immediately; the worker picks the message up on its own time.
type TaskPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

// NewTaskPublisher creates a publisher over the shared task-topic writer.
func NewTaskPublisher(writer *kafka.Writer, logger *logger.Logger) *TaskPublisher {
	return &TaskPublisher{
		writer: writer,
		logger: logger,
	}
}

// Publish sends a task message keyed by its completed-task id, so retries
// of the same record land on the same partition.
func (p *TaskPublisher) Publish(ctx context.Context, msg *models.TaskMessage) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to marshal task message for Kafka")
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", msg.CompletedTaskID)),
		Value: msgBytes,
	})
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).
			WithPayload(map[string]interface{}{"topic": p.writer.Topic}).
			Error("Failed to write task message to Kafka")
		return err
	}
	return nil
}
