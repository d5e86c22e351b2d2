package publisher

import (
	"testing"

	"github.com/segmentio/kafka-go"

	"Colabi/pkg/logger"
)

func TestNewTaskPublisherSharesWriter(t *testing.T) {
	w := &kafka.Writer{
		Addr:     kafka.TCP("localhost:9092"),
		Topic:    "tasks",
		Balancer: &kafka.LeastBytes{},
	}
	p := NewTaskPublisher(w, logger.New("test", 0, 0))

	if p.writer != w {
		t.Error("publisher must write through the injected writer, not its own")
	}
}
