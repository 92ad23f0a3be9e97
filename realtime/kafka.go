package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMirror copies broadcast events onto a Kafka topic for downstream
// consumers. It is not a replay log for realtime clients.
type KafkaMirror struct {
	w   messageWriter
	log *slog.Logger
}

func NewKafkaMirror(brokers []string, topic string, log *slog.Logger) *KafkaMirror {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warn("kafka mirror delivery failed", "messages", len(msgs), "error", err)
			}
		},
	}
	return &KafkaMirror{w: w, log: log}
}

func (m *KafkaMirror) Mirror(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		m.log.Warn("kafka mirror: marshal event", "event", ev.Name, "error", err)
		return
	}
	msg := kafka.Message{Key: []byte(ev.Name), Value: data, Time: time.Now()}
	if err := m.w.WriteMessages(context.Background(), msg); err != nil {
		m.log.Warn("kafka mirror: write", "event", ev.Name, "error", err)
	}
}

func (m *KafkaMirror) Close() error {
	return m.w.Close()
}
