package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	w        messageWriter
	attempts int
	backoff  time.Duration
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		// kafka может подняться позже сервиса (docker compose)
		attempts: 5,
		backoff:  150 * time.Millisecond,
	}
}

func newProducerWithWriter(w messageWriter) *Producer {
	return &Producer{w: w, attempts: 1}
}

// WithRetry задаёт число попыток и шаг линейного backoff.
func (p *Producer) WithRetry(attempts int, backoff time.Duration) *Producer {
	if attempts > 0 {
		p.attempts = attempts
	}
	if backoff >= 0 {
		p.backoff = backoff
	}
	return p
}

// Publish пишет одно сообщение. Ключ — id журни, поэтому события одного журни
// попадают в одну партицию и идут по порядку.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	msg := kafka.Message{Topic: topic, Key: key, Value: value}
	var err error
	for i := 0; i < p.attempts; i++ {
		if err = p.w.WriteMessages(ctx, msg); err == nil {
			return nil
		}
		if i == p.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "kafka publish")
		case <-time.After(time.Duration(i+1) * p.backoff):
		}
	}
	return errors.Wrapf(err, "kafka publish after %d attempts", p.attempts)
}

func (p *Producer) Close() error {
	return p.w.Close()
}
