package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/turtle-race-platform/pkg/contracts/events"
)

// MessageWriter é o subconjunto de *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica bet_settled e, em falhas de carteira, a DLQ
type KafkaPublisher struct {
	Settled MessageWriter
	DLQ     MessageWriter // opcional
}

func write(ctx context.Context, w MessageWriter, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: time.Now()})
}

func (p *KafkaPublisher) PublishSettled(ctx context.Context, e events.BetSettled) error {
	return write(ctx, p.Settled, e.BetID, e)
}

func (p *KafkaPublisher) PublishDLQ(ctx context.Context, e events.BetSettled) error {
	if p.DLQ == nil {
		return nil
	}
	return write(ctx, p.DLQ, e.BetID, e)
}
