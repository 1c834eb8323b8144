package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/pkg/contracts/events"
)

// KafkaPublisher encapsula o writer Kafka e o logger.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(w *kafka.Writer, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: log}
}

// PublishRaceFinished serializa o evento em JSON e envia para o tópico race_finished.
// A chave da mensagem é o RaceID para manter a ordem por partição.
func (p *KafkaPublisher) PublishRaceFinished(ctx context.Context, e events.RaceFinished) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(e.RaceID),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish race finished", zap.String("raceId", e.RaceID), zap.Error(err))
		return err
	}

	p.log.Debug("published race finished", zap.String("raceId", e.RaceID))
	return nil
}

// Close finaliza o writer e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
