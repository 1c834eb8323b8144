package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/settlement/service"
	"github.com/radieske/turtle-race-platform/pkg/contracts/events"
)

type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Settler interface {
	SettleRace(ctx context.Context, raceID string) (int, error)
}

type DLQWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Processor consome race_finished e dispara a liquidação da corrida.
// O payload só identifica a corrida; o resultado é relido do banco.
type Processor struct {
	Log     *zap.Logger
	Reader  Reader
	Settler Settler
	DLQ     DLQWriter // opcional: race_finished_dlq

	Attempts int
	Backoff  time.Duration

	OnConsumed func()       // métricas (counter++)
	OnError    func(string) // métricas por fase
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// Run inicia o loop principal de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem; falhas persistentes vão para a DLQ
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	var ev events.RaceFinished
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.RaceID == "" {
		p.Log.Warn("invalid race_finished message", zap.ByteString("value", m.Value), zap.Error(err))
		p.fail("decode")
		return
	}

	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}

	var err error
	for i := 0; i < attempts; i++ {
		if _, err = p.Settler.SettleRace(ctx, ev.RaceID); err == nil {
			return
		}
		// corrida ainda não FINISHED no banco: pode ser réplica atrasada, tenta de novo
		p.Log.Warn("settle race failed", zap.String("raceId", ev.RaceID), zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}

	p.fail("settle")
	if errors.Is(err, service.ErrRaceNotFinished) {
		p.Log.Error("race_finished for unfinished race", zap.String("raceId", ev.RaceID))
	}
	if p.DLQ != nil {
		if derr := p.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()}); derr != nil {
			p.Log.Error("dlq publish failed", zap.String("raceId", ev.RaceID), zap.Error(derr))
		}
	}
}
