// Package service contém o loop do race-scheduler: cria o calendário do dia,
// simula cada corrida na largada e avança WAITING → RUNNING → FINISHED.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/race-engine/schedule"
	"github.com/radieske/turtle-race-platform/internal/race-engine/simulator"
	"github.com/radieske/turtle-race-platform/internal/race-scheduler/repo"
	"github.com/radieske/turtle-race-platform/pkg/contracts/events"
)

type Repo interface {
	CreateRaces(ctx context.Context, races []repo.Race) (int, error)
	ListUnfinished(ctx context.Context, until time.Time) ([]repo.Race, error)
	SaveSimulation(ctx context.Context, raceID string, result []int, frames [][]float64) (bool, error)
	Transition(ctx context.Context, raceID, from, to string) (bool, error)
}

// Announcer publica o fim da corrida para o settlement-worker (Kafka)
type Announcer interface {
	PublishRaceFinished(ctx context.Context, e events.RaceFinished) error
}

// Broadcaster publica mudanças de status para os clientes WebSocket (Redis Pub/Sub)
type Broadcaster interface {
	PublishUpdate(ctx context.Context, u events.RaceUpdate) error
}

type FrameCache interface {
	SetFrames(ctx context.Context, raceID string, frames [][]float64) error
}

// Scheduler mantém o estado das corridas em linha com o relógio.
// Pode haver mais de uma instância: toda escrita no banco é condicional.
type Scheduler struct {
	Log         *zap.Logger
	Repo        Repo
	Announcer   Announcer
	Broadcaster Broadcaster
	Frames      FrameCache // opcional

	Location     *time.Location
	FPS          int
	TickInterval time.Duration
	DaysAhead    int

	Now     func() time.Time
	NewSeed func() string

	PublishAttempts int
	RetryBackoff    time.Duration

	// Callbacks de métricas (opcionais)
	OnSimulated  func()
	OnTransition func(to string)
	OnError      func(stage string)

	ensuredDay string
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now().In(s.loc())
	}
	return time.Now().In(s.loc())
}

func (s *Scheduler) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *Scheduler) seed() string {
	if s.NewSeed != nil {
		return s.NewSeed()
	}
	return schedule.NewSeed()
}

func (s *Scheduler) fail(stage string, err error, fields ...zap.Field) {
	if s.OnError != nil {
		s.OnError(stage)
	}
	s.Log.Error(stage+" failed", append(fields, zap.Error(err))...)
}

// EnsureDays cria as 48 corridas de hoje e dos próximos DaysAhead dias.
// Corridas já existentes mantêm o seed original.
func (s *Scheduler) EnsureDays(ctx context.Context) error {
	now := s.now()
	var races []repo.Race
	for d := 0; d <= s.DaysAhead; d++ {
		for _, start := range schedule.DailySlots(now.AddDate(0, 0, d)) {
			races = append(races, repo.Race{
				ID:        schedule.RaceID(start),
				Status:    string(schedule.StatusWaiting),
				StartTime: start,
				Seed:      s.seed(),
			})
		}
	}

	created, err := s.Repo.CreateRaces(ctx, races)
	if err != nil {
		return fmt.Errorf("create races: %w", err)
	}
	s.ensuredDay = now.Format("2006-01-02")
	if created > 0 {
		s.Log.Info("races scheduled", zap.Int("created", created), zap.Int("days", s.DaysAhead+1))
	}
	return nil
}

// Tick avança todas as corridas cuja largada já passou
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.now()
	if now.Format("2006-01-02") != s.ensuredDay {
		if err := s.EnsureDays(ctx); err != nil {
			s.fail("ensure_days", err)
		}
	}

	races, err := s.Repo.ListUnfinished(ctx, now)
	if err != nil {
		return fmt.Errorf("list unfinished: %w", err)
	}
	for _, r := range races {
		if err := s.advance(ctx, r, now); err != nil {
			s.fail("advance", err, zap.String("raceId", r.ID))
		}
	}
	return nil
}

func (s *Scheduler) advance(ctx context.Context, r repo.Race, now time.Time) error {
	if r.Result == nil {
		sim := simulator.Simulate(r.Seed, s.FPS)
		saved, err := s.Repo.SaveSimulation(ctx, r.ID, sim.Order, sim.Frames)
		if err != nil {
			return fmt.Errorf("save simulation: %w", err)
		}
		// mesmo seed, mesmo resultado: se outra instância gravou antes, o valor é igual
		r.Result = sim.Order
		if saved {
			if s.OnSimulated != nil {
				s.OnSimulated()
			}
			s.Log.Info("race simulated", zap.String("raceId", r.ID), zap.Ints("result", sim.Order))
		}
		if s.Frames != nil {
			if err := s.Frames.SetFrames(ctx, r.ID, sim.Frames); err != nil {
				s.Log.Warn("frames cache set failed", zap.String("raceId", r.ID), zap.Error(err))
			}
		}
	}

	want := schedule.StatusAt(r.StartTime, now)
	status := schedule.Status(r.Status)

	if status == schedule.StatusWaiting && want != schedule.StatusWaiting {
		ok, err := s.Repo.Transition(ctx, r.ID, string(schedule.StatusWaiting), string(schedule.StatusRunning))
		if err != nil {
			return fmt.Errorf("transition to running: %w", err)
		}
		if !ok {
			return nil
		}
		status = schedule.StatusRunning
		s.transitioned(ctx, r, status, now)
	}

	if status == schedule.StatusRunning && want == schedule.StatusFinished {
		ok, err := s.Repo.Transition(ctx, r.ID, string(schedule.StatusRunning), string(schedule.StatusFinished))
		if err != nil {
			return fmt.Errorf("transition to finished: %w", err)
		}
		if !ok {
			return nil
		}
		s.transitioned(ctx, r, schedule.StatusFinished, now)
		return s.announce(ctx, events.RaceFinished{RaceID: r.ID, Result: r.Result, FinishedAt: now})
	}
	return nil
}

func (s *Scheduler) transitioned(ctx context.Context, r repo.Race, to schedule.Status, now time.Time) {
	if s.OnTransition != nil {
		s.OnTransition(string(to))
	}
	s.Log.Info("race status changed", zap.String("raceId", r.ID), zap.String("status", string(to)))

	if s.Broadcaster == nil {
		return
	}
	u := events.RaceUpdate{
		Type:      events.RaceUpdateStatus,
		RaceID:    r.ID,
		Status:    string(to),
		StartTime: r.StartTime,
		Ts:        now,
	}
	if to == schedule.StatusFinished {
		u.Result = r.Result
	}
	bctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := s.Broadcaster.PublishUpdate(bctx, u); err != nil {
		s.Log.Warn("ws broadcast publish failed", zap.String("raceId", r.ID), zap.Error(err))
	}
}

// announce tenta publicar o RaceFinished algumas vezes; se falhar, o sweep
// do settlement-worker ainda encontra a corrida pelo status no banco
func (s *Scheduler) announce(ctx context.Context, e events.RaceFinished) error {
	attempts := s.PublishAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := s.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = s.Announcer.PublishRaceFinished(ctx, e); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("publish race finished after %d attempts: %w", attempts, err)
}

// Run cria o calendário e roda Tick até o contexto ser cancelado
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.EnsureDays(ctx); err != nil {
		return err
	}

	interval := s.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		if err := s.Tick(ctx); err != nil {
			s.fail("tick", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
