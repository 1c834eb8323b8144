// Package service liquida as apostas de uma corrida encerrada e move o dinheiro na carteira.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/betting"
	"github.com/radieske/turtle-race-platform/internal/race-engine/schedule"
	"github.com/radieske/turtle-race-platform/pkg/contracts/events"
)

// ErrRaceNotFinished indica que o resultado ainda não pode ser usado
var ErrRaceNotFinished = errors.New("race not finished")

type Repo interface {
	RaceResult(ctx context.Context, raceID string) (status string, result []int, err error)
	PendingBets(ctx context.Context, raceID string) ([]betting.Bet, error)
	ApplySettlement(ctx context.Context, betID string, o betting.Outcome) (bool, error)
	FinishedWithPending(ctx context.Context, limit int) ([]string, error)
}

type Wallet interface {
	Commit(ctx context.Context, userID, externalRef string) error
	Payout(ctx context.Context, userID string, amount int64, externalRef string) error
}

type Publisher interface {
	PublishSettled(ctx context.Context, e events.BetSettled) error
	PublishDLQ(ctx context.Context, e events.BetSettled) error
}

// Settler aplica Settle em cada aposta pendente.
// A escrita condicional no banco garante liquidação no máximo uma vez por aposta;
// a carteira só é movimentada por quem venceu essa escrita.
type Settler struct {
	Log       *zap.Logger
	Repo      Repo
	Wallet    Wallet
	Publisher Publisher

	WalletAttempts int
	RetryBackoff   time.Duration
	SweepLimit     int

	OnSettled func(outcome string) // "won" | "lost"
	OnPayout  func(amount int64)
	OnError   func(stage string)
}

func (s *Settler) fail(stage string) {
	if s.OnError != nil {
		s.OnError(stage)
	}
}

// PayoutRef é o external_ref do crédito de prêmio na carteira
func PayoutRef(betID string) string { return "payout:" + betID }

// SettleRace liquida todas as apostas pendentes da corrida a partir do resultado persistido
func (s *Settler) SettleRace(ctx context.Context, raceID string) (int, error) {
	status, result, err := s.Repo.RaceResult(ctx, raceID)
	if err != nil {
		return 0, fmt.Errorf("load race %s: %w", raceID, err)
	}
	if status != string(schedule.StatusFinished) || len(result) == 0 {
		return 0, fmt.Errorf("%w: %s is %s", ErrRaceNotFinished, raceID, status)
	}

	bets, err := s.Repo.PendingBets(ctx, raceID)
	if err != nil {
		return 0, fmt.Errorf("pending bets %s: %w", raceID, err)
	}

	settled := 0
	for _, bet := range bets {
		outcome := betting.Settle(bet, result)
		applied, err := s.Repo.ApplySettlement(ctx, bet.ID, outcome)
		if err != nil {
			s.fail("apply")
			s.Log.Error("apply settlement failed", zap.String("betId", bet.ID), zap.Error(err))
			continue
		}
		if !applied {
			continue
		}
		settled++
		s.afterApplied(ctx, bet, outcome)
	}

	s.Log.Info("race settled", zap.String("raceId", raceID), zap.Int("pending", len(bets)), zap.Int("settled", settled))
	return settled, nil
}

// afterApplied movimenta a carteira e publica bet_settled (ou DLQ)
func (s *Settler) afterApplied(ctx context.Context, bet betting.Bet, o betting.Outcome) {
	label := "lost"
	if o.IsWinner {
		label = "won"
	}
	if s.OnSettled != nil {
		s.OnSettled(label)
	}

	ev := events.BetSettled{
		BetID:    bet.ID,
		UserID:   bet.UserID,
		RaceID:   bet.RaceID,
		IsWinner: o.IsWinner,
		Payout:   o.Payout,
		Ts:       time.Now().UTC(),
	}

	if err := s.moveMoney(ctx, bet, o); err != nil {
		s.fail("wallet")
		s.Log.Error("wallet settlement failed",
			zap.String("betId", bet.ID),
			zap.String("userId", bet.UserID),
			zap.Int64("payout", o.Payout),
			zap.Error(err))
		ev.Reason = err.Error()
		if derr := s.Publisher.PublishDLQ(ctx, ev); derr != nil {
			s.fail("dlq")
			s.Log.Error("dlq publish failed", zap.String("betId", bet.ID), zap.Error(derr))
		}
		return
	}

	if err := s.Publisher.PublishSettled(ctx, ev); err != nil {
		s.fail("publish")
		s.Log.Warn("publish bet settled failed", zap.String("betId", bet.ID), zap.Error(err))
	}
}

// moveMoney efetiva a reserva e credita o prêmio, com retry simples
func (s *Settler) moveMoney(ctx context.Context, bet betting.Bet, o betting.Outcome) error {
	if err := s.retry(ctx, func() error { return s.Wallet.Commit(ctx, bet.UserID, bet.ID) }); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if !o.IsWinner || o.Payout <= 0 {
		return nil
	}
	if err := s.retry(ctx, func() error { return s.Wallet.Payout(ctx, bet.UserID, o.Payout, PayoutRef(bet.ID)) }); err != nil {
		return fmt.Errorf("payout: %w", err)
	}
	if s.OnPayout != nil {
		s.OnPayout(o.Payout)
	}
	return nil
}

func (s *Settler) retry(ctx context.Context, fn func() error) error {
	attempts := s.WalletAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := s.RetryBackoff
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}
	return err
}

// Sweep liquida corridas encerradas cujo race_finished se perdeu
func (s *Settler) Sweep(ctx context.Context) error {
	limit := s.SweepLimit
	if limit <= 0 {
		limit = 20
	}
	ids, err := s.Repo.FinishedWithPending(ctx, limit)
	if err != nil {
		s.fail("sweep")
		return fmt.Errorf("sweep: %w", err)
	}
	for _, id := range ids {
		if _, err := s.SettleRace(ctx, id); err != nil {
			s.fail("sweep")
			s.Log.Warn("sweep settle failed", zap.String("raceId", id), zap.Error(err))
		}
	}
	return nil
}
