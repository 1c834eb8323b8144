package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/turtle-race-platform/internal/shared/db"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrBettingClosed = errors.New("betting closed")
)

// Postgres implementa operações de persistência de apostas em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Race retorna status e largada da corrida
func (p *Postgres) Race(ctx context.Context, raceID string) (Race, error) {
	var r Race
	err := p.db.QueryRowContext(ctx, `SELECT id, status, start_time FROM races WHERE id=$1`, raceID).
		Scan(&r.ID, &r.Status, &r.StartTime)
	if errors.Is(err, sql.ErrNoRows) {
		return Race{}, ErrNotFound
	}
	return r, err
}

// CreatePending insere a aposta como PENDING somente se a corrida ainda aceita apostas
// (WAITING e largada depois de `cutoff`). Caso contrário devolve ErrBettingClosed.
func (p *Postgres) CreatePending(ctx context.Context, b *Bet, cutoff time.Time) (string, error) {
	id := uuid.NewString()
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id, race_id, user_id, bet_type, horses, amount, odds, status)
		SELECT $1,$2,$3,$4,$5,$6,$7,'PENDING'
		WHERE EXISTS (
			SELECT 1 FROM races WHERE id=$2 AND status='WAITING' AND start_time > $8
		)`,
		id, b.RaceID, b.UserID, b.BetType, db.IntArray(b.Selections), b.Amount, b.Odds, cutoff,
	)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrBettingClosed
	}
	return id, nil
}

// MarkRejected marca a aposta como REJECTED e registra a transição
func (p *Postgres) MarkRejected(ctx context.Context, betID, reason string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bets SET status='REJECTED', updated_at=NOW()
		WHERE id=$1 AND status='PENDING'`, betID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bet_transactions (bet_id, old_status, new_status, reason)
		VALUES ($1,'PENDING','REJECTED',$2)`, betID, reason); err != nil {
		return err
	}
	return tx.Commit()
}

const betColumns = `id, race_id, user_id, bet_type, horses, amount, odds, status, is_winner, payout, created_at, settled_at`

func scanBet(row interface{ Scan(...any) error }) (Bet, error) {
	var b Bet
	var horses pq.Int64Array
	var isWinner sql.NullBool
	var payout sql.NullInt64
	var settledAt sql.NullTime
	if err := row.Scan(&b.ID, &b.RaceID, &b.UserID, &b.BetType, &horses, &b.Amount, &b.Odds,
		&b.Status, &isWinner, &payout, &b.CreatedAt, &settledAt); err != nil {
		return Bet{}, err
	}
	b.Selections = db.Ints(horses)
	if isWinner.Valid {
		b.IsWinner = &isWinner.Bool
	}
	if payout.Valid {
		b.Payout = &payout.Int64
	}
	if settledAt.Valid {
		b.SettledAt = &settledAt.Time
	}
	return b, nil
}

// Get retorna a aposta pelo betID
func (p *Postgres) Get(ctx context.Context, betID string) (Bet, error) {
	b, err := scanBet(p.db.QueryRowContext(ctx, `SELECT `+betColumns+` FROM bets WHERE id=$1`, betID))
	if errors.Is(err, sql.ErrNoRows) {
		return Bet{}, ErrNotFound
	}
	return b, err
}

// ListByUser retorna as apostas do usuário, mais recentes primeiro.
// raceID vazio lista todas as corridas.
func (p *Postgres) ListByUser(ctx context.Context, userID, raceID string, limit int) ([]Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE user_id=$1 AND ($2 = '' OR race_id=$2)
		ORDER BY created_at DESC
		LIMIT $3`, userID, raceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
