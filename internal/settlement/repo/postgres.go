package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/radieske/turtle-race-platform/internal/betting"
	"github.com/radieske/turtle-race-platform/internal/shared/db"
)

var ErrNotFound = errors.New("race not found")

// Postgres concentra as leituras e a escrita condicional da liquidação
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// RaceResult lê o status e o resultado gravados pelo race-scheduler
func (p *Postgres) RaceResult(ctx context.Context, raceID string) (string, []int, error) {
	var status string
	var result pq.Int64Array
	err := p.db.QueryRowContext(ctx, `SELECT status, result FROM races WHERE id=$1`, raceID).Scan(&status, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, err
	}
	return status, db.Ints(result), nil
}

// PendingBets lista as apostas aceitas e ainda não liquidadas da corrida
func (p *Postgres) PendingBets(ctx context.Context, raceID string) ([]betting.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, race_id, user_id, bet_type, horses, amount, odds
		FROM bets
		WHERE race_id=$1 AND status='PENDING' AND is_winner IS NULL
		ORDER BY created_at`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []betting.Bet
	for rows.Next() {
		var b betting.Bet
		var betType string
		var horses pq.Int64Array
		if err := rows.Scan(&b.ID, &b.RaceID, &b.UserID, &betType, &horses, &b.Amount, &b.Odds); err != nil {
			return nil, err
		}
		b.Type = betting.BetType(betType)
		b.Selections = db.Ints(horses)
		out = append(out, b)
	}
	return out, rows.Err()
}

// ApplySettlement grava o resultado da aposta uma única vez.
// applied=false quando outra execução já liquidou (is_winner não é mais NULL).
func (p *Postgres) ApplySettlement(ctx context.Context, betID string, o betting.Outcome) (bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bets
		SET is_winner=$2, payout=$3, status='SETTLED', settled_at=NOW(), updated_at=NOW()
		WHERE id=$1 AND is_winner IS NULL`, betID, o.IsWinner, o.Payout)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	reason := "lost"
	if o.IsWinner {
		reason = "won"
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bet_transactions (bet_id, old_status, new_status, reason)
		VALUES ($1,'PENDING','SETTLED',$2)`, betID, reason); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// FinishedWithPending retorna corridas encerradas que ainda têm apostas pendentes
func (p *Postgres) FinishedWithPending(ctx context.Context, limit int) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT r.id, r.start_time
		FROM races r
		JOIN bets b ON b.race_id = r.id
		WHERE r.status='FINISHED' AND r.result IS NOT NULL
		  AND b.status='PENDING' AND b.is_winner IS NULL
		ORDER BY r.start_time
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var start sql.NullTime
		if err := rows.Scan(&id, &start); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
