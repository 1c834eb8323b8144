package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/radieske/turtle-race-platform/internal/shared/db"
)

// Postgres implementa a persistência de corridas usada pelo scheduler
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateRaces insere as corridas ignorando ids já existentes (seed nunca é sobrescrito)
func (p *Postgres) CreateRaces(ctx context.Context, races []Race) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	created := 0
	for _, r := range races {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO races (id, status, start_time, seed)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO NOTHING`,
			r.ID, r.Status, r.StartTime, r.Seed,
		)
		if err != nil {
			return 0, fmt.Errorf("insert race %s: %w", r.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return created, nil
}

// ListUnfinished retorna corridas não finalizadas com largada até `until`
func (p *Postgres) ListUnfinished(ctx context.Context, until time.Time) ([]Race, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, status, start_time, seed, result
		FROM races
		WHERE status <> 'FINISHED' AND start_time <= $1
		ORDER BY start_time`, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Race
	for rows.Next() {
		var r Race
		var result pq.Int64Array
		if err := rows.Scan(&r.ID, &r.Status, &r.StartTime, &r.Seed, &result); err != nil {
			return nil, err
		}
		r.Result = db.Ints(result)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveSimulation grava resultado e frames uma única vez (WHERE result IS NULL)
func (p *Postgres) SaveSimulation(ctx context.Context, raceID string, result []int, frames [][]float64) (bool, error) {
	b, err := json.Marshal(frames)
	if err != nil {
		return false, err
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE races SET result=$2, frames=$3, updated_at=NOW()
		WHERE id=$1 AND result IS NULL`,
		raceID, db.IntArray(result), b,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Transition muda o status só se o atual for `from`
func (p *Postgres) Transition(ctx context.Context, raceID, from, to string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE races SET status=$3, updated_at=NOW()
		WHERE id=$1 AND status=$2`, raceID, from, to)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
