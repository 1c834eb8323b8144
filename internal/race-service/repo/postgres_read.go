package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/radieske/turtle-race-platform/internal/shared/db"
)

var ErrNotFound = errors.New("race not found")

type Race struct {
	ID        string
	Status    string
	StartTime time.Time
	Seed      string
	Result    []int
}

// ReadRepo atende as consultas do race-service
type ReadRepo struct {
	DB *sql.DB
}

const raceColumns = `id, status, start_time, seed, result`

func scanRace(row interface{ Scan(...any) error }) (Race, error) {
	var r Race
	var result pq.Int64Array
	if err := row.Scan(&r.ID, &r.Status, &r.StartTime, &r.Seed, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Race{}, ErrNotFound
		}
		return Race{}, err
	}
	r.Result = db.Ints(result)
	return r, nil
}

// Current retorna a primeira corrida com largada a partir de `since`
func (r *ReadRepo) Current(ctx context.Context, since time.Time) (Race, error) {
	const q = `
		SELECT ` + raceColumns + `
		FROM races
		WHERE start_time >= $1
		ORDER BY start_time
		LIMIT 1;
	`
	return scanRace(r.DB.QueryRowContext(ctx, q, since))
}

func (r *ReadRepo) Get(ctx context.Context, id string) (Race, error) {
	const q = `SELECT ` + raceColumns + ` FROM races WHERE id = $1;`
	return scanRace(r.DB.QueryRowContext(ctx, q, id))
}

// Frames retorna o status e os frames gravados (nil se ainda não simulada)
func (r *ReadRepo) Frames(ctx context.Context, id string) (string, [][]float64, error) {
	const q = `SELECT status, frames FROM races WHERE id = $1;`
	var status string
	var raw []byte
	if err := r.DB.QueryRowContext(ctx, q, id).Scan(&status, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	if raw == nil {
		return status, nil, nil
	}
	var frames [][]float64
	if err := json.Unmarshal(raw, &frames); err != nil {
		return "", nil, err
	}
	return status, frames, nil
}

// Create insere uma corrida avulsa (usada pelo endpoint de teste)
func (r *ReadRepo) Create(ctx context.Context, race Race) error {
	const q = `INSERT INTO races (id, status, start_time, seed) VALUES ($1,$2,$3,$4);`
	_, err := r.DB.ExecContext(ctx, q, race.ID, race.Status, race.StartTime, race.Seed)
	return err
}
