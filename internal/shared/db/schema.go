package db

import (
	"context"
	"database/sql"
	"fmt"
)

// statements do schema, aplicados em ordem e idempotentes
var schema = []string{
	`CREATE TABLE IF NOT EXISTS races (
		id          TEXT PRIMARY KEY,
		status      TEXT NOT NULL DEFAULT 'WAITING',
		start_time  TIMESTAMPTZ NOT NULL,
		seed        TEXT NOT NULL,
		result      INTEGER[],
		frames      JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS races_start_time_idx ON races (start_time)`,
	`CREATE TABLE IF NOT EXISTS bets (
		id          TEXT PRIMARY KEY,
		race_id     TEXT NOT NULL REFERENCES races(id),
		user_id     TEXT NOT NULL,
		bet_type    TEXT NOT NULL,
		horses      INTEGER[] NOT NULL,
		amount      BIGINT NOT NULL,
		odds        DOUBLE PRECISION NOT NULL,
		status      TEXT NOT NULL DEFAULT 'PENDING',
		is_winner   BOOLEAN,
		payout      BIGINT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		settled_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS bets_race_pending_idx ON bets (race_id) WHERE is_winner IS NULL`,
	`CREATE INDEX IF NOT EXISTS bets_user_idx ON bets (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS bet_transactions (
		id          BIGSERIAL PRIMARY KEY,
		bet_id      TEXT NOT NULL,
		old_status  TEXT NOT NULL,
		new_status  TEXT NOT NULL,
		reason      TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL UNIQUE,
		balance        BIGINT NOT NULL DEFAULT 0,
		version        BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_reservations (
		id            TEXT PRIMARY KEY,
		wallet_id     TEXT NOT NULL REFERENCES wallets(id),
		external_ref  TEXT NOT NULL,
		amount        BIGINT NOT NULL,
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (wallet_id, external_ref)
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_ledger (
		id              BIGSERIAL PRIMARY KEY,
		wallet_id       TEXT NOT NULL REFERENCES wallets(id),
		operation_type  TEXT NOT NULL,
		amount          BIGINT NOT NULL,
		description     TEXT,
		external_ref    TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS wallet_ledger_payout_ref_idx
		ON wallet_ledger (wallet_id, external_ref) WHERE operation_type = 'PAYOUT'`,
}

// Migrate aplica o schema; pode rodar a cada start de serviço
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
