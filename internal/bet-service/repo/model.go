package repo

import "time"

// Status da aposta no bet-service
const (
	StatusPending  = "PENDING"
	StatusRejected = "REJECTED"
	StatusSettled  = "SETTLED"
)

// Bet é o modelo persistido no Postgres.
type Bet struct {
	ID         string
	RaceID     string
	UserID     string
	BetType    string
	Selections []int
	Amount     int64
	Odds       float64
	Status     string
	IsWinner   *bool
	Payout     *int64
	CreatedAt  time.Time
	SettledAt  *time.Time
}

// Race é o recorte da corrida que importa para aceitar apostas
type Race struct {
	ID        string
	Status    string
	StartTime time.Time
}
