package repo

import "time"

// Race é o registro de corrida visto pelo scheduler
type Race struct {
	ID        string
	Status    string
	StartTime time.Time
	Seed      string
	Result    []int // nil até a simulação
}
