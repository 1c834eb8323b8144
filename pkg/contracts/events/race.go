package events

import "time"

// Evento publicado no tópico "race_finished" quando a corrida termina.
// O consumidor deve reler o resultado persistido; Result aqui é informativo.
type RaceFinished struct {
	RaceID     string    `json:"raceId"`
	Result     []int     `json:"result"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Mensagem do canal Redis Pub/Sub repassada aos clientes WebSocket da corrida
type RaceUpdate struct {
	Type      string    `json:"type"` // "status" | "presence"
	RaceID    string    `json:"raceId"`
	Status    string    `json:"status,omitempty"`
	StartTime time.Time `json:"startTime,omitempty"`
	Result    []int     `json:"result,omitempty"` // só em FINISHED
	Viewers   int       `json:"viewers,omitempty"`
	Ts        time.Time `json:"ts"`
}

const (
	RaceUpdateStatus   = "status"
	RaceUpdatePresence = "presence"
)
