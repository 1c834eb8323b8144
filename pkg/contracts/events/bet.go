package events

import "time"

type BetPlaced struct {
	BetID       string  `json:"bet_id"`
	UserID      string  `json:"user_id"`
	RaceID      string  `json:"race_id"`
	BetType     string  `json:"bet_type"`
	Selections  []int   `json:"selections"`
	Amount      int64   `json:"amount"`
	Odds        float64 `json:"odds"`
	ReservedRef string  `json:"reserved_ref"` // external_ref usado na reserva da carteira (betID)
	TsUnixMs    int64   `json:"ts_unix_ms"`
}

// Evento emitido pelo settlement-worker após liquidar uma aposta.
type BetSettled struct {
	BetID    string    `json:"betId"`
	UserID   string    `json:"userId"`
	RaceID   string    `json:"raceId"`
	IsWinner bool      `json:"isWinner"`
	Payout   int64     `json:"payout"`
	Reason   string    `json:"reason,omitempty"` // preenchido quando vai para a DLQ
	Ts       time.Time `json:"ts"`
}
