package dto

import "time"

type PlaceBetResponse struct {
	BetID                  string  `json:"betId"`
	Status                 string  `json:"status"` // PENDING
	Odds                   float64 `json:"odds"`
	PotentialPayout        int64   `json:"potentialPayout"`
	PotentialPayoutDisplay string  `json:"potentialPayoutDisplay"` // ex: "25,000원"
	Message                string  `json:"message,omitempty"`
}

type BetResponse struct {
	BetID      string     `json:"betId"`
	RaceID     string     `json:"raceId"`
	UserID     string     `json:"userId"`
	BetType    string     `json:"betType"`
	Selections []int      `json:"selections"`
	Amount     int64      `json:"amount"`
	Odds       float64    `json:"odds"`
	Status     string     `json:"status"`
	IsWinner   *bool      `json:"isWinner"` // null até a liquidação
	Payout     *int64     `json:"payout"`
	CreatedAt  time.Time  `json:"createdAt"`
	SettledAt  *time.Time `json:"settledAt,omitempty"`
}

// ErrorResponse carrega o motivo quando a validação da aposta falha
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
