package wallet

// payloads do wallet-service (valores em won)

type reserveRequest struct {
	UserID      string `json:"userId"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref"`
}

type reserveResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type refRequest struct {
	UserID      string `json:"userId"`
	ExternalRef string `json:"external_ref"`
}

type payoutRequest struct {
	UserID      string `json:"userId"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref"`
}
