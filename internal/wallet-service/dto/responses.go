package dto

type WalletResponse struct {
	UserID         string `json:"userId"`
	WalletID       string `json:"walletId"`
	Balance        int64  `json:"balance"`
	BalanceDisplay string `json:"balanceDisplay"` // ex: "10,000원"
}

type ReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}
