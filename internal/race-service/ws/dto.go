package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
type ClientMsg struct {
	Type   string `json:"type"`
	RaceID string `json:"raceId"` // requerido em subscribe/unsubscribe
}
