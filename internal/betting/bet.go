// Package betting reúne as regras puras de aposta: validação, odds e liquidação.
// Nada aqui faz I/O; aplicar uma liquidação uma única vez é responsabilidade de quem chama.
package betting

import (
	"errors"
	"fmt"
)

// BetType é o tipo de aposta
type BetType string

const (
	BetWin   BetType = "win"   // vence se a tartaruga escolhida chegar em 1º
	BetPlace BetType = "place" // vence se chegar entre os 2 primeiros
	// BetQuinella está reservado: aceito pelo modelo mas nunca liquidado como vencedor
	BetQuinella BetType = "quinella"
)

var ErrUnsupportedBetType = errors.New("unsupported bet type")

// ParseBetType converte o texto recebido da API. Apenas tipos abertos para apostas são aceitos.
func ParseBetType(s string) (BetType, error) {
	switch BetType(s) {
	case BetWin, BetPlace:
		return BetType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBetType, s)
	}
}

// Bet é a visão da aposta usada na liquidação
type Bet struct {
	ID         string
	RaceID     string
	UserID     string
	Type       BetType
	Selections []int
	Amount     int64
	Odds       float64 // capturada no momento da aposta
	IsWinner   *bool   // nil até a liquidação
	Payout     int64
}
