package betting

import "github.com/shopspring/decimal"

// Outcome é o resultado de liquidar uma aposta
type Outcome struct {
	IsWinner bool  `json:"isWinner"`
	Payout   int64 `json:"payout"`
}

// IsWinner decide se a aposta venceu dado o resultado oficial (ComputeFinishOrder)
func IsWinner(bet Bet, result []int) bool {
	if len(bet.Selections) == 0 || len(result) == 0 {
		return false
	}
	switch bet.Type {
	case BetWin:
		return result[0] == bet.Selections[0]
	case BetPlace:
		return inTop(result, bet.Selections[0], 2)
	default:
		return unsupportedNeverWins(bet)
	}
}

// unsupportedNeverWins cobre quinella e tipos desconhecidos: nunca vencedores.
// Novos tipos devem ganhar um case próprio em IsWinner.
func unsupportedNeverWins(Bet) bool { return false }

func inTop(result []int, id, n int) bool {
	if n > len(result) {
		n = len(result)
	}
	for _, r := range result[:n] {
		if r == id {
			return true
		}
	}
	return false
}

// Payout retorna floor(amount*odds) se a aposta foi marcada vencedora, senão 0.
// Usa as odds capturadas na aposta, nunca as atuais do catálogo.
func Payout(bet Bet) int64 {
	if bet.IsWinner == nil || !*bet.IsWinner {
		return 0
	}
	return PotentialPayout(bet.Amount, bet.Odds)
}

// PotentialPayout calcula floor(amount*odds) em aritmética decimal
func PotentialPayout(amount int64, odds float64) int64 {
	return decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(odds)).Floor().IntPart()
}

// Settle calcula vencedor e pagamento sem alterar a aposta recebida
func Settle(bet Bet, result []int) Outcome {
	won := IsWinner(bet, result)
	bet.IsWinner = &won
	return Outcome{IsWinner: won, Payout: Payout(bet)}
}
