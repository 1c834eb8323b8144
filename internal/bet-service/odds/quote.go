package odds

import (
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/betting"
)

// Quote é a cotação travada na aposta
type Quote struct {
	Odds            float64
	PotentialPayout int64
	Fallback        bool // odds padrão usada (tartaruga desconhecida)
}

// Quoter resolve odds pelo catálogo a partir da primeira seleção
type Quoter struct {
	Log *zap.Logger
}

func NewQuoter(log *zap.Logger) *Quoter { return &Quoter{Log: log} }

func (q *Quoter) Quote(betType betting.BetType, selections []int, amount int64) Quote {
	var first int
	if len(selections) > 0 {
		first = selections[0]
	}
	odds, ok := betting.LookupOdds(betType, first)
	if !ok {
		q.Log.Warn("odds fallback used",
			zap.String("betType", string(betType)),
			zap.Int("turtleId", first),
			zap.Float64("odds", odds))
	}
	return Quote{
		Odds:            odds,
		PotentialPayout: betting.PotentialPayout(amount, odds),
		Fallback:        !ok,
	}
}
