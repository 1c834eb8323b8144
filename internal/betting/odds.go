package betting

import "github.com/radieske/turtle-race-platform/pkg/contracts/catalog"

// DefaultOdds é o multiplicador neutro devolvido quando a tartaruga não existe
const DefaultOdds = 1.0

// LookupOdds busca o multiplicador no catálogo. ok=false indica que o valor padrão
// foi usado (id desconhecido ou tipo sem odds); quem chama deve logar e rever a validação.
func LookupOdds(betType BetType, turtleID int) (odds float64, ok bool) {
	t, found := catalog.ByID(turtleID)
	if !found {
		return DefaultOdds, false
	}
	switch betType {
	case BetWin:
		return t.Odds.Win, true
	case BetPlace:
		return t.Odds.Place, true
	default:
		return DefaultOdds, false
	}
}

// ResolveOdds é LookupOdds sem o indicador de fallback
func ResolveOdds(betType BetType, turtleID int) float64 {
	odds, _ := LookupOdds(betType, turtleID)
	return odds
}
