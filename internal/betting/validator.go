package betting

import "github.com/radieske/turtle-race-platform/pkg/contracts/catalog"

const (
	MinStake int64 = 1_000
	MaxStake int64 = 1_000_000
)

const (
	ReasonBelowMinimum  = "below minimum stake"
	ReasonAboveMaximum  = "above maximum stake"
	ReasonNoSelection   = "no selection"
	ReasonWinSelections = "win bet requires exactly one selection"
	ReasonUnknownTurtle = "unknown turtle id"
)

// Validation é o resultado de ValidateBet. Reason vem vazio quando Valid.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func invalid(reason string) Validation { return Validation{Reason: reason} }

// ValidateBet aplica as regras na ordem; a primeira falha vence
func ValidateBet(betType BetType, selections []int, amount int64) Validation {
	switch {
	case amount < MinStake:
		return invalid(ReasonBelowMinimum)
	case amount > MaxStake:
		return invalid(ReasonAboveMaximum)
	case len(selections) == 0:
		return invalid(ReasonNoSelection)
	case betType == BetWin && len(selections) != 1:
		return invalid(ReasonWinSelections)
	}
	for _, id := range selections {
		if id < 1 || id > catalog.Size {
			return invalid(ReasonUnknownTurtle)
		}
	}
	return Validation{Valid: true}
}
