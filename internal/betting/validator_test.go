package betting

import "testing"

func TestValidateBet(t *testing.T) {
	tests := []struct {
		name       string
		betType    BetType
		selections []int
		amount     int64
		want       Validation
	}{
		{"minimum stake", BetWin, []int{3}, 1000, Validation{Valid: true}},
		{"below minimum", BetWin, []int{3}, 999, Validation{Reason: ReasonBelowMinimum}},
		{"maximum stake", BetWin, []int{3}, 1_000_000, Validation{Valid: true}},
		{"above maximum", BetWin, []int{3}, 1_000_001, Validation{Reason: ReasonAboveMaximum}},
		{"no selection", BetWin, nil, 10000, Validation{Reason: ReasonNoSelection}},
		{"win with two", BetWin, []int{3, 4}, 10000, Validation{Reason: ReasonWinSelections}},
		{"unknown id", BetWin, []int{9}, 10000, Validation{Reason: ReasonUnknownTurtle}},
		{"zero id", BetPlace, []int{0}, 10000, Validation{Reason: ReasonUnknownTurtle}},
		{"place with one", BetPlace, []int{8}, 5000, Validation{Valid: true}},
		{"place with two", BetPlace, []int{1, 2}, 5000, Validation{Valid: true}},
		// primeira falha vence
		{"amount checked first", BetWin, []int{3, 9}, 10, Validation{Reason: ReasonBelowMinimum}},
		{"selection count before ids", BetWin, []int{9, 10}, 10000, Validation{Reason: ReasonWinSelections}},
	}
	for _, tt := range tests {
		got := ValidateBet(tt.betType, tt.selections, tt.amount)
		if got != tt.want {
			t.Errorf("%s: ValidateBet(%q, %v, %d) = %+v, want %+v", tt.name, tt.betType, tt.selections, tt.amount, got, tt.want)
		}
	}
}

func TestParseBetType(t *testing.T) {
	for _, s := range []string{"win", "place"} {
		bt, err := ParseBetType(s)
		if err != nil || string(bt) != s {
			t.Errorf("ParseBetType(%q) = %q, %v", s, bt, err)
		}
	}
	for _, s := range []string{"quinella", "", "WIN", "exacta"} {
		if _, err := ParseBetType(s); err == nil {
			t.Errorf("ParseBetType(%q) should fail", s)
		}
	}
}
