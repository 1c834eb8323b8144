package betting

import "testing"

var officialResult = []int{3, 1, 5, 2, 4, 6, 7, 8}

func boolPtr(b bool) *bool { return &b }

func TestIsWinner(t *testing.T) {
	tests := []struct {
		name string
		bet  Bet
		want bool
	}{
		{"win on winner", Bet{Type: BetWin, Selections: []int{3}}, true},
		{"win on second", Bet{Type: BetWin, Selections: []int{1}}, false},
		{"place on second", Bet{Type: BetPlace, Selections: []int{1}}, true},
		{"place on winner", Bet{Type: BetPlace, Selections: []int{3}}, true},
		{"place on third", Bet{Type: BetPlace, Selections: []int{5}}, false},
		{"quinella reserved", Bet{Type: BetQuinella, Selections: []int{3, 1}}, false},
		{"unknown type", Bet{Type: "exacta", Selections: []int{3}}, false},
		{"no selection", Bet{Type: BetWin}, false},
	}
	for _, tt := range tests {
		if got := IsWinner(tt.bet, officialResult); got != tt.want {
			t.Errorf("%s: IsWinner = %v, want %v", tt.name, got, tt.want)
		}
	}
	if IsWinner(Bet{Type: BetWin, Selections: []int{3}}, nil) {
		t.Error("empty result must not produce winners")
	}
	if !IsWinner(Bet{Type: BetPlace, Selections: []int{3}}, []int{3}) {
		t.Error("place bet with short result should still check the available positions")
	}
}

func TestPayout(t *testing.T) {
	tests := []struct {
		name string
		bet  Bet
		want int64
	}{
		{"winner", Bet{Amount: 10000, Odds: 2.5, IsWinner: boolPtr(true)}, 25000},
		{"loser", Bet{Amount: 10000, Odds: 2.5, IsWinner: boolPtr(false)}, 0},
		{"unsettled", Bet{Amount: 10000, Odds: 10, IsWinner: nil}, 0},
		{"floors fractions", Bet{Amount: 1001, Odds: 1.3, IsWinner: boolPtr(true)}, 1301},
		{"exact decimal", Bet{Amount: 3000, Odds: 1.7, IsWinner: boolPtr(true)}, 5100},
	}
	for _, tt := range tests {
		if got := Payout(tt.bet); got != tt.want {
			t.Errorf("%s: Payout = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPayoutIsIdempotent(t *testing.T) {
	bet := Bet{Amount: 50000, Odds: 6.5, IsWinner: boolPtr(true)}
	first := Payout(bet)
	for i := 0; i < 5; i++ {
		if got := Payout(bet); got != first {
			t.Fatalf("call %d: %d != %d", i, got, first)
		}
	}
	if *bet.IsWinner != true || bet.Payout != 0 {
		t.Fatal("Payout must not mutate the bet")
	}
}

func TestSettle(t *testing.T) {
	bet := Bet{ID: "b1", Type: BetWin, Selections: []int{3}, Amount: 10000, Odds: 3.5}
	got := Settle(bet, officialResult)
	if !got.IsWinner || got.Payout != 35000 {
		t.Fatalf("unexpected outcome %+v", got)
	}
	if bet.IsWinner != nil {
		t.Fatal("Settle must not mutate the caller's bet")
	}
	if again := Settle(bet, officialResult); again != got {
		t.Fatalf("re-settlement differs: %+v != %+v", again, got)
	}

	lost := Settle(Bet{Type: BetPlace, Selections: []int{5}, Amount: 10000, Odds: 2.3}, officialResult)
	if lost.IsWinner || lost.Payout != 0 {
		t.Fatalf("unexpected outcome %+v", lost)
	}
}
