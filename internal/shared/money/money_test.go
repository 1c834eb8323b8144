package money

import "testing"

func TestFormatWon(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0원"},
		{1000, "1,000원"},
		{1000000, "1,000,000원"},
		{25000, "25,000원"},
	}
	for _, tt := range tests {
		if got := FormatWon(tt.in); got != tt.want {
			t.Errorf("FormatWon(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
