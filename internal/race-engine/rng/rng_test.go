package rng

import (
	"math"
	"testing"
)

func TestNextKnownValues(t *testing.T) {
	tests := []struct {
		seed string
		want float64
	}{
		// hash("") = 0 -> (0*9301 + 49297) % 233280
		{"", 49297.0 / 233280},
		// hash("a") = 97 -> (97*9301 + 49297) % 233280 = 18374
		{"a", 18374.0 / 233280},
	}
	for _, tt := range tests {
		if got := New(tt.seed).Next(); got != tt.want {
			t.Errorf("New(%q).Next() = %v, want %v", tt.seed, got, tt.want)
		}
	}
}

func TestHashSeed(t *testing.T) {
	tests := []struct {
		seed string
		want int64
	}{
		{"", 0},
		{"a", 97},
		{"ab", 97*31 + 98},
		// acima do BMP conta como duas unidades UTF-16
		{"😀", int64(0xD83D)*31 + 0xDE00},
	}
	for _, tt := range tests {
		if got := hashSeed(tt.seed); got != tt.want {
			t.Errorf("hashSeed(%q) = %d, want %d", tt.seed, got, tt.want)
		}
	}
}

func TestHashSeedWrapsAndIsNonNegative(t *testing.T) {
	seeds := []string{
		"20250119_1400",
		"a-very-long-seed-that-certainly-overflows-thirty-two-bits",
		"9f1c2b7e-3d4a-4c1e-8b2a-7f6e5d4c3b2a",
	}
	for _, s := range seeds {
		h := hashSeed(s)
		if h < 0 || h > math.MaxInt32+1 {
			t.Errorf("hashSeed(%q) = %d out of range", s, h)
		}
	}
}

func TestSameSeedSameSequence(t *testing.T) {
	a := New("race-seed")
	b := New("race-seed")
	for i := 0; i < 1000; i++ {
		x, y := a.Next(), b.Next()
		if x != y {
			t.Fatalf("step %d: %v != %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("step %d: %v outside [0,1)", i, x)
		}
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a := New("seed")
	first := a.Next()
	_ = a.Next()

	b := New("seed")
	if got := b.Next(); got != first {
		t.Fatalf("fresh generator should restart the sequence: got %v, want %v", got, first)
	}
}

func TestBetween(t *testing.T) {
	r := New("between")
	for i := 0; i < 500; i++ {
		v := r.Between(0.8, 0.4)
		if v < 0.8 || v >= 1.2 {
			t.Fatalf("value %v outside [0.8,1.2)", v)
		}
	}
}

func TestBetweenKnownValues(t *testing.T) {
	tests := []struct {
		seed string
		want float64
	}{
		{"", 0.8845284636488341},
		{"a", 0.83150548696845},
	}
	for _, tt := range tests {
		if got := New(tt.seed).Between(0.8, 0.4); got != tt.want {
			t.Errorf("New(%q).Between(0.8, 0.4) = %v, want %v", tt.seed, got, tt.want)
		}
	}
}
