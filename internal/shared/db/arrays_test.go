package db

import (
	"reflect"
	"testing"

	"github.com/lib/pq"
)

func TestIntArrayRoundTrip(t *testing.T) {
	in := []int{3, 1, 5, 2, 4, 6, 7, 8}
	if got := Ints(IntArray(in)); !reflect.DeepEqual(got, in) {
		t.Fatalf("got %v, want %v", got, in)
	}
	if Ints(nil) != nil {
		t.Fatal("NULL array must stay nil")
	}
	if got := Ints(pq.Int64Array{}); got == nil || len(got) != 0 {
		t.Fatalf("empty array must stay empty, got %v", got)
	}
}
