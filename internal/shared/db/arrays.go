package db

import "github.com/lib/pq"

// IntArray converte ids para o tipo INTEGER[] do Postgres
func IntArray(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

// Ints converte o resultado de um scan INTEGER[]; NULL vira nil
func Ints(a pq.Int64Array) []int {
	if a == nil {
		return nil
	}
	out := make([]int, len(a))
	for i, v := range a {
		out[i] = int(v)
	}
	return out
}
