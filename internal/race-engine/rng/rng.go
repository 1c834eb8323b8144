// Package rng implementa o gerador pseudo-aleatório determinístico usado pelas corridas.
//
// O mesmo seed produz sempre a mesma sequência, em qualquer processo ou plataforma.
// Não há entropia externa: o seed é a única fonte de aleatoriedade de uma corrida.
package rng

import "unicode/utf16"

const (
	multiplier = 9301
	increment  = 49297
	modulus    = 233280
)

// Random é um gerador congruencial linear. Cada instância tem seu próprio estado.
type Random struct {
	state int64
}

// New cria um gerador a partir do seed em texto
func New(seed string) *Random {
	return &Random{state: hashSeed(seed)}
}

// hashSeed dobra o seed em um inteiro de 32 bits (hash*31 + código da unidade UTF-16)
// e devolve o valor absoluto. |MinInt32| cabe em int64, então não há overflow.
func hashSeed(seed string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(seed)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Next avança o estado e retorna um valor em [0,1)
func (r *Random) Next() float64 {
	r.state = (r.state*multiplier + increment) % modulus
	return float64(r.state) / modulus
}

// Between retorna um valor em [lo, lo+span).
// A conversão explícita impede que o compilador funda a conta em FMA (arm64, ppc64, s390x).
func (r *Random) Between(lo, span float64) float64 {
	return lo + float64(r.Next()*span)
}
