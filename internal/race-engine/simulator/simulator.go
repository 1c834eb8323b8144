// Package simulator deriva o resultado e os frames de animação de uma corrida a partir do seed.
//
// ComputeFinishOrder é a única fonte de verdade para liquidação de apostas. Os frames servem
// apenas para replay visual: a ordem da última posição pode divergir do resultado oficial,
// porque as duas fórmulas (tempo vs. distância com oscilação) não são equivalentes.
package simulator

import (
	"math"
	"sort"

	"github.com/radieske/turtle-race-platform/internal/race-engine/rng"
	"github.com/radieske/turtle-race-platform/pkg/contracts/catalog"
)

const (
	// DefaultFPS é a taxa de frames usada quando o chamador não informa uma válida
	DefaultFPS = 30

	factorMin  = 0.8
	factorSpan = 0.4
	wobbleAmp  = 0.02
	wobbleStep = 0.1
)

// Result agrupa a saída completa de uma simulação
type Result struct {
	Seed   string      `json:"seed"`
	Order  []int       `json:"order"`
	Frames [][]float64 `json:"frames"`
}

// Simulate calcula ordem de chegada e frames do mesmo seed
func Simulate(seed string, fps int) Result {
	return Result{
		Seed:   seed,
		Order:  ComputeFinishOrder(seed),
		Frames: GenerateFrames(seed, fps),
	}
}

// speedFactors sorteia um fator em [0.8, 1.2) por tartaruga, na ordem do catálogo,
// sempre com um gerador novo
func speedFactors(seed string, turtles []catalog.Turtle) []float64 {
	r := rng.New(seed)
	out := make([]float64, len(turtles))
	for i := range turtles {
		out[i] = r.Between(factorMin, factorSpan)
	}
	return out
}

// ComputeFinishOrder retorna os ids das tartarugas do primeiro ao último colocado
func ComputeFinishOrder(seed string) []int {
	turtles := catalog.All()
	factors := speedFactors(seed, turtles)

	type entry struct {
		id   int
		time float64
	}
	entries := make([]entry, len(turtles))
	for i, t := range turtles {
		entries[i] = entry{
			id:   t.ID,
			time: (catalog.RaceDurationSeconds / t.BaseSpeed) * factors[i],
		}
	}

	// estável: empate mantém a ordem do catálogo
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].time < entries[j].time
	})

	order := make([]int, len(entries))
	for i, e := range entries {
		order[i] = e.id
	}
	return order
}

// GenerateFrames retorna RaceDurationSeconds*fps frames; cada frame tem a posição
// normalizada (0 = largada, 1 = chegada) de cada tartaruga na ordem do catálogo
func GenerateFrames(seed string, fps int) [][]float64 {
	if fps <= 0 {
		fps = DefaultFPS
	}
	turtles := catalog.All()
	factors := speedFactors(seed, turtles)

	speeds := make([]float64, len(turtles))
	for i, t := range turtles {
		speeds[i] = t.BaseSpeed * factors[i]
	}

	total := catalog.RaceDurationSeconds * fps
	frames := make([][]float64, total)
	for f := 0; f < total; f++ {
		positions := make([]float64, len(speeds))
		for i, speed := range speeds {
			// conversões explícitas arredondam cada passo: sem FMA, mesmo frame em qualquer arquitetura
			progress := float64((float64(f) / float64(total)) * speed)
			positions[i] = clamp(progress + sinWobble(f, i))
		}
		frames[f] = positions
	}
	return frames
}

// sinWobble é a oscilação determinística de cada tartaruga no frame f
func sinWobble(f, i int) float64 {
	return float64(math.Sin(float64(float64(f)*wobbleStep)+float64(i)) * wobbleAmp)
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// RankingsAtFrame ordena os ids pela posição de um frame (maior primeiro).
// Uso apenas cosmético: nunca liquidar apostas com isso.
func RankingsAtFrame(positions []float64) []int {
	ids := make([]int, len(positions))
	for i := range positions {
		ids[i] = i + 1
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return positions[ids[a]-1] > positions[ids[b]-1]
	})
	return ids
}
