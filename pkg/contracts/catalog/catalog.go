package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// Size é o número de tartarugas em toda corrida
	Size = 8
	// RaceDurationSeconds é a duração nominal de uma corrida
	RaceDurationSeconds = 30
)

// Odds guarda os multiplicadores de pagamento por tipo de aposta
type Odds struct {
	Win   float64 `yaml:"win" json:"win"`
	Place float64 `yaml:"place" json:"place"`
}

// Turtle é uma entrada imutável do catálogo
type Turtle struct {
	ID        int     `yaml:"id" json:"id"`
	Name      string  `yaml:"name" json:"name"`
	Color     string  `yaml:"color" json:"displayColor"`
	BaseSpeed float64 `yaml:"base_speed" json:"baseSpeed"`
	Odds      Odds    `yaml:"odds" json:"odds"`
}

type file struct {
	StakePresets []int64  `yaml:"stake_presets"`
	Turtles      []Turtle `yaml:"turtles"`
}

//go:embed turtles.yaml
var raw []byte

// carregado uma única vez na inicialização do processo
var loaded = mustParse(raw)

func mustParse(b []byte) file {
	f, err := parse(b)
	if err != nil {
		panic(fmt.Errorf("turtle catalog: %w", err))
	}
	return f
}

func parse(b []byte) (file, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return file{}, fmt.Errorf("decode yaml: %w", err)
	}
	if len(f.Turtles) != Size {
		return file{}, fmt.Errorf("expected %d turtles, got %d", Size, len(f.Turtles))
	}
	for i, t := range f.Turtles {
		if t.ID != i+1 {
			return file{}, fmt.Errorf("turtle at position %d has id %d", i, t.ID)
		}
		if t.BaseSpeed <= 0 {
			return file{}, fmt.Errorf("turtle %d: base_speed must be positive", t.ID)
		}
		if t.Odds.Win < 1 || t.Odds.Place < 1 {
			return file{}, fmt.Errorf("turtle %d: odds must be >= 1", t.ID)
		}
	}
	return f, nil
}

// All retorna uma cópia do catálogo na ordem de sorteio
func All() []Turtle {
	out := make([]Turtle, len(loaded.Turtles))
	copy(out, loaded.Turtles)
	return out
}

// ByID procura uma tartaruga pelo id
func ByID(id int) (Turtle, bool) {
	if id < 1 || id > len(loaded.Turtles) {
		return Turtle{}, false
	}
	return loaded.Turtles[id-1], true
}

// StakePresets retorna os valores de aposta sugeridos na interface
func StakePresets() []int64 {
	out := make([]int64, len(loaded.StakePresets))
	copy(out, loaded.StakePresets)
	return out
}
