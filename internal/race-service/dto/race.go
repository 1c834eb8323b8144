package dto

import "time"

// Race é a visão pública da corrida. Result e Seed só aparecem em FINISHED.
type Race struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	StartTime time.Time `json:"startTime"`
	Seed      string    `json:"seed,omitempty"`
	Result    []int     `json:"result,omitempty"`
}

// CurrentRace responde GET /v1/races/current
type CurrentRace struct {
	Race           Race `json:"race"`
	TimeUntilStart int  `json:"timeUntilStart"` // segundos; negativo depois da largada
	BettingClosed  bool `json:"bettingClosed"`
}

// Frames é o replay da corrida: frames[f][i] é a posição da tartaruga i+1
type Frames struct {
	RaceID string      `json:"raceId"`
	FPS    int         `json:"fps"`
	Frames [][]float64 `json:"frames"`
	// ordem visual no último frame; pode divergir do resultado oficial
	FinalStandings []int `json:"finalStandings,omitempty"`
}

type Turtle struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Color     string  `json:"displayColor"`
	BaseSpeed float64 `json:"baseSpeed"`
	WinOdds   float64 `json:"winOdds"`
	PlaceOdds float64 `json:"placeOdds"`
}

// Catalog responde GET /v1/turtles
type Catalog struct {
	Turtles      []Turtle `json:"turtles"`
	StakePresets []int64  `json:"stakePresets"`
}
