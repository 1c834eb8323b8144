// Package schedule define o calendário das corridas: uma a cada 30 minutos,
// apostas encerradas 5 segundos antes da largada, 30 segundos de corrida.
package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/radieske/turtle-race-platform/pkg/contracts/catalog"
)

// Status é o estado de uma corrida
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
)

const (
	Interval       = 30 * time.Minute
	BetCloseBefore = 5 * time.Second
	RaceDuration   = catalog.RaceDurationSeconds * time.Second

	idLayout = "20060102_1504"
)

// SlotStart retorna o início do slot de 30 minutos que contém t, no fuso de t
func SlotStart(t time.Time) time.Time {
	y, m, d := t.Date()
	minute := 0
	if t.Minute() >= 30 {
		minute = 30
	}
	return time.Date(y, m, d, t.Hour(), minute, 0, 0, t.Location())
}

// NextStart retorna o próximo horário de largada estritamente depois de t
func NextStart(t time.Time) time.Time {
	return SlotStart(t).Add(Interval)
}

// RaceID gera o id da corrida a partir do horário de largada, ex: "20250119_1430"
func RaceID(start time.Time) string {
	return start.Format(idLayout)
}

// DailySlots retorna os 48 horários de largada do dia de `day`, no fuso de `day`
func DailySlots(day time.Time) []time.Time {
	y, m, d := day.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	slots := make([]time.Time, 0, 48)
	for t := first; t.Day() == d; t = t.Add(Interval) {
		slots = append(slots, t)
	}
	return slots
}

// BettingClosed informa se as apostas já foram encerradas para uma largada em `start`
func BettingClosed(start, now time.Time) bool {
	return start.Sub(now) <= BetCloseBefore
}

// StatusAt retorna o status esperado de uma corrida no instante now
func StatusAt(start, now time.Time) Status {
	switch {
	case now.Before(start):
		return StatusWaiting
	case now.Before(start.Add(RaceDuration)):
		return StatusRunning
	default:
		return StatusFinished
	}
}

// NewSeed sorteia o seed de uma nova corrida. Depois de gravado, nunca muda.
func NewSeed() string {
	return uuid.NewString()
}
