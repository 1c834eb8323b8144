package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/race-engine/schedule"
	"github.com/radieske/turtle-race-platform/internal/race-engine/simulator"
	"github.com/radieske/turtle-race-platform/internal/race-service/dto"
	"github.com/radieske/turtle-race-platform/internal/race-service/repo"
	"github.com/radieske/turtle-race-platform/pkg/contracts/catalog"
)

// testRaceLead é quanto tempo antes da largada a corrida de teste é criada
const testRaceLead = 2 * time.Minute

// currentWindow mantém a corrida recém-largada como "atual" até o fim
const currentWindow = schedule.RaceDuration

func toDTO(r repo.Race) dto.Race {
	out := dto.Race{ID: r.ID, Status: r.Status, StartTime: r.StartTime}
	// o seed determina o resultado: só sai depois da chegada
	if r.Status == string(schedule.StatusFinished) {
		out.Seed = r.Seed
		out.Result = r.Result
	}
	return out
}

func (a *API) listTurtles(w http.ResponseWriter, _ *http.Request) {
	all := catalog.All()
	out := dto.Catalog{Turtles: make([]dto.Turtle, 0, len(all)), StakePresets: catalog.StakePresets()}
	for _, t := range all {
		out.Turtles = append(out.Turtles, dto.Turtle{
			ID:        t.ID,
			Name:      t.Name,
			Color:     t.Color,
			BaseSpeed: t.BaseSpeed,
			WinOdds:   t.Odds.Win,
			PlaceOdds: t.Odds.Place,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// currentRace retorna a primeira corrida com largada a partir de agora-30s
func (a *API) currentRace(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	race, err := a.Races.Current(r.Context(), now.Add(-currentWindow))
	if errors.Is(err, repo.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":     "no upcoming race",
			"nextStart": schedule.NextStart(now),
		})
		return
	}
	if err != nil {
		a.Log.Error("current race", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, dto.CurrentRace{
		Race:           toDTO(race),
		TimeUntilStart: int(race.StartTime.Sub(now) / time.Second),
		BettingClosed:  schedule.BettingClosed(race.StartTime, now),
	})
}

func (a *API) getRace(w http.ResponseWriter, r *http.Request) {
	race, err := a.Races.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "race not found")
		return
	}
	if err != nil {
		a.Log.Error("get race", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toDTO(race))
}

// getFrames retorna os frames de replay, preferencialmente do cache
func (a *API) getFrames(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fps := a.FPS
	if fps <= 0 {
		fps = simulator.DefaultFPS
	}

	status, frames, err := a.Races.Frames(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "race not found")
		return
	}
	if err != nil {
		a.Log.Error("race frames", zap.String("raceId", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// frames antes da largada revelariam o resultado
	if status == string(schedule.StatusWaiting) {
		writeError(w, http.StatusConflict, "race has not started")
		return
	}

	if a.Frames != nil {
		if cached, ok, err := a.Frames.GetFrames(r.Context(), id); err == nil && ok {
			writeJSON(w, http.StatusOK, framesResponse(id, fps, cached))
			return
		}
	}
	if frames == nil {
		writeError(w, http.StatusConflict, "frames not ready")
		return
	}

	if a.Frames != nil {
		if err := a.Frames.SetFrames(r.Context(), id, frames); err != nil {
			a.Log.Warn("frames cache set failed", zap.String("raceId", id), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, framesResponse(id, fps, frames))
}

// framesResponse inclui a ordem visual do último frame (só exibição; o resultado oficial é outro)
func framesResponse(id string, fps int, frames [][]float64) dto.Frames {
	out := dto.Frames{RaceID: id, FPS: fps, Frames: frames}
	if len(frames) > 0 {
		out.FinalStandings = simulator.RankingsAtFrame(frames[len(frames)-1])
	}
	return out
}

// createTestRace cria uma corrida fora do calendário, largando em 2 minutos
func (a *API) createTestRace(w http.ResponseWriter, r *http.Request) {
	if !a.AllowTestRaces {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	now := a.now()
	seed := schedule.NewSeed
	if a.NewSeed != nil {
		seed = a.NewSeed
	}
	race := repo.Race{
		ID:        "test_" + strconv.FormatInt(now.UnixMilli(), 10),
		Status:    string(schedule.StatusWaiting),
		StartTime: now.Add(testRaceLead),
		Seed:      seed(),
	}
	if err := a.Races.Create(r.Context(), race); err != nil {
		a.Log.Error("create test race", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	a.Log.Info("test race created", zap.String("raceId", race.ID), zap.Time("startTime", race.StartTime))
	writeJSON(w, http.StatusCreated, toDTO(race))
}
