package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/race-service/repo"
)

// RaceStore é o acesso de leitura (e criação de corrida de teste) no Postgres
type RaceStore interface {
	Current(ctx context.Context, since time.Time) (repo.Race, error)
	Get(ctx context.Context, id string) (repo.Race, error)
	Frames(ctx context.Context, id string) (string, [][]float64, error)
	Create(ctx context.Context, race repo.Race) error
}

// FrameCache é o cache Redis dos frames de replay
type FrameCache interface {
	GetFrames(ctx context.Context, raceID string) ([][]float64, bool, error)
	SetFrames(ctx context.Context, raceID string, frames [][]float64) error
}

// API expõe os endpoints REST das corridas e o WebSocket
type API struct {
	Log    *zap.Logger
	Races  RaceStore
	Frames FrameCache   // opcional
	WS     http.Handler // opcional; hub WebSocket
	FPS    int

	AllowTestRaces bool
	Now            func() time.Time
	NewSeed        func() string
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/turtles", a.listTurtles)         // Catálogo com odds
	r.Get("/v1/races/current", a.currentRace)   // Próxima corrida (ou a que acabou de largar)
	r.Get("/v1/races/{id}", a.getRace)          // Corrida por id
	r.Get("/v1/races/{id}/frames", a.getFrames) // Replay
	r.Post("/v1/races/test", a.createTestRace)  // Corrida de teste em 2 minutos
	if a.WS != nil {
		r.Handle("/ws", a.WS)
	}
	return r
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
