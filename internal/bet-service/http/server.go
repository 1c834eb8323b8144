package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/bet-service/dto"
	"github.com/radieske/turtle-race-platform/internal/bet-service/odds"
	"github.com/radieske/turtle-race-platform/internal/bet-service/repo"
	"github.com/radieske/turtle-race-platform/internal/bet-service/wallet"
	"github.com/radieske/turtle-race-platform/internal/betting"
	"github.com/radieske/turtle-race-platform/internal/race-engine/schedule"
	"github.com/radieske/turtle-race-platform/internal/shared/money"
	"github.com/radieske/turtle-race-platform/pkg/contracts/events"
)

const listLimit = 100

type Repo interface {
	Race(ctx context.Context, raceID string) (repo.Race, error)
	CreatePending(ctx context.Context, b *repo.Bet, cutoff time.Time) (string, error)
	MarkRejected(ctx context.Context, betID, reason string) error
	Get(ctx context.Context, betID string) (repo.Bet, error)
	ListByUser(ctx context.Context, userID, raceID string, limit int) ([]repo.Bet, error)
}

type Wallet interface {
	Reserve(ctx context.Context, userID string, amount int64, externalRef string) (string, error)
	Refund(ctx context.Context, userID, externalRef string) error
}

type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

type Server struct {
	log    *zap.Logger
	repo   Repo
	quoter *odds.Quoter
	wcli   Wallet
	publ   Publisher

	Now            func() time.Time
	OnPlaced       func()
	OnRejected     func(reason string)
	OnOddsFallback func()
}

func NewServer(log *zap.Logger, r Repo, q *odds.Quoter, w Wallet, p Publisher) *Server {
	return &Server{log: log, repo: r, quoter: q, wcli: w, publ: p, Now: time.Now}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/bets", s.placeBet)
	r.Get("/bets", s.listBets) // ?userId=&raceId=
	r.Get("/bets/{id}", s.getBet)
	return r
}

func (s *Server) rejected(reason string) {
	if s.OnRejected != nil {
		s.OnRejected(reason)
	}
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.RaceID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// 1) Tipo e regras da aposta
	betType, err := betting.ParseBetType(req.BetType)
	if err != nil {
		s.rejected("bet_type")
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: betting.ErrUnsupportedBetType.Error(), Reason: req.BetType})
		return
	}
	if v := betting.ValidateBet(betType, req.Selections, req.Amount); !v.Valid {
		s.rejected("validation")
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid bet", Reason: v.Reason})
		return
	}

	// 2) Corrida precisa estar aberta
	now := s.Now()
	race, err := s.repo.Race(r.Context(), req.RaceID)
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "race not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("load race", zap.String("raceId", req.RaceID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if race.Status != string(schedule.StatusWaiting) || schedule.BettingClosed(race.StartTime, now) {
		s.rejected("closed")
		http.Error(w, repo.ErrBettingClosed.Error(), http.StatusConflict)
		return
	}

	// 3) Odds travadas no momento da aposta
	quote := s.quoter.Quote(betType, req.Selections, req.Amount)
	if quote.Fallback && s.OnOddsFallback != nil {
		s.OnOddsFallback()
	}

	// 4) Cria aposta local PENDING (o INSERT revalida o horário)
	betID, err := s.repo.CreatePending(r.Context(), &repo.Bet{
		RaceID:     req.RaceID,
		UserID:     req.UserID,
		BetType:    string(betType),
		Selections: req.Selections,
		Amount:     req.Amount,
		Odds:       quote.Odds,
	}, now.Add(schedule.BetCloseBefore))
	if errors.Is(err, repo.ErrBettingClosed) {
		s.rejected("closed")
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.log.Error("create bet", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// 5) Reserva saldo via wallet (external_ref = betID)
	if _, err := s.wcli.Reserve(r.Context(), req.UserID, req.Amount, betID); err != nil {
		s.log.Warn("wallet reserve failed", zap.String("betId", betID), zap.Error(err))
		if rerr := s.repo.MarkRejected(r.Context(), betID, err.Error()); rerr != nil {
			s.log.Error("mark bet rejected", zap.String("betId", betID), zap.Error(rerr))
		}
		s.releaseReservation(r.Context(), req.UserID, betID)
		s.rejected("wallet")
		msg := "wallet reserve failed"
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			msg = wallet.ErrInsufficientFunds.Error()
		}
		http.Error(w, msg, http.StatusConflict)
		return
	}

	// 6) Publica evento bet_placed (a aposta já está aceita; falha só é logada)
	if err := s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		BetID:       betID,
		UserID:      req.UserID,
		RaceID:      req.RaceID,
		BetType:     string(betType),
		Selections:  req.Selections,
		Amount:      req.Amount,
		Odds:        quote.Odds,
		ReservedRef: betID,
		TsUnixMs:    now.UnixMilli(),
	}); err != nil {
		s.log.Warn("publish bet placed failed", zap.String("betId", betID), zap.Error(err))
	}

	if s.OnPlaced != nil {
		s.OnPlaced()
	}
	s.log.Info("bet placed",
		zap.String("betId", betID),
		zap.String("raceId", req.RaceID),
		zap.String("betType", string(betType)),
		zap.Int64("amount", req.Amount),
		zap.Float64("odds", quote.Odds))

	writeJSON(w, http.StatusCreated, dto.PlaceBetResponse{
		BetID:                  betID,
		Status:                 repo.StatusPending,
		Odds:                   quote.Odds,
		PotentialPayout:        quote.PotentialPayout,
		PotentialPayoutDisplay: money.FormatWon(quote.PotentialPayout),
	})
}

// releaseReservation devolve uma reserva que pode ter sido feita mesmo com erro na resposta
// (timeout após o commit no wallet). Refund é idempotente; 404 = nada reservado.
func (s *Server) releaseReservation(ctx context.Context, userID, betID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := s.wcli.Refund(ctx, userID, betID)
	var se *wallet.StatusError
	if err == nil || (errors.As(err, &se) && se.Status == http.StatusNotFound) {
		return
	}
	s.log.Error("refund rejected bet", zap.String("betId", betID), zap.Error(err))
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("get bet", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(b))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	limit := listLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < listLimit {
			limit = n
		}
	}

	bets, err := s.repo.ListByUser(r.Context(), userID, r.URL.Query().Get("raceId"), limit)
	if err != nil {
		s.log.Error("list bets", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]dto.BetResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, toResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func toResponse(b repo.Bet) dto.BetResponse {
	return dto.BetResponse{
		BetID:      b.ID,
		RaceID:     b.RaceID,
		UserID:     b.UserID,
		BetType:    b.BetType,
		Selections: b.Selections,
		Amount:     b.Amount,
		Odds:       b.Odds,
		Status:     b.Status,
		IsWinner:   b.IsWinner,
		Payout:     b.Payout,
		CreatedAt:  b.CreatedAt,
		SettledAt:  b.SettledAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
