package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/rs/cors"
)

// targets são os serviços internos atrás do gateway
type targets struct {
	Race   string
	Bet    string
	Wallet string
}

func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, err
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

// rewrite troca o prefixo público pelo caminho do serviço
func rewrite(from, to string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = to + strings.TrimPrefix(r.URL.Path, from)
		r2.URL.RawPath = ""
		h.ServeHTTP(w, r2)
	})
}

func newRouter(t targets, origins []string) (http.Handler, error) {
	race, err := rp(t.Race)
	if err != nil {
		return nil, err
	}
	bet, err := rp(t.Bet)
	if err != nil {
		return nil, err
	}
	wallet, err := rp(t.Wallet)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// corridas (ex.: /api/races/current -> race-service /v1/races/current)
	mux.Handle("/api/races/", rewrite("/api/races", "/v1/races", race))
	mux.Handle("/api/turtles", rewrite("/api/turtles", "/v1/turtles", race))
	mux.Handle("/api/ws", rewrite("/api/ws", "/ws", race))

	// bets (ex.: /api/bets/{id} -> bet-service /bets/{id})
	mux.Handle("/api/bets", rewrite("/api", "", bet))
	mux.Handle("/api/bets/", rewrite("/api", "", bet))

	// wallet (ex.: /api/wallet/deposit -> wallet-service /wallet/deposit)
	mux.Handle("/api/wallet", rewrite("/api", "", wallet))
	mux.Handle("/api/wallet/", rewrite("/api", "", wallet))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})
	return c.Handler(mux), nil
}
