package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	bhttp "github.com/radieske/turtle-race-platform/internal/bet-service/http"
	"github.com/radieske/turtle-race-platform/internal/bet-service/odds"
	kpub "github.com/radieske/turtle-race-platform/internal/bet-service/producer"
	"github.com/radieske/turtle-race-platform/internal/bet-service/repo"
	"github.com/radieske/turtle-race-platform/internal/bet-service/wallet"
	"github.com/radieske/turtle-race-platform/internal/shared/config"
	"github.com/radieske/turtle-race-platform/internal/shared/db"
	"github.com/radieske/turtle-race-platform/internal/shared/kafka"
	"github.com/radieske/turtle-race-platform/internal/shared/logger"
	"github.com/radieske/turtle-race-platform/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// Kafka writer (topic bet_placed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_service_bets_placed_total", Help: "apostas aceitas"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bet_service_bets_rejected_total", Help: "apostas recusadas por motivo"}, []string{"reason"})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_service_odds_fallback_total", Help: "apostas cotadas com odds padrão"})
	prometheus.MustRegister(placed, rejected, fallbacks)

	// deps
	api := bhttp.NewServer(log,
		repo.NewPostgres(pg),
		odds.NewQuoter(log),
		wallet.New(cfg.WalletURL), // wallet-service
		kpub.NewKafkaPublisher(writer, cfg.TopicBetPlaced),
	)
	api.OnPlaced = placed.Inc
	api.OnRejected = func(reason string) { rejected.WithLabelValues(reason).Inc() }
	api.OnOddsFallback = fallbacks.Inc

	// HTTP público
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// metrics/health
	msrv := metrics.StartMetricsServer(log, cfg.MetricsPort, pg.PingContext)

	go func() {
		log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
	log.Info("bet-service stopped")
}
