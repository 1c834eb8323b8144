package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/bet-service/wallet"
	"github.com/radieske/turtle-race-platform/internal/settlement/consumer"
	"github.com/radieske/turtle-race-platform/internal/settlement/publisher"
	"github.com/radieske/turtle-race-platform/internal/settlement/repo"
	"github.com/radieske/turtle-race-platform/internal/settlement/service"
	"github.com/radieske/turtle-race-platform/internal/shared/config"
	"github.com/radieske/turtle-race-platform/internal/shared/db"
	"github.com/radieske/turtle-race-platform/internal/shared/kafka"
	"github.com/radieske/turtle-race-platform/internal/shared/logger"
	"github.com/radieske/turtle-race-platform/internal/shared/metrics"
)

// intervalo da varredura de corridas encerradas com apostas pendentes
const sweepInterval = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Conexão com banco de dados Postgres para liquidação das apostas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// Kafka consumer: race_finished dispara a liquidação da corrida
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRaceFinished, "settlement-worker")
	defer reader.Close()

	// Kafka producers: bet_settled e DLQs
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	betDLQ := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
	defer betDLQ.Close()
	raceDLQ := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceFinishedDLQ)
	defer raceDLQ.Close()

	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_messages_consumed_total", Help: "mensagens race_finished consumidas"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_bets_settled_total", Help: "apostas liquidadas por resultado"}, []string{"outcome"})
	paid := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_payouts_won_total", Help: "prêmios creditados (won)"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, paid, errorsBy)
	onError := func(stage string) { errorsBy.WithLabelValues(stage).Inc() }

	settler := &service.Settler{
		Log:       log,
		Repo:      repo.NewPostgres(pg),
		Wallet:    wallet.New(cfg.WalletURL),
		Publisher: &publisher.KafkaPublisher{Settled: settledWriter, DLQ: betDLQ},
		OnSettled: func(outcome string) { settled.WithLabelValues(outcome).Inc() },
		OnPayout:  func(amount int64) { paid.Add(float64(amount)) },
		OnError:   onError,
	}

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Settler:    settler,
		DLQ:        raceDLQ,
		OnConsumed: consumed.Inc,
		OnError:    onError,
	}

	msrv := metrics.StartMetricsServer(log, cfg.MetricsPort, pg.PingContext)

	// Varredura periódica cobre race_finished perdido ou enviado para a DLQ
	go func() {
		t := time.NewTicker(sweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := settler.Sweep(ctx); err != nil {
					log.Warn("sweep failed", zap.Error(err))
				}
			}
		}
	}()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicRaceFinished),
		zap.String("publish", cfg.TopicBetSettled),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = msrv.Shutdown(shutdownCtx)
	log.Info("settlement-worker stopped")
}
