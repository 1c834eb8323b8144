package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // imagem sem zoneinfo ainda resolve RACE_TIMEZONE

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/race-scheduler/publisher"
	"github.com/radieske/turtle-race-platform/internal/race-scheduler/pubsub"
	"github.com/radieske/turtle-race-platform/internal/race-scheduler/repo"
	"github.com/radieske/turtle-race-platform/internal/race-scheduler/service"
	"github.com/radieske/turtle-race-platform/internal/shared/cache"
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

	// Inicializa dependências: Postgres, Redis e Kafka
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	if cfg.Env == "local" || cfg.Env == "dev" {
		tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
		if err := kafka.EnsureTopics(tctx, cfg.KafkaBrokers, cfg.TopicRaceFinished, cfg.TopicBetPlaced, cfg.TopicBetSettled); err != nil {
			log.Warn("ensure topics", zap.Error(err))
		}
		tcancel()
	}

	pub := publisher.NewKafkaPublisher(kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRaceFinished), log)
	defer pub.Close()

	// Métricas Prometheus do ciclo das corridas
	simulated := prometheus.NewCounter(prometheus.CounterOpts{Name: "race_scheduler_simulations_total", Help: "corridas simuladas"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_scheduler_transitions_total", Help: "mudanças de status"}, []string{"to"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "race_scheduler_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(simulated, transitions, errorsBy)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("invalid timezone", zap.Error(err))
	}

	sched := &service.Scheduler{
		Log:          log,
		Repo:         repo.NewPostgres(pg),
		Announcer:    pub,
		Broadcaster:  pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		Frames:       cache.NewFramesCache(redisClient, cfg.FramesCacheTTL),
		Location:     loc,
		FPS:          cfg.FramesPerSecond,
		TickInterval: cfg.SchedulerTick,
		DaysAhead:    cfg.ScheduleDaysAhead,
		OnSimulated:  func() { simulated.Inc() },
		OnTransition: func(to string) { transitions.WithLabelValues(to).Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	msrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}))

	log.Info("race-scheduler started", zap.String("timezone", cfg.RaceTimezone), zap.Int("fps", cfg.FramesPerSecond))
	if err := sched.Run(ctx); err != nil {
		log.Error("scheduler stopped with error", zap.Error(err))
	}

	shutdownCtx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = msrv.Shutdown(shutdownCtx)
	log.Info("race-scheduler stopped")
}
