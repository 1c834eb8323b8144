package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/race-scheduler/pubsub"
	rhttp "github.com/radieske/turtle-race-platform/internal/race-service/http"
	"github.com/radieske/turtle-race-platform/internal/race-service/repo"
	"github.com/radieske/turtle-race-platform/internal/race-service/ws"
	"github.com/radieske/turtle-race-platform/internal/shared/cache"
	"github.com/radieske/turtle-race-platform/internal/shared/config"
	"github.com/radieske/turtle-race-platform/internal/shared/db"
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

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// conecta com db Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// conecta com cache Redis
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	wsConns := prometheus.NewGauge(prometheus.GaugeOpts{Name: "race_service_ws_connections", Help: "conexões WebSocket abertas"})
	prometheus.MustRegister(wsConns)

	// hub WebSocket: presença compartilhada no Redis, updates via Pub/Sub
	hub := ws.NewHub(func(*http.Request) bool { return true }, log)
	hub.Presence = &ws.RedisPresence{R: redisClient, TTL: time.Hour}
	hub.Notifier = pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel)
	hub.OnConnect = wsConns.Inc
	hub.OnDisconnect = wsConns.Dec
	ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)

	api := &rhttp.API{
		Log:            log,
		Races:          &repo.ReadRepo{DB: pg},
		Frames:         cache.NewFramesCache(redisClient, cfg.FramesCacheTTL),
		WS:             http.HandlerFunc(hub.HandleWS),
		FPS:            cfg.FramesPerSecond,
		AllowTestRaces: cfg.Env != "prod",
	}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	msrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}))

	go func() {
		log.Info("race-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
	log.Info("race-service stopped")
}
