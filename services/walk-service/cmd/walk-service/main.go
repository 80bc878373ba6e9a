package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/BeeInterest/business-dog-walking/libs/config"
	"github.com/BeeInterest/business-dog-walking/libs/db"
	"github.com/BeeInterest/business-dog-walking/libs/httpx"
	"github.com/BeeInterest/business-dog-walking/libs/kafkax"
	otelx "github.com/BeeInterest/business-dog-walking/libs/otel"
	"github.com/BeeInterest/business-dog-walking/libs/runtime"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/handlers"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/outbox"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "walk-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema bootstrap failed", "err", err)
		panic(err)
	}

	walkRepo := storage.NewWalkRepository(pool)
	rateRepo := storage.NewRateRepository(pool)
	outboxRepo := outbox.NewRepository()

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	walkHandler := handlers.NewWalkHandler(walkRepo, rateRepo, outboxRepo, logger)
	priceHandler := handlers.NewPriceHandler(rateRepo, logger, config.Float("DEFAULT_WALK_PRICE", 500))

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if strings.TrimSpace(kafkaBrokers) != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/create/walk", walkHandler.Create)
	mux.HandleFunc("/get/walks", walkHandler.List)
	mux.HandleFunc("/get/slots", walkHandler.FreeSlots)
	mux.HandleFunc("/update/walk/status", walkHandler.UpdateStatus)
	mux.HandleFunc("/create/price", priceHandler.Create)
	mux.HandleFunc("/update/price", priceHandler.Update)

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "walk"))
		rateLimitMW = rl.Middleware(logger, true)
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ",")),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		rateLimitMW,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "walk-service")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
