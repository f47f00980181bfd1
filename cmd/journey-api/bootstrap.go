package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/config"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/broker/kafka"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/cache/rediscache"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/integrations/source/fake"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/journeys"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/stats"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/storage/pgjourney"
)

type journeyAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     journeyAPIOpts
	svc      *journeys.Service
	consumer *kafka.Consumer
	closers  []func()
}

func mustBootstrapJourneyAPI() *journeyAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.Dashboard.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.Dashboard.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "journey-api"
	}
	updatedTopic := cfg.Kafka.JourneyUpdatedTopicName
	if updatedTopic == "" {
		updatedTopic = "journey.updated"
	}
	ingestTopic := cfg.Kafka.JourneyIngestTopicName
	if ingestTopic == "" {
		ingestTopic = "journey.ingest"
	}
	statsTTL := time.Duration(cfg.Dashboard.StatsTTLSeconds) * time.Second
	if statsTTL <= 0 {
		statsTTL = 30 * time.Second
	}
	baselinePeriod := time.Duration(cfg.Dashboard.KPIBaselinePeriodSeconds) * time.Second
	if baselinePeriod <= 0 {
		baselinePeriod = 24 * time.Hour
	}
	rateLimit := int64(cfg.Dashboard.RateLimitPerMinute)
	if rateLimit <= 0 {
		rateLimit = 600
	}
	defs, err := stats.ParseDefinitions(cfg.Dashboard.KPIPolarity)
	if err != nil {
		panic(fmt.Sprintf("kpi_polarity: %v", err))
	}

	st := mustOpenPostgresWithRetry(cfg.Database.DSN(), 60*time.Second)

	rc := rediscache.New(cfg.Redis.Addr())
	rl := rediscache.NewRateLimiter(cfg.Redis.Addr())

	producer := kafka.NewProducer(cfg.Kafka.Brokers())
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers(), ingestTopic, consumerGroup)

	svc := journeys.New(st, rc, producer, journeys.Options{
		UpdatedTopic:   updatedTopic,
		StatsTTL:       statsTTL,
		BaselinePeriod: baselinePeriod,
		KPIDefinitions: defs,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if n := cfg.Dashboard.SeedDemoJourneys; n > 0 {
		key := cfg.Dashboard.SeedDemoKey
		if key == "" {
			key = "demo"
		}
		seeded, err := seedDemoJourneys(ctx, svc, fake.New(key, time.Now().UTC(), n))
		if err != nil {
			slog.Warn("seed demo journeys", "err", err)
		} else if seeded > 0 {
			slog.Info("demo journeys seeded", "count", seeded)
		}
	}

	return &journeyAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: journeyAPIOpts{
			httpAddr:           httpAddr,
			swaggerPath:        swaggerPath,
			ingestTopic:        ingestTopic,
			consumerGroup:      consumerGroup,
			limiter:            rl,
			rateLimitPerMinute: rateLimit,
			readiness: map[string]func(ctx context.Context) error{
				"postgres": st.Ping,
				"redis":    rc.Ping,
			},
		},
		svc:      svc,
		consumer: consumer,
		closers: []func(){
			func() { _ = consumer.Close() },
			func() { _ = producer.Close() },
			func() { _ = rl.Close() },
			func() { _ = rc.Close() },
			st.Close,
		},
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgjourney.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		st, err := pgjourney.New(ctx, connString)
		cancel()
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *journeyAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for _, c := range a.closers {
		c()
	}
}

func (a *journeyAPIApp) Run() error {
	return runJourneyAPI(a.ctx, a.opts, a.svc, a.consumer)
}
