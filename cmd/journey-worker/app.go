package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/config"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/broker/kafka"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/cache"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/cache/rediscache"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/journeys"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/monitor"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/storage/pgjourney"
)

type workerStore interface {
	journeys.Repository
	monitor.Repository
}

type workerFactories struct {
	newStorage   func(cfg *config.Config) (store workerStore, closeFn func(), err error)
	newPublisher func(cfg *config.Config) (journeys.Publisher, func())
	newCache     func(cfg *config.Config) (cache.BytesCache, func())
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (workerStore, func(), error) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			st, err := pgjourney.New(ctx, cfg.Database.DSN())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newPublisher: func(cfg *config.Config) (journeys.Publisher, func()) {
			p := kafka.NewProducer(cfg.Kafka.Brokers())
			return p, func() { _ = p.Close() }
		},
		newCache: func(cfg *config.Config) (cache.BytesCache, func()) {
			rc := rediscache.New(cfg.Redis.Addr())
			return rc, func() { _ = rc.Close() }
		},
	}
}

type workerSettings struct {
	topic        string
	statsTTL     time.Duration
	pollInterval time.Duration
	batchSize    int
	concurrency  int
	lease        time.Duration
}

func settingsFromConfig(cfg *config.Config) workerSettings {
	s := workerSettings{
		topic:        cfg.Kafka.JourneyUpdatedTopicName,
		statsTTL:     time.Duration(cfg.Dashboard.StatsTTLSeconds) * time.Second,
		pollInterval: time.Duration(cfg.Dashboard.WorkerPollIntervalSeconds) * time.Second,
		batchSize:    cfg.Dashboard.WorkerBatchSize,
		concurrency:  cfg.Dashboard.WorkerConcurrency,
		lease:        time.Duration(cfg.Dashboard.WorkerLeaseSeconds) * time.Second,
	}
	if s.topic == "" {
		s.topic = "journey.updated"
	}
	if s.statsTTL <= 0 {
		s.statsTTL = 30 * time.Second
	}
	if s.pollInterval <= 0 {
		s.pollInterval = 5 * time.Second
	}
	if s.batchSize <= 0 {
		s.batchSize = 100
	}
	if s.concurrency <= 0 {
		s.concurrency = 10
	}
	if s.lease <= 0 {
		s.lease = 5 * time.Minute
	}
	return s
}

// RunJourneyWorker поднимает монитор задержек и (если задан worker_http_addr) его HTTP.
func RunJourneyWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	s := settingsFromConfig(cfg)

	store, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	pub, closePub := f.newPublisher(cfg)
	if closePub != nil {
		defer closePub()
	}
	c, closeCache := f.newCache(cfg)
	if closeCache != nil {
		defer closeCache()
	}

	// сервис нужен для записи: лок по id, CAS, сброс кэша статистики, journey.updated
	svc := journeys.New(store, c, pub, journeys.Options{
		UpdatedTopic: s.topic,
		StatsTTL:     s.statsTTL,
	})
	m := monitor.New(store, svc).
		WithSettings(s.pollInterval, s.batchSize, s.concurrency, s.lease)

	if httpOpts.httpAddr != "" {
		httpOpts.monitor = m
		httpOpts.cfg = cfg
		go func() {
			if err := runWorkerHTTPServer(ctx, httpOpts); err != nil && ctx.Err() == nil {
				slog.Error("worker http server", "err", err)
			}
		}()
	}

	slog.Info("delay monitor started", "poll_interval", s.pollInterval.String(), "batch", s.batchSize, "lease", s.lease.String())
	return m.Run(ctx)
}
