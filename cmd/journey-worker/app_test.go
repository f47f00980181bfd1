package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/chetanft/Summary-Dashboard-sub000/config"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/cache"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/cache/rediscache"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/journeys"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/monitor"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/storage/memjourney"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topics chan string
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	select {
	case p.topics <- topic:
	default:
	}
	return nil
}

func TestDefaultWorkerFactories_PublisherAndCache_NonNil(t *testing.T) {
	f := defaultWorkerFactories()
	cfg := &config.Config{
		Kafka: config.KafkaConfig{Host: "localhost", Port: 9092},
		Redis: config.RedisConfig{Host: "localhost", Port: 6379},
	}
	pub, closePub := f.newPublisher(cfg)
	require.NotNil(t, pub)
	closePub()

	c, closeCache := f.newCache(cfg)
	require.NotNil(t, c)
	closeCache()
}

func TestSettingsFromConfig_Defaults(t *testing.T) {
	s := settingsFromConfig(&config.Config{})
	require.Equal(t, "journey.updated", s.topic)
	require.Equal(t, 5*time.Second, s.pollInterval)
	require.Equal(t, 100, s.batchSize)
	require.Equal(t, 10, s.concurrency)
	require.Equal(t, 5*time.Minute, s.lease)

	s = settingsFromConfig(&config.Config{Dashboard: config.DashboardConfig{WorkerBatchSize: 7, WorkerLeaseSeconds: 30}})
	require.Equal(t, 7, s.batchSize)
	require.Equal(t, 30*time.Second, s.lease)
}

func TestRunJourneyWorker_ContextCanceled(t *testing.T) {
	calledClose := false

	f := workerFactories{
		newStorage: func(cfg *config.Config) (workerStore, func(), error) {
			return memjourney.New(), func() { calledClose = true }, nil
		},
		newPublisher: func(cfg *config.Config) (journeys.Publisher, func()) {
			return &recordingPublisher{topics: make(chan string, 1)}, nil
		},
		newCache: func(cfg *config.Config) (cache.BytesCache, func()) {
			return nil, nil
		},
	}

	cfg := &config.Config{
		Kafka:     config.KafkaConfig{JourneyUpdatedTopicName: "t"},
		Dashboard: config.DashboardConfig{WorkerPollIntervalSeconds: 1},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunJourneyWorker(ctx, cfg, f, workerHTTPOpts{})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, calledClose)
}

func TestRunJourneyWorker_FlagsLateJourneyOnTrigger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memjourney.New()
	late := time.Now().UTC().Add(-2 * time.Hour)
	seed := journeys.New(store, nil, nil, journeys.Options{})
	j, err := seed.Create(ctx, models.JourneyCreateInput{TripID: "LATE", ExpectedArrival: &late})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	pub := &recordingPublisher{topics: make(chan string, 1)}
	f := workerFactories{
		newStorage: func(cfg *config.Config) (workerStore, func(), error) {
			return store, nil, nil
		},
		newPublisher: func(cfg *config.Config) (journeys.Publisher, func()) {
			return pub, nil
		},
		newCache: func(cfg *config.Config) (cache.BytesCache, func()) {
			rc := rediscache.New(mr.Addr())
			return rc, func() { _ = rc.Close() }
		},
	}

	sw := filepath.Join(t.TempDir(), "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))
	addrCh := make(chan string, 1)

	cfg := &config.Config{
		Kafka:     config.KafkaConfig{JourneyUpdatedTopicName: "journey.updated"},
		Dashboard: config.DashboardConfig{WorkerPollIntervalSeconds: 3600},
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunJourneyWorker(ctx, cfg, f, workerHTTPOpts{
			httpAddr:    "127.0.0.1:0",
			swaggerPath: sw,
			onListen:    func(addr string) { addrCh <- addr },
		})
	}()
	base := "http://" + <-addrCh

	resp, err := http.Post(base+"/trigger", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, "journey.updated", <-pub.topics)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/stats")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var st monitor.Stats
		return json.NewDecoder(resp.Body).Decode(&st) == nil && st.AlertsRaised == 1
	}, 2*time.Second, 10*time.Millisecond)

	got, err := store.GetJourney(ctx, j.ID)
	require.NoError(t, err)
	require.True(t, got.IsDelayed)
	require.Len(t, got.Alerts, 1)
	require.Equal(t, models.AlertDelay, got.Alerts[0].Type)

	resp, err = http.Get(base + "/config")
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()
	require.Equal(t, "journey.updated", out["updatedTopic"])

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}
