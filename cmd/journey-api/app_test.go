package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chetanft/Summary-Dashboard-sub000/internal/broker/kafka"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/integrations/source/fake"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/journeys"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/storage/memjourney"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func writeSwagger(t *testing.T) string {
	t.Helper()
	sw := filepath.Join(t.TempDir(), "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))
	return sw
}

func newService() *journeys.Service {
	return journeys.New(memjourney.New(), nil, nil, journeys.Options{})
}

type fakeConsumer struct {
	msgs [][]byte
}

func (c fakeConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for _, m := range c.msgs {
		if err := handler(nil, m); err != nil && !errors.Is(err, kafka.ErrSkipMessage) {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunJourneyAPI_ServesSwaggerHealthAndAPI(t *testing.T) {
	svc := newService()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := journeyAPIOpts{
		httpAddr:      "127.0.0.1:0",
		swaggerPath:   writeSwagger(t),
		ingestTopic:   "journey.ingest",
		consumerGroup: "g",
		readiness: map[string]func(ctx context.Context) error{
			"noop": func(ctx context.Context) error { return nil },
		},
		onListen: func(httpAddr string) { addrCh <- httpAddr },
	}

	cons := fakeConsumer{msgs: [][]byte{
		[]byte(`{"id":"EXT-1","tripId":"T-1","type":"ptl","status":"in_transit"}`),
		[]byte(`{not json`),
		[]byte(`{"tripId":"no id"}`),
	}}
	errCh := make(chan error, 1)
	go func() {
		errCh <- runJourneyAPI(ctx, opts, svc, cons)
	}()

	base := "http://" + <-addrCh

	resp, err := http.Get(base + "/swagger.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "\"swagger\"")

	resp, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// ingested через kafka журни видна в API
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/v1/journeys/EXT-1")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		var j struct {
			Status string `json:"status"`
			Type   string `json:"type"`
		}
		if json.NewDecoder(resp.Body).Decode(&j) != nil {
			return false
		}
		return j.Status == "IN_TRANSIT" && j.Type == "PTL"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestRunJourneyAPI_NotReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := journeyAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: writeSwagger(t),
		readiness: map[string]func(ctx context.Context) error{
			"postgres": func(ctx context.Context) error { return errors.New("down") },
		},
		onListen: func(httpAddr string) { addrCh <- httpAddr },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- runJourneyAPI(ctx, opts, newService(), nil) }()

	resp, err := http.Get("http://" + <-addrCh + "/readyz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Contains(t, string(body), "postgres")

	cancel()
	<-errCh
}

func TestRunJourneyAPI_SwaggerRequired(t *testing.T) {
	err := runJourneyAPI(context.Background(), journeyAPIOpts{httpAddr: "127.0.0.1:0"}, newService(), nil)
	require.Error(t, err)

	err = runJourneyAPI(context.Background(), journeyAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: filepath.Join(t.TempDir(), "missing.json"),
	}, newService(), nil)
	require.Error(t, err)
}

func TestSeedDemoJourneys_OnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	src := fake.New("demo", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 12)

	n, err := seedDemoJourneys(ctx, svc, src)
	require.NoError(t, err)
	require.Equal(t, 12, n)

	n, err = seedDemoJourneys(ctx, svc, src)
	require.NoError(t, err)
	require.Zero(t, n)
}
