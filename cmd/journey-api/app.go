package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	journeysapi "github.com/chetanft/Summary-Dashboard-sub000/internal/api/journeys_api"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/broker/kafka"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/broker/messages"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/integrations/source"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/models"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/journeys"
	"github.com/chetanft/Summary-Dashboard-sub000/internal/services/query"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type journeyAPIOpts struct {
	httpAddr    string
	swaggerPath string

	ingestTopic   string
	consumerGroup string

	limiter            journeysapi.Limiter
	rateLimitPerMinute int64

	// readiness — проверки для /readyz (postgres, redis).
	readiness map[string]func(ctx context.Context) error

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

func runJourneyAPI(ctx context.Context, opts journeyAPIOpts, svc *journeys.Service, consumer kafkaConsumer) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, opts, svc)
	}()

	if consumer != nil {
		go func() {
			slog.Info("kafka consumer started", "topic", opts.ingestTopic, "group", opts.consumerGroup)
			err := consumer.Consume(ctx, ingestHandler(ctx, svc))
			if err != nil && ctx.Err() == nil {
				slog.Error("kafka consumer stopped", "topic", opts.ingestTopic, "err", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

// ingestHandler кладёт журни из journey.ingest в хранилище. Битые сообщения пропускаются.
func ingestHandler(ctx context.Context, svc *journeys.Service) func(key, value []byte) error {
	return func(_ []byte, value []byte) error {
		j, err := messages.DecodeJourneyIngest(value)
		if err != nil {
			return errors.Wrap(kafka.ErrSkipMessage, err.Error())
		}
		if err := svc.Ingest(ctx, j); err != nil {
			if errors.Is(err, models.ErrValidation) {
				return errors.Wrap(kafka.ErrSkipMessage, err.Error())
			}
			return err
		}
		return nil
	}
}

func newRouter(opts journeyAPIOpts, svc *journeys.Service) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for name, check := range opts.readiness {
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = fmt.Fprintf(w, `{"status":"not ready","component":%q}`, name)
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))

	journeysapi.New(svc).
		WithRateLimit(opts.limiter, opts.rateLimitPerMinute, time.Minute).
		Routes(r)
	return r
}

func runHTTPServer(ctx context.Context, lis net.Listener, opts journeyAPIOpts, svc *journeys.Service) error {
	srv := &http.Server{Handler: newRouter(opts, svc), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// seedDemoJourneys заливает демо-журни, только если хранилище пустое.
func seedDemoJourneys(ctx context.Context, svc *journeys.Service, src source.Source) (int, error) {
	res, err := svc.Query(ctx, query.Spec{Page: 1, Limit: 1})
	if err != nil {
		return 0, err
	}
	if res.TotalCount > 0 {
		return 0, nil
	}
	js, err := src.Journeys(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "load demo journeys")
	}
	for _, j := range js {
		if err := svc.Ingest(ctx, j); err != nil {
			return 0, err
		}
	}
	return len(js), nil
}
