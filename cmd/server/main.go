package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"evote/internal/audit"
	jwttoken "evote/internal/jwt_token"
	"evote/internal/platform/config"
	"evote/internal/platform/httpserver"
	"evote/internal/platform/kafka"
	"evote/internal/platform/logger"
	"evote/internal/platform/metrics"
	"evote/internal/voting/handler"
	votingmetrics "evote/internal/voting/metrics"
	"evote/internal/voting/service"
	"evote/internal/voting/store"
	"evote/pkg/platform/httputil"
	"evote/pkg/platform/middleware/metadata"
	request "evote/pkg/platform/middleware/request"
	"evote/pkg/platform/middleware/requesttime"
)

const (
	shutdownTimeout = 10 * time.Second
	auditQueueSize  = 4096
	auditRetention  = 10_000
	demoVoterCount  = 5

	sinkFailureThreshold = 5
	sinkCooldown         = 30 * time.Second
)

// main wires dependencies and runs the HTTP server and the audit worker
// until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTP(registry)
	voteMetrics := votingmetrics.New(registry)

	auditMemory := audit.NewInMemoryStore(audit.WithCapacity(auditRetention))
	auditStores := []audit.Store{auditMemory}
	var auditWorker *audit.Worker
	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		queue := audit.NewQueue(auditQueueSize)
		auditStores = append(auditStores, queue)
		sink := audit.NewGuardedSink(audit.NewKafkaSink(producer), sinkFailureThreshold, sinkCooldown)
		auditWorker = audit.NewWorker(queue, sink, log)
		log.InfoContext(ctx, "publishing audit events to kafka", "topic", cfg.Kafka.AuditTopic)
	}

	votes, err := service.New(st.voters, st.candidates,
		service.WithLogger(log),
		service.WithAuditPublisher(audit.NewPublisher(auditStores...)),
		service.WithMetrics(voteMetrics),
		service.WithStoreTimeout(cfg.StoreTimeout),
		service.WithVoteTx(st.tx),
	)
	if err != nil {
		return err
	}

	if cfg.VoterImport != "" {
		if err := importVoters(ctx, st, cfg.VoterImport, log); err != nil {
			return err
		}
	}

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	if cfg.SeedDemo {
		if err := seedDemo(ctx, st, jwtService, cfg.JWT.TokenTTL, log); err != nil {
			return err
		}
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(httpMetrics.Middleware)
	r.Get("/health", healthHandler(st))
	r.Handle("/metrics", metrics.Handler(registry))
	handler.New(votes, log, jwttoken.NewJWTServiceAdapter(jwtService), handler.WithAuditLog(auditMemory)).Register(r)

	srv := httpserver.New(cfg.Addr, r)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting evote", "addr", cfg.Addr, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if auditWorker != nil {
		g.Go(func() error { return auditWorker.Run(gctx) })
	}
	return g.Wait()
}

func healthHandler(st *storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// importVoters registers the voter roll from path before serving.
func importVoters(ctx context.Context, st *storage, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open voter import: %w", err)
	}
	defer f.Close()
	imported, err := store.ImportVoters(ctx, st.voters, f, time.Now().UTC())
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "voter roll imported", "path", path, "voters", len(imported))
	return nil
}

func seedDemo(ctx context.Context, st *storage, jwt *jwttoken.JWTService, ttl time.Duration, log *slog.Logger) error {
	demo, err := store.SeedDemo(ctx, st.voters, st.candidates, demoVoterCount, time.Now().UTC())
	if err != nil {
		return err
	}
	token, err := jwt.GenerateAccessToken(demo.Admin.ID, ttl)
	if err != nil {
		return err
	}
	log.Info("demo admin", "voter_id", demo.Admin.ID, "token", token)
	for _, v := range demo.Voters {
		token, err := jwt.GenerateAccessToken(v.ID, ttl)
		if err != nil {
			return err
		}
		log.Info("demo voter", "voter_id", v.ID, "name", v.Name, "token", token)
	}
	for _, c := range demo.Candidates {
		log.Info("demo candidate", "candidate_id", c.ID, "name", c.Name, "party", c.Party)
	}
	return nil
}
