// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in internal/registry.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/gboigwe/StratoLedger/internal/audit"
	"github.com/gboigwe/StratoLedger/internal/jwtauth"
	"github.com/gboigwe/StratoLedger/internal/platform/config"
	"github.com/gboigwe/StratoLedger/internal/platform/httpserver"
	"github.com/gboigwe/StratoLedger/internal/platform/logger"
	"github.com/gboigwe/StratoLedger/internal/platform/middleware"
	platformpg "github.com/gboigwe/StratoLedger/internal/platform/postgres"
	platformredis "github.com/gboigwe/StratoLedger/internal/platform/redis"
	"github.com/gboigwe/StratoLedger/internal/registry"
	"github.com/gboigwe/StratoLedger/internal/registry/cache"
	"github.com/gboigwe/StratoLedger/internal/registry/metrics"
	"github.com/gboigwe/StratoLedger/internal/registry/models"
	"github.com/gboigwe/StratoLedger/internal/registry/service"
	"github.com/gboigwe/StratoLedger/internal/registry/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	admin := models.Principal(cfg.AdminPrincipal)

	// Store: Postgres when configured, in-memory otherwise.
	var (
		st store.Store
		pg *store.PostgresStore
	)
	db, err := platformpg.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres unavailable", "error", err.Error())
		os.Exit(1)
	}
	if db != nil {
		pg = store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx, admin); err != nil {
			log.Error("schema bootstrap failed", "error", err.Error())
			os.Exit(1)
		}
		st = pg
		defer db.Close()
	} else {
		st = store.NewInMemory(admin)
	}

	// Audit: Kafka stream when brokers are configured, memory sink otherwise.
	var (
		sink      audit.Sink
		worker    *audit.Worker
		kafkaSink *audit.KafkaSink
	)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err = audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Error("kafka unavailable", "error", err.Error())
			os.Exit(1)
		}
		channel := audit.NewChannelSink(cfg.Kafka.AuditBuffer, log)
		worker = audit.NewWorker(channel, kafkaSink, log)
		sink = channel
	} else {
		sink = audit.NewInMemorySink()
	}
	publisher := audit.NewPublisher(sink, log)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err.Error())
		os.Exit(1)
	}

	opts := []service.Option{service.WithMetrics(metrics.New())}
	if redisClient != nil {
		opts = append(opts, service.WithVisibilityCache(
			cache.New(redisClient.Client, cfg.Redis.VisibilityTTL, log)))
		defer redisClient.Close()
	}

	svc, err := registry.NewService(st, publisher, log, opts...)
	if err != nil {
		log.Error("service construction failed", "error", err.Error())
		os.Exit(1)
	}

	jwtService := jwtauth.New(cfg.JWTSigningKey, cfg.JWTIssuer)
	h := registry.NewHandler(svc, jwtService, log)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(log))
	h.Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if pg != nil {
			if err := pg.Health(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting stratoledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		group.Go(func() error {
			if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if kafkaSink != nil {
			return kafkaSink.Close(shutdownCtx)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}
