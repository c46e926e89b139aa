// Command server wires the credential registry together: stores, services,
// HTTP surface, and background audit processing. Business logic lives in
// internal/; main only chooses implementations from configuration.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"sanad/internal/allocator"
	"sanad/internal/audit"
	degreehandler "sanad/internal/degree/handler"
	degreemetrics "sanad/internal/degree/metrics"
	degreeservice "sanad/internal/degree/service"
	degreestore "sanad/internal/degree/store"
	"sanad/internal/identity"
	"sanad/internal/platform/config"
	"sanad/internal/platform/httpserver"
	"sanad/internal/platform/logger"
	platformmetrics "sanad/internal/platform/metrics"
	"sanad/internal/platform/postgres"
	platformredis "sanad/internal/platform/redis"
	"sanad/internal/publicverify"
	registryhandler "sanad/internal/registry/handler"
	registrymetrics "sanad/internal/registry/metrics"
	registryservice "sanad/internal/registry/service"
	employeestore "sanad/internal/registry/store/employee"
	staffstore "sanad/internal/registry/store/staff"
	universitystore "sanad/internal/registry/store/university"
	dErrors "sanad/pkg/domain-errors"
	"sanad/pkg/platform/middleware/accesslog"
	"sanad/pkg/platform/middleware/requestmeta"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// Persistence. An empty Postgres URL keeps everything in memory, which
	// is how development and unit environments run.
	var (
		universities registryservice.UniversityStore
		staff        registryservice.StaffStore
		employees    registryservice.EmployeeStore
		degrees      degreeservice.Store
		auditStore   audit.Store
		alloc        allocator.Allocator
	)

	if cfg.Postgres.URL != "" {
		db, err := postgres.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		err = postgres.EnsureSchemas(ctx, db,
			universitystore.Schema,
			staffstore.Schema,
			employeestore.Schema,
			degreestore.Schema,
			audit.Schema,
			allocator.Schema,
		)
		if err != nil {
			return err
		}
		universities = universitystore.NewPostgres(db)
		staff = staffstore.NewPostgres(db)
		employees = employeestore.NewPostgres(db)
		degrees = degreestore.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		alloc = allocator.NewPostgres(db)
		log.Info("using postgres persistence")
	} else {
		universities = universitystore.NewInMemory()
		staff = staffstore.NewInMemory()
		employees = employeestore.NewInMemory()
		degrees = degreestore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		alloc = allocator.NewInMemory()
		log.Warn("no postgres URL configured, state is in memory only")
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		// Redis wins the allocator choice: counters shared across
		// replicas beat per-process or per-database ones.
		alloc = allocator.NewRedis(rdb.Client)
		log.Info("redis connected")
	}

	g, ctx := errgroup.WithContext(ctx)

	// Audit pipeline. With Kafka configured, events flow through a channel
	// worker that persists and publishes; otherwise they append directly.
	publisher := audit.NewPublisher(auditStore)
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer sink.Close()

		inbox := make(chan audit.Event, 256)
		worker := audit.NewWorker(auditStore, sink, inbox)
		publisher = audit.NewPublisher(audit.NewQueueStore(inbox, auditStore))
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
	}

	// Services.
	registrySvc := registryservice.New(universities, staff, employees, alloc,
		registryservice.WithLogger(log),
		registryservice.WithAuditPublisher(publisher),
		registryservice.WithMetrics(registrymetrics.New()),
		registryservice.WithDegreeCounter(degrees),
	)
	degreeSvc := degreeservice.New(degrees, registrySvc, alloc,
		degreeservice.WithLogger(log),
		degreeservice.WithAuditPublisher(publisher),
		degreeservice.WithMetrics(degreemetrics.New()),
	)

	var limiter publicverify.Limiter
	if rdb != nil {
		limiter = publicverify.NewRedisLimiter(rdb.Client, cfg.PublicAPI.RateLimit, cfg.PublicAPI.RateLimitWindow)
	} else {
		limiter = publicverify.NewMemoryLimiter(cfg.PublicAPI.RateLimit, cfg.PublicAPI.RateLimitWindow)
	}
	verifySvc := publicverify.New(degrees,
		publicverify.WithLogger(log),
		publicverify.WithLimiter(limiter),
		publicverify.WithMetrics(publicverify.NewMetrics()),
	)

	// First regulator admin on an empty directory.
	if _, err := registrySvc.Bootstrap(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			return err
		}
		log.Info("employee directory already seeded")
	}

	tokens := identity.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	// HTTP surface.
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestmeta.Middleware)
	r.Use(accesslog.Middleware(log))
	r.Use(platformmetrics.NewHTTP().Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	publicverify.NewHandler(verifySvc).Register(r)

	r.Group(func(r chi.Router) {
		r.Use(identity.RequireActor(tokens, registrySvc, log))
		registryhandler.New(registrySvc, log).Register(r)
		degreehandler.New(degreeSvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
