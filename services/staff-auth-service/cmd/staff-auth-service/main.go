package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/staffportal/libs/config"
	"github.com/md-rashed-zaman/staffportal/libs/db"
	"github.com/md-rashed-zaman/staffportal/libs/httpx"
	"github.com/md-rashed-zaman/staffportal/libs/kafkax"
	otelx "github.com/md-rashed-zaman/staffportal/libs/otel"
	"github.com/md-rashed-zaman/staffportal/libs/runtime"
	"github.com/md-rashed-zaman/staffportal/services/staff-auth-service/internal/audit"
	"github.com/md-rashed-zaman/staffportal/services/staff-auth-service/internal/handlers"
	"github.com/md-rashed-zaman/staffportal/services/staff-auth-service/internal/outbox"
	"github.com/md-rashed-zaman/staffportal/services/staff-auth-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	service := config.String("SERVICE_NAME", "staff-auth-service")
	port, err := config.Port("PORT", "8081")
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
	pool, err := db.Open(ctx, dbURL, db.PoolConfig{
		MaxConns:        int32(config.Int("DB_MAX_CONNS", 10)),
		MaxConnLifetime: config.Duration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if config.Bool("AUTO_MIGRATE", true) {
		if err := storage.Migrate(ctx, pool); err != nil {
			logger.Error("schema migration failed", "err", err)
			panic(err)
		}
	}

	userRepo := storage.NewUserRepository(pool)
	if config.Bool("SEED_DEMO_STAFF", false) {
		if err := storage.SeedDemo(ctx, userRepo, storage.DemoRoster, config.Int("BCRYPT_COST", bcrypt.DefaultCost), logger); err != nil {
			logger.Error("demo staff seeding failed", "err", err)
		}
	}

	brokers := config.String("KAFKA_BROKERS", "")
	outboxRepo := outbox.NewRepository(pool)
	auditRepo := audit.NewRepository(pool, outboxRepo)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	signer := handlers.NewSigner(config.String("JWT_SECRET", "dev-secret"), config.Duration("TOKEN_TTL", 24*time.Hour))
	authHandler := handlers.NewAuthHandler(signer, userRepo, auditRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	mux.HandleFunc("/api/staff/auth/login", authHandler.Login)
	mux.HandleFunc("/api/staff/auth/me", authHandler.Me)
	mux.HandleFunc("/api/staff/auth/audit", authHandler.Audit)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(64<<10),
	)
	handler = otelhttp.NewHandler(handler, "staff-auth")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
