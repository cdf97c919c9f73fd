package main

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/md-rashed-zaman/staffportal/libs/config"
	"github.com/md-rashed-zaman/staffportal/libs/httpx"
	"github.com/md-rashed-zaman/staffportal/libs/kafkax"
	otelx "github.com/md-rashed-zaman/staffportal/libs/otel"
	"github.com/md-rashed-zaman/staffportal/libs/runtime"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/appointments"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/backend"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/events"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/handlers"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/payments"
	"github.com/md-rashed-zaman/staffportal/services/portal-service/internal/session"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "portal-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	loc, err := config.Location("PORTAL_TIMEZONE")
	if err != nil {
		logger.Error("invalid timezone", "err", err)
		return
	}

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

	sessionTTL := config.Duration("SESSION_TTL", 24*time.Hour)
	loginPerMinute := config.Int("LOGIN_RATE_LIMIT_PER_MINUTE", 10)
	failOpen := config.Bool("RATE_LIMIT_FAIL_OPEN", true)

	var (
		store      session.Store
		loginLimit httpx.Middleware
		redisReady func(context.Context) error
	)
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rs := session.NewRedisStore(rdb, config.String("SESSION_PREFIX", "portal:session"), sessionTTL)
		store = rs
		redisReady = rs.Ping
		rl := httpx.NewRedisLimiter(rdb, loginPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "portal:rl:login"))
		loginLimit = httpx.RateLimit(rl, httpx.ClientIP, logger, failOpen)
		logger.Info("sessions and login rate limiting on redis", "redis_addr", addr, "per_minute", loginPerMinute)
	} else {
		store = session.NewMemoryStore()
		loginLimit = httpx.RateLimit(httpx.NewMemoryLimiter(loginPerMinute, time.Minute), httpx.ClientIP, logger, failOpen)
		logger.Warn("REDIS_ADDR not set; sessions are in-memory and lost on restart")
	}

	timeout := config.Duration("BACKEND_TIMEOUT", 10*time.Second)
	backendURL := strings.TrimRight(strings.TrimSpace(config.String("BACKEND_URL", "")), "/")
	authURL := config.String("STAFF_AUTH_URL", backendURL)
	if authURL == "" {
		authURL = "http://localhost:8081/api"
	}
	authClient := backend.New(authURL, timeout, logger)

	var opts []session.Option
	opts = append(opts, session.WithLogger(logger))
	if secret := config.String("JWT_SECRET", ""); secret != "" {
		opts = append(opts, session.WithTokenVerifier(session.HS256Verifier(secret)))
	}
	registry := session.NewRegistry(store, authClient, opts...)

	var sources handlers.SourceFactory
	if backendURL != "" {
		sources = handlers.BackendSources(backend.New(backendURL, timeout, logger))
	} else {
		sources = handlers.MemorySources(appointments.NewMemorySource(appointments.DemoRecords(time.Now().In(loc))))
		logger.Warn("BACKEND_URL not set; serving demo appointments")
	}

	brokers := config.String("KAFKA_BROKERS", "")
	publisher := events.New(brokers, logger)
	defer func() { _ = publisher.Close() }()

	paySim := payments.NewSimulator(
		config.Duration("PAYMENT_PROCESSING_DELAY", 3*time.Second),
		config.Duration("PAYMENT_SETTLE_DELAY", 2*time.Second),
		logger,
	)

	portal := handlers.NewPortal(registry, sources, paySim, publisher, logger, handlers.Options{
		Cookie: handlers.CookieConfig{
			Name:   config.String("SESSION_COOKIE_NAME", "portal_sid"),
			Secure: config.Bool("SESSION_COOKIE_SECURE", false),
			MaxAge: sessionTTL,
		},
		Location:   loc,
		LoginLimit: loginLimit,
	})

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "redis", Check: redisReady},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	portal.Register(mux)
	if backendURL != "" {
		target, err := url.Parse(backendURL)
		if err != nil {
			logger.Error("invalid BACKEND_URL", "err", err)
			return
		}
		handlers.RegisterProxy(mux, portal.NewBackendProxy(target))
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           config.Duration("CORS_MAX_AGE", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 15*time.Second)),
	)
	handler = otelhttp.NewHandler(handler, "portal")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "timezone", loc.String())
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
