package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/port"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/config"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/database"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/delivery"
	kafkainfra "github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/kafka"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/logger"
	redisinfra "github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/redis"
	postgresrepo "github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/repository/postgres"
	redisrepo "github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/repository/redis"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/transport/http/handlers"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/transport/http/middleware"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/transport/http/routes"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/usecase"
)

// Application wires infrastructure, repositories, services, and transport.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	devices  *usecase.DeviceService
}

// New builds the application graph.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitStore(redisClient.Client(), "mmc:rate-limit", rateLimitWindow*2)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(cfg.Telemetry.MetricsNamespace, prometheus.DefaultRegisterer)
	if err != nil {
		if producer != nil {
			_ = producer.Close()
		}
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	// Development delivery only logs the handoff; a real SMS/email gateway
	// plugs in behind port.CodeSender.
	sender := delivery.NewLoggingSender(log)

	tokenService := usecase.NewTokenService(cfg)
	otpService := usecase.NewOtpService(cfg, repos.Challenges, sender, eventPublisher, log)
	sessionService := usecase.NewSessionService(repos.Tokens, tokenService, eventPublisher, log)
	deviceService := usecase.NewDeviceService(cfg, repos.Devices, eventPublisher, log)
	authService := usecase.NewAuthService(cfg, otpService, tokenService, sessionService, deviceService, repos.Accounts, eventPublisher, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Services: routes.ServiceSet{
			Auth:    authService,
			Tokens:  tokenService,
			Devices: deviceService,
		},
		Readiness: map[string]handlers.Pinger{
			"postgres": handlers.PingerFunc(pool.Ping),
			"redis":    handlers.PingerFunc(redisClient.HealthCheck),
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		devices:  deviceService,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() { _ = a.logger.Sync() }()
	defer a.pool.Close()
	defer func() { _ = a.redis.Close() }()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	go a.sweepDevices(ctx)

	addr := fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           a.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("run http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return <-errCh
}

// sweepDevices periodically deactivates devices past their sliding expiry.
func (a *Application) sweepDevices(ctx context.Context) {
	interval := a.cfg.Device.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := a.devices.SweepExpired(sweepCtx); err != nil {
				a.logger.Warn("device sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}
