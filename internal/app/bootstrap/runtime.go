package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"

	cacheadapter "github.com/disasterline/alert-backend/internal/adapters/cache"
	eventadapter "github.com/disasterline/alert-backend/internal/adapters/events"
	grpcadapter "github.com/disasterline/alert-backend/internal/adapters/grpc"
	httpadapter "github.com/disasterline/alert-backend/internal/adapters/http"
	"github.com/disasterline/alert-backend/internal/adapters/postgres"
	"github.com/disasterline/alert-backend/internal/adapters/security"
	smsadapter "github.com/disasterline/alert-backend/internal/adapters/sms"
	"github.com/disasterline/alert-backend/internal/application"
	"github.com/disasterline/alert-backend/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	outbox     *eventadapter.OutboxWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger = logger.With("service", cfg.ServiceID, "module", "bootstrap", "layer", "runtime")
	logger.Info("bootstrapping disaster alert backend", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	tokens, err := security.NewHMACTokenService([]byte(cfg.JWTSecret), nil)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token service: %w", err)
	}

	repos := postgres.NewRepositories(db)
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			AllowSignupRole: cfg.AllowSignupRole,
		},
		Users:     repos.Users,
		Profiles:  repos.Profiles,
		Reports:   repos.Reports,
		Alerts:    repos.Alerts,
		SMSAlerts: repos.SMSAlerts,
		AlertFeed: cacheadapter.NewRedisAlertFeedCache(redisClient, cfg.AlertFeedCacheTTL),
		SMS:       smsadapter.NewLoggingSender(logger),
		Hasher:    security.NewBcryptHasher(cfg.BcryptCost),
		Tokens:    tokens,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	handler := httpadapter.NewHandler(svc,
		httpadapter.WithMetrics(httpadapter.NewMetrics(registry)),
		httpadapter.WithReadiness(func(r *http.Request) error {
			if err := sqlDB.PingContext(r.Context()); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		}),
	)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.RegisterHealth(grpcServer)
	grpcadapter.Register(grpcServer, grpcadapter.NewAuthInternalServer(svc))

	var next ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	var kafkaPublisher *eventadapter.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err = eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicByEvent())
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		next = kafkaPublisher
	}
	outbox := eventadapter.NewOutboxWorker(
		logger,
		repos.Outbox,
		eventadapter.NewSMSDispatchPublisher(logger, svc, next),
		eventadapter.OutboxWorkerConfig{
			Interval:   cfg.OutboxPollInterval,
			BatchSize:  cfg.OutboxBatchSize,
			ClaimTTL:   cfg.OutboxClaimTTL,
			MaxRetries: cfg.OutboxMaxRetries,
		},
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		outbox:     outbox,
		cleanupFn: func(context.Context) {
			if kafkaPublisher != nil {
				_ = kafkaPublisher.Close()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanupFn(ctx)
		return fmt.Errorf("listen grpc: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
