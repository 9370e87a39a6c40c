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

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/adapters/http"
	memoryadapter "github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/adapters/security"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	consumer   *eventadapter.ConsumerWorker
	outbox     *eventadapter.OutboxWorker
	rechecks   *eventadapter.RecheckWorker
	cleanupFn  func(context.Context)
}

// NewRuntime wires the full service. Postgres, Redis and Kafka attach when
// configured; each falls back to the in-memory adapter otherwise so local
// runs need no infrastructure.
func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("bootstrapping chargeback engine", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	memRepos := memoryadapter.NewRepositories()
	deps := application.Dependencies{
		Config: application.Config{
			ServiceName:          cfg.ServiceID,
			EventDedupTTL:        cfg.EventDedupTTL,
			OutboxFlushBatchSize: cfg.OutboxFlushBatchSize,
			RecheckDelay:         cfg.RecheckDelay,
			RecheckBatchSize:     cfg.RecheckBatchSize,
		},
		Transactions:   memRepos.Transactions,
		Disputes:       memRepos.Disputes,
		Decisions:      memRepos.Decisions,
		Representments: memRepos.Representments,
		AuditLogs:      memRepos.AuditLogs,
		Tasks:          memRepos.Tasks,
		EventDedup:     memRepos.EventDedup,
		Outbox:         memRepos.Outbox,
		Rechecks:       memRepos.Rechecks,
		Ledger:         grpcadapter.NewLedgerClient(cfg.LedgerGRPCURL),
		Filer:          grpcadapter.NewNetworkFilerClient(cfg.NetworkGRPCURL),
	}
	cleanup := func(context.Context) {}

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		sqlDB, err := pool.DB()
		if err != nil {
			return nil, fmt.Errorf("gorm sql db: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		repos := postgres.NewRepositories(pool)
		deps.Transactions = repos.Transactions
		deps.Disputes = repos.Disputes
		deps.Decisions = repos.Decisions
		deps.Representments = repos.Representments
		deps.AuditLogs = repos.AuditLogs
		deps.Tasks = repos.Tasks
		deps.Outbox = repos.Outbox
		prev := cleanup
		cleanup = func(c context.Context) { prev(c); _ = sqlDB.Close() }
	}

	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		deps.EventDedup = cacheadapter.NewRedisEventDedup(redisClient)
		deps.Rechecks = cacheadapter.NewRedisRecheckQueue(redisClient)
		prev := cleanup
		cleanup = func(c context.Context) { prev(c); _ = redisClient.Close() }
	}

	var consumerSource ports.EventConsumer = memoryadapter.NewConsumer()
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.DomainTopic, cfg.AnalyticsTopic, cfg.DLQTopic)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		kafkaConsumer, err := eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.InputTopics)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		deps.DomainEvents = publisher
		deps.Analytics = publisher
		deps.DLQ = publisher
		consumerSource = kafkaConsumer
		prev := cleanup
		cleanup = func(c context.Context) { prev(c); _ = publisher.Close(); _ = kafkaConsumer.Close() }
	} else {
		deps.DomainEvents = memoryadapter.NewDomainPublisher()
		deps.Analytics = memoryadapter.NewAnalyticsPublisher()
		deps.DLQ = memoryadapter.NewDLQPublisher()
	}

	svc := application.NewService(deps)

	var verifier *security.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier, err = security.NewTokenVerifier(cfg.JWTSecret)
		if err != nil {
			cleanup(ctx)
			return nil, fmt.Errorf("init token verifier: %w", err)
		}
	} else {
		logger.Warn("no jwt secret configured; using header-based identity for local/dev runtime")
	}

	handler := httpadapter.NewHandler(svc, verifier)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewChargebackInternalServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		consumer:   eventadapter.NewConsumerWorker(logger, consumerSource, svc, cfg.ConsumerPollInterval),
		outbox:     eventadapter.NewOutboxWorker(logger, svc, cfg.OutboxFlushInterval),
		rechecks:   eventadapter.NewRecheckWorker(logger, svc, cfg.RecheckInterval),
		cleanupFn:  cleanup,
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 3)

	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.rechecks.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
