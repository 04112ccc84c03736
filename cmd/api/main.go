package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bank-ledger/config"
	httpHandler "bank-ledger/internal/adapter/http/handler"
	kafkaMessaging "bank-ledger/internal/adapter/messaging/kafka"
	memStorage "bank-ledger/internal/adapter/storage/memory"
	pgStorage "bank-ledger/internal/adapter/storage/postgres"
	redisStorage "bank-ledger/internal/adapter/storage/redis"
	"bank-ledger/internal/core/ports"
	"bank-ledger/internal/service"
	"bank-ledger/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// storage bundles the repositories one backend provides.
type storage struct {
	users        ports.UserRepository
	accounts     ports.AccountRepository
	transactions ports.TransactionRepository
	idempotency  ports.IdempotencyRepository
	audits       ports.AuditRepository
	transactor   ports.DBTransactor
	health       ports.HealthChecker
	close        func()
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("events", cfg.Events.Sink).
		Msg("Starting bank ledger")

	ctx := context.Background()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to initialise storage")
	}
	defer store.close()

	healthCheckers := []ports.HealthChecker{store.health}

	// Redis is optional: without it idempotency falls back to the database
	// and rate limiting is off.
	var (
		rdb         *goredis.Client
		idempCache  ports.IdempotencyCache
		reqLock     ports.RequestLock
		rateLimiter ports.RateLimiter
	)
	if cfg.Redis.Enabled {
		rdb, err = redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		idempCache = redisStorage.NewIdempotencyCache(rdb)
		reqLock = redisStorage.NewRequestLock(rdb)
		rateLimiter = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	var publisher ports.EventPublisher
	switch cfg.Events.Sink {
	case config.SinkRedis:
		publisher = redisStorage.NewEventPublisher(rdb, cfg.Events.RedisChannel)
	case config.SinkKafka:
		publisher = kafkaMessaging.NewPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
	}
	dispatcher := service.NewEventDispatcher(publisher, logger.Component(log, "events"))

	// Core services
	clock := service.SystemClock{}
	hashSvc := service.NewArgon2HashService(service.DefaultArgon2Params)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Business services
	ledgerSvc := service.NewLedgerService(
		store.accounts,
		store.transactions,
		store.idempotency,
		idempCache,
		reqLock,
		service.NewLimitChecker(store.transactions),
		dispatcher,
		store.transactor,
		clock,
		logger.Component(log, "ledger"),
	)
	userSvc := service.NewUserService(store.users, hashSvc, tokenSvc, clock)
	accountSvc := service.NewAccountService(store.accounts, store.users, store.transactor, clock, logger.Component(log, "accounts"))
	historySvc := service.NewHistoryService(store.transactions, store.accounts, clock)
	auditSvc := service.NewAuditService(store.audits, logger.Component(log, "audit"))

	openAPI, err := os.ReadFile("docs/api/openapi.yaml")
	if err != nil {
		log.Warn().Err(err).Msg("OpenAPI document not found, /docs will answer 404")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		UserSvc:        userSvc,
		AccountSvc:     accountSvc,
		LedgerSvc:      ledgerSvc,
		HistorySvc:     historySvc,
		TokenSvc:       tokenSvc,
		RateLimiter:    rateLimiter,
		AuditSvc:       auditSvc,
		HealthCheckers: healthCheckers,
		OpenAPI:        openAPI,
		Mode:           cfg.Server.Mode,
		Logger:         logger.Component(log, "http"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	auditSvc.Wait()
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Event dispatcher did not drain")
	}

	log.Info().Msg("Server exited")
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory storage; data is lost on exit")
		s := memStorage.NewStore()
		return &storage{
			users:        memStorage.NewUserRepo(s),
			accounts:     memStorage.NewAccountRepo(s),
			transactions: memStorage.NewTransactionRepo(s),
			idempotency:  memStorage.NewIdempotencyRepo(s),
			audits:       memStorage.NewAuditRepo(s),
			transactor:   s,
			health:       s,
			close:        func() {},
		}, nil
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("PostgreSQL connected")

	if cfg.Database.Migrate {
		if err := pgStorage.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrating schema: %w", err)
		}
		log.Info().Msg("PostgreSQL schema up to date")
	}

	return &storage{
		users:        pgStorage.NewUserRepo(pool),
		accounts:     pgStorage.NewAccountRepo(pool),
		transactions: pgStorage.NewTransactionRepo(pool),
		idempotency:  pgStorage.NewIdempotencyRepo(pool),
		audits:       pgStorage.NewAuditRepo(pool),
		transactor:   pgStorage.NewTransactor(pool),
		health:       pgStorage.NewHealthCheck(pool),
		close:        pool.Close,
	}, nil
}
