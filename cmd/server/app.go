package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/periodledger/internal/adapter/http"
	"github.com/iho/periodledger/internal/adapter/http/handler"
	"github.com/iho/periodledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/periodledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/periodledger/internal/adapter/repository/redis"
	"github.com/iho/periodledger/internal/infrastructure/config"
	"github.com/iho/periodledger/internal/infrastructure/eventpublisher"
	"github.com/iho/periodledger/internal/infrastructure/metrics"
	"github.com/iho/periodledger/internal/infrastructure/postgres"
	"github.com/iho/periodledger/internal/infrastructure/redis"
	"github.com/iho/periodledger/internal/infrastructure/rules"
	"github.com/iho/periodledger/internal/usecase"
)

// repositories is the storage backend selected by configuration.
type repositories struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountRepository
	entries   usecase.EntryRepository
	periods   usecase.PeriodRepository
	ledger    usecase.LedgerRepository
	outbox    usecase.OutboxRepository
	retrier   usecase.Retrier
	pingers   map[string]handler.Pinger
	closers   []func()
}

// app is the wired server.
type app struct {
	handler   http.Handler
	outbox    usecase.OutboxRepository
	publisher eventpublisher.Publisher
	rules     *rules.Provider
	closers   []func()
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{outbox: repos.outbox, closers: repos.closers}

	var (
		cache       usecase.Cache
		idempotency usecase.IdempotencyStore
	)
	a.publisher = eventpublisher.NewLogPublisher(log)

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, redis.Config{
			URL:         cfg.RedisURL,
			PoolSize:    cfg.RedisPoolSize,
			DialTimeout: cfg.RedisDialTimeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		log.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(client)
		idempotency = redisRepo.NewIdempotencyStore(client)
		a.publisher = redisRepo.NewStreamPublisher(client, cfg.EventStream, cfg.EventStreamMaxLen)
		repos.pingers["redis"] = pingRedis(client)
	}

	if cfg.ClassifierRulesPath != "" {
		a.rules, err = rules.NewFileProvider(cfg.ClassifierRulesPath, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to load classifier rules: %w", err)
		}
	} else {
		a.rules = rules.NewProvider(log)
	}

	m := metrics.New(reg)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(repos.txManager, repos.accounts, repos.outbox, idGen, log)
	ledgerUC := usecase.NewLedgerUseCase(usecase.LedgerDeps{
		TxManager:   repos.txManager,
		AccountRepo: repos.accounts,
		EntryRepo:   repos.entries,
		PeriodRepo:  repos.periods,
		LedgerRepo:  repos.ledger,
		OutboxRepo:  repos.outbox,
		Classifiers: a.rules,
		IDGen:       idGen,
		Retrier:     repos.retrier,
		Observer:    m,
		Logger:      log,
		TxTimeout:   cfg.TransactionTimeout,
	})
	periodUC := usecase.NewPeriodUseCase(usecase.PeriodDeps{
		TxManager:   repos.txManager,
		AccountRepo: repos.accounts,
		PeriodRepo:  repos.periods,
		OutboxRepo:  repos.outbox,
		Cache:       cache,
		IDGen:       idGen,
		Retrier:     repos.retrier,
		Observer:    m,
		Logger:      log,
		OpenTTL:     cfg.PeriodCacheTTL,
		TxTimeout:   cfg.TransactionTimeout,
	})
	reconUC := usecase.NewReconciliationUseCase(repos.accounts, repos.entries, repos.ledger, m, log)

	// Create router
	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accountUC),
		TransactionHandler:    handler.NewTransactionHandler(ledgerUC),
		EntryHandler:          handler.NewEntryHandler(ledgerUC),
		PeriodHandler:         handler.NewPeriodHandler(periodUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC),
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC),
		HealthHandler:         handler.NewHealthHandler(repos.pingers),
		IdempotencyStore:      idempotency,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		Metrics:               m,
		MetricsHandler:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:                log,
	})

	return a, nil
}

func openRepositories(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repositories, error) {
	switch cfg.Store {
	case config.StorePostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
		defer cancel()

		pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
			DatabaseURL:     cfg.DatabaseURL,
			MaxConns:        int(cfg.DatabaseMaxConns),
			MinConns:        int(cfg.DatabaseMinConns),
			MaxConnLifetime: cfg.DatabaseMaxConnLifetime,
			MaxConnIdleTime: cfg.DatabaseMaxConnIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		return &repositories{
			txManager: postgresRepo.NewTxManager(pool),
			accounts:  postgresRepo.NewAccountRepository(pool),
			entries:   postgresRepo.NewEntryRepository(pool),
			periods:   postgresRepo.NewPeriodRepository(pool),
			ledger:    postgresRepo.NewLedgerRepository(pool),
			outbox:    postgresRepo.NewOutboxRepository(pool),
			retrier:   postgresRepo.NewRetrier(log).WithMaxRetries(int(cfg.DatabaseMaxRetries)),
			pingers:   map[string]handler.Pinger{"postgres": pool},
			closers:   []func(){pool.Close},
		}, nil

	default:
		store := memory.NewStore()
		log.Warn().Msg("using in-memory store; data is lost on restart")

		return &repositories{
			txManager: memory.NewTxManager(store),
			accounts:  store.Accounts(),
			entries:   store.Entries(),
			periods:   store.Periods(),
			ledger:    store.Ledger(),
			outbox:    store.Outbox(),
			pingers:   map[string]handler.Pinger{},
		}, nil
	}
}

func pingRedis(client *goredis.Client) handler.Pinger {
	return handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
