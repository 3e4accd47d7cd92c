// Package app assembles the services shared by the API server, the
// background worker and the CLI from one configuration.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Colossus92/eazy-recycling-sub004/internal/config"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/lock"
	corenumerator "github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/invoice"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/streamimport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/cache"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/lma"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/metrics"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/objectstore"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres/ledger_repo"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// App holds the connections and services of one process.
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Metrics *metrics.Metrics

	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Redis     *redis.Client
	Locker    lock.Locker
	Audit     *postgres.AuditService
	Outbox    *postgres.OutboxPublisher

	WasteStreams  *wastestream.Service
	WeightTickets *weightticket.Service
	Invoices      *invoice.Service
	Declarations  *declaration.Workflow
	Imports       *streamimport.Pipeline

	closers []func()
}

// New connects to PostgreSQL and the optional Redis and MinIO, then
// builds the domain services. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Metrics: metrics.New()}
	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	poolCfg.MaxConnLifetime = cfg.DB.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.DB.MaxConnIdleTime
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, pool.Close)
	a.TxManager = postgres.NewTxManager(pool)
	a.Metrics.RegisterPool(pool)
	a.Log.Infow("database connection established", "max_conns", poolCfg.MaxConns)

	if cfg.Redis.Addr == "" {
		a.Locker = lock.NewMemory()
		a.Log.Info("redis not configured, using in-process locks")
		return nil
	}
	client, err := cache.NewClient(ctx, cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.Redis = client
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.Locker = cache.NewLocker(client)
	a.Log.Infow("redis connection established", "addr", cfg.Redis.Addr)
	return nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config
	txm := a.TxManager

	audit, err := postgres.NewAuditService(txm)
	if err != nil {
		return fmt.Errorf("create audit service: %w", err)
	}
	a.Audit = audit
	a.Outbox = postgres.NewOutboxPublisher(txm)

	var companies company.Lookup = ledger_repo.NewCompanyRepo(txm)
	if a.Redis != nil {
		companies = cache.NewCompanies(companies, a.Redis, cfg.Redis.CompanyTTL)
	}
	streamRepo := ledger_repo.NewWasteStreamRepo(txm)
	ticketRepo := ledger_repo.NewWeightTicketRepo(txm)
	declRepo := ledger_repo.NewDeclarationRepo(txm)

	// Stream numbers and invoice numbers must roll back with their
	// transaction, so they always come from PostgreSQL.
	sequences := numerator.New(txm, a.Pool)
	var ticketIDs corenumerator.Allocator = sequences
	if a.Redis != nil {
		ticketIDs = numerator.NewRedisAllocator(a.Redis)
	}

	a.WasteStreams = wastestream.NewService(streamRepo, companies, sequences, txm)
	wastestream.RegisterAudit(a.WasteStreams.Hooks(), audit)

	a.Invoices = invoice.NewService(
		ledger_repo.NewInvoiceRepo(txm),
		invoice.NewGenerator(ledger_repo.NewCatalogRepo(txm), companies, streamRepo),
		sequences,
		sequences,
		txm,
	)

	a.WeightTickets = weightticket.NewService(
		ticketRepo,
		streamRepo,
		ledger_repo.NewTransportRepo(txm),
		a.Invoices,
		ticketIDs,
		txm,
	)
	weightticket.RegisterAudit(a.WeightTickets.Hooks(), audit)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	gateway := lma.NewClient(lma.Config{
		BaseURL:          cfg.Gateway.URL,
		APIKey:           cfg.Gateway.APIKey,
		Timeout:          cfg.Gateway.Timeout,
		FailureThreshold: cfg.Gateway.FailureThreshold,
		OpenTimeout:      cfg.Gateway.OpenTimeout,
	})
	a.Declarations = declaration.NewWorkflow(
		declaration.NewAggregator(ledger_repo.NewLedger(txm), declRepo, cfg.Declaration.ProcessorID, loc),
		declRepo,
		declaration.NewMessageBuilder(streamRepo, companies),
		gateway,
		a.Locker,
		a.Outbox,
		txm,
	).WithObserver(a.Metrics)

	a.Imports = streamimport.NewPipeline(
		a.WasteStreams,
		companies,
		ledger_repo.NewImportErrorRepo(txm),
		a.Outbox,
		txm,
	).WithObserver(a.Metrics)
	if collectorID, ok := cfg.CollectorID(); ok {
		a.Imports.WithCollector(collectorID)
	}
	if cfg.MinIO.Endpoint != "" {
		archive, err := objectstore.NewArchive(objectstore.Config{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKey,
			SecretAccessKey: cfg.MinIO.SecretKey,
			Bucket:          cfg.MinIO.Bucket,
			Region:          cfg.MinIO.Region,
			UseSSL:          cfg.MinIO.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("create import archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("prepare import archive: %w", err)
		}
		a.Imports.WithArchive(archive)
		a.Log.Infow("import archive enabled", "bucket", cfg.MinIO.Bucket)
	}
	return nil
}

// Ping reports whether PostgreSQL answers.
func (a *App) Ping(ctx context.Context) error {
	return a.Pool.Ping(ctx)
}

// PingRedis reports whether Redis answers. Nil when Redis is disabled.
func (a *App) PingRedis(ctx context.Context) error {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Ping(ctx).Err()
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
