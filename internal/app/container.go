package app

import (
	"context"
	"errors"
	"log"
	"time"

	"matchsync/internal/config"
	"matchsync/internal/database"
	"matchsync/internal/database/migration"
	dbpostgres "matchsync/internal/database/postgres"
	"matchsync/internal/domain/profile"
	"matchsync/internal/infrastructure/cache"
	"matchsync/internal/infrastructure/metrics"
	"matchsync/internal/infrastructure/persistence/memory"
	"matchsync/internal/infrastructure/persistence/postgres"
	"matchsync/internal/infrastructure/upstream"
	"matchsync/internal/pkg/jwt"
	"matchsync/internal/usecase/gateway"
	"matchsync/internal/usecase/identity"
	profileuc "matchsync/internal/usecase/profile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container owns the long-lived dependencies of the server.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB       database.DB
	Store    profile.Store
	Cache    *cache.Redis
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Upstream *upstream.Client
	Tokens   jwt.Service

	Profiles *profileuc.Service
	Gateway  *gateway.Service
}

// NewContainer connects to Postgres when it is configured and falls back to
// the in-memory profile store otherwise. Migrations run on connect.
func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	policy, err := identity.ParseRepairPolicy(cfg.Identity.RepairPolicy)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger}

	if cfg.Database.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := dbpostgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		c.DB = db

		migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer migCancel()
		r := migration.Runner{Dir: cfg.App.MigrationsDir, Logger: logger}
		if err := r.Run(migCtx, db.SQLDB()); err != nil {
			_ = db.Close()
			return nil, err
		}
		c.Store = postgres.NewProfileStore(db)
		logger.Printf("[App] profile store=postgres host=%s db=%s", cfg.Database.DBHost, cfg.Database.DBName)
	} else {
		c.Store = memory.NewProfileStore()
		logger.Printf("[App] profile store=memory (DB_HOST not set, profiles are lost on restart)")
	}

	c.Cache = cache.NewRedis(cfg.Redis, logger)

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = metrics.New(c.Registry)

	c.Upstream = upstream.NewClient(cfg.Upstream.BaseURL, upstream.Options{
		ReadTimeout:  cfg.Upstream.ReadTimeout,
		WriteTimeout: cfg.Upstream.WriteTimeout,
		Logger:       logger,
		Metrics:      c.Metrics,
	})

	c.Tokens = jwt.NewHMACService(cfg.Identity.TokenSecret, cfg.Identity.TokenIssuer)

	alloc := identity.NewAllocator(c.Store,
		identity.WithRepairPolicy(policy),
		identity.WithLogger(logger),
		identity.WithMetrics(c.Metrics),
	)
	var profileCache profileuc.Cache
	if c.Cache.Enabled() {
		profileCache = c.Cache
	}
	c.Profiles = profileuc.NewService(c.Store, alloc, c.Upstream, profileCache, cfg.Redis.TTL, logger)
	c.Gateway = gateway.NewService(c.Upstream, logger, c.Metrics)

	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
