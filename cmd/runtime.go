package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/printshop-service/pkg/archive"
	"github.com/printshop-service/pkg/cache"
	"github.com/printshop-service/pkg/config"
	"github.com/printshop-service/pkg/logging"
	"github.com/printshop-service/pkg/portal"
	"github.com/printshop-service/pkg/render"
	"github.com/printshop-service/pkg/service"
	"github.com/printshop-service/pkg/storage"
	"github.com/printshop-service/pkg/storage/memory"
	"github.com/printshop-service/pkg/storage/postgres"
)

// runtime is everything a command needs once config is loaded.
type runtime struct {
	cfg     config.Config
	log     *zap.Logger
	app     *service.Application
	ready   func(ctx context.Context) error
	closers []func() error
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = rt.log.Sync()
}

func loadConfig(c *cli.Context) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String("config"), c.String("env"))
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

// newRuntime opens the store, cache and archive the config asks for and
// builds the application services over them.
func newRuntime(c *cli.Context) (*runtime, error) {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}
	ctx := c.Context

	var store storage.Store
	if cfg.Database.InMemory() {
		log.Warn("using the in-memory store; data is lost on exit")
		store = memory.New()
	} else {
		db, err := postgres.Open(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		pg := postgres.New(db)
		rt.ready = pg.Ping
		store = pg
	}

	opts := service.Options{
		Store:    store,
		CacheTTL: cfg.Cache.TTL,
		Tokens:   portal.NewTokens(cfg.Portal.JWTSecret, cfg.Portal.TokenTTL),
		Renderer: render.New(render.Letterhead{
			CompanyName:    cfg.Invoice.CompanyName,
			CompanyAddress: cfg.Invoice.CompanyAddress,
			BankAccount:    cfg.Invoice.BankAccount,
		}),
		Defaults: service.Defaults{
			Currency:         cfg.Invoice.DefaultCurrency,
			TaxRate:          decimal.NewFromFloat(cfg.Invoice.DefaultTaxRate),
			PaymentTermsDays: cfg.Invoice.PaymentTermsDays,
			QuoteValidDays:   cfg.Invoice.QuoteValidDays,
		},
		Logger: log,
	}

	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, rc.Close)
		opts.Cache = rc
		log.Info("catalog cache on redis", zap.String("addr", cfg.Cache.RedisAddr))
	}

	if cfg.Storage.Enabled() {
		s3, err := archive.NewS3(cfg.Storage.Region, cfg.Storage.Endpoint, cfg.Storage.Bucket, cfg.Storage.Prefix)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
		opts.Archive = s3
		log.Info("invoice archive on s3", zap.String("bucket", cfg.Storage.Bucket))
	}

	rt.app = service.New(opts)
	return rt, nil
}
