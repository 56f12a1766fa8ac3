// Package service holds the print-shop business rules. Handlers and the CLI
// call these services; persistence goes through storage.Store.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printshop-service/pkg/cache"
	"github.com/printshop-service/pkg/logging"
	"github.com/printshop-service/pkg/portal"
	"github.com/printshop-service/pkg/render"
	"github.com/printshop-service/pkg/storage"
	"github.com/printshop-service/pkg/storage/memory"
)

// Archiver stores rendered documents and returns where they can be fetched.
type Archiver interface {
	Put(ctx context.Context, name, contentType string, body []byte) (string, error)
}

// Defaults fill document fields a request leaves out.
type Defaults struct {
	Currency         string
	TaxRate          decimal.Decimal
	PaymentTermsDays int
	QuoteValidDays   int
}

// Options wires an Application. Nil fields fall back to in-process
// implementations so tests need only what they exercise.
type Options struct {
	Store    storage.Store
	Cache    cache.Cache
	CacheTTL time.Duration
	Tokens   *portal.Tokens
	Renderer *render.Renderer
	Archive  Archiver
	Defaults Defaults
	Logger   *zap.Logger
	Now      func() time.Time
}

// Application ties the domain services together.
type Application struct {
	Customers *Customers
	Products  *Products
	Jobs      *Jobs
	Invoices  *Invoices
	Sales     *Sales
	Portal    *Portal
	Documents *Documents
	Dashboard *Dashboard
}

type base struct {
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
}

func (b base) logger(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, b.log)
}

func (b base) today() time.Time { return b.now().UTC() }

// New builds the services over opts.
func New(opts Options) *Application {
	if opts.Store == nil {
		opts.Store = memory.New()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tokens == nil {
		opts.Tokens = portal.NewTokens("development-only-secret", 12*time.Hour)
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(render.Letterhead{CompanyName: "Print Shop"})
	}
	if opts.Defaults.Currency == "" {
		opts.Defaults.Currency = "USD"
	}
	if opts.Defaults.PaymentTermsDays <= 0 {
		opts.Defaults.PaymentTermsDays = 30
	}
	if opts.Defaults.QuoteValidDays <= 0 {
		opts.Defaults.QuoteValidDays = 30
	}

	b := base{store: opts.Store, log: opts.Logger, now: opts.Now}
	products := &Products{base: b, cache: opts.Cache, ttl: opts.CacheTTL}
	items := itemResolver{store: opts.Store}
	jobs := &Jobs{base: b}

	return &Application{
		Customers: &Customers{base: b},
		Products:  products,
		Jobs:      jobs,
		Invoices:  &Invoices{base: b, items: items, defaults: opts.Defaults},
		Sales:     &Sales{base: b, items: items, defaults: opts.Defaults},
		Portal:    &Portal{base: b, tokens: opts.Tokens, products: products, jobs: jobs},
		Documents: &Documents{base: b, renderer: opts.Renderer, archive: opts.Archive},
		Dashboard: &Dashboard{base: b},
	}
}

// requireCustomer turns a missing customer reference into a 400.
func requireCustomer(ctx context.Context, store storage.CustomerStore, id string) error {
	if id == "" {
		return nil
	}
	if _, err := store.GetCustomer(ctx, id); err != nil {
		return referenceError("customerId", "customer", err)
	}
	return nil
}
