package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/printshop-service/pkg/api"
	"github.com/printshop-service/pkg/scheduler"
	"github.com/printshop-service/pkg/service"
	"github.com/printshop-service/pkg/storage/postgres"
)

// limiterIdle is how long a portal client may stay quiet before its rate
// limiter is forgotten.
const limiterIdle = 30 * time.Minute

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and the background sweeps",
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()
			return serve(c.Context, rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, log := rt.cfg, rt.log

	srv := api.New(rt.app, api.Options{
		Logger:        log,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		RatePerSecond: cfg.Portal.RatePerSecond,
		Burst:         cfg.Portal.Burst,
		Ready:         rt.ready,
	})

	sched := scheduler.New(log)
	if cfg.Scheduler.Enabled {
		if err := addSweeps(sched, rt.app, srv.Limiter(), cfg.Scheduler.OverdueSpec, cfg.Scheduler.QuoteExpirySpec, cfg.Scheduler.LimiterSweepSpec); err != nil {
			return err
		}
		sched.Start()
		log.Info("scheduler started", zap.Int("tasks", sched.Len()))
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	case <-sigCtx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn("scheduler did not stop in time", zap.Error(err))
	}
	return nil
}

func addSweeps(sched *scheduler.Scheduler, app *service.Application, limiter *api.RateLimiter, overdue, expiry, limiterSpec string) error {
	if err := sched.Add("invoice_overdue", overdue, app.Invoices.MarkOverdue); err != nil {
		return err
	}
	if err := sched.Add("quotation_expiry", expiry, app.Sales.ExpireQuotations); err != nil {
		return err
	}
	return sched.Add("portal_limiter", limiterSpec, func(context.Context) (int, error) {
		return limiter.Cleanup(limiterIdle), nil
	})
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "apply or roll back the database schema",
		ArgsUsage: "[up|down]",
		Action: func(c *cli.Context) error {
			cfg, log, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cfg.Database.InMemory() {
				return errors.New("migrate needs a postgres dsn")
			}

			direction := c.Args().First()
			switch direction {
			case "", "up":
				direction = "up"
			case "down":
			default:
				return fmt.Errorf("unknown direction %q, want up or down", direction)
			}
			if err := postgres.Migrate(cfg.Database.DSN, direction == "down"); err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationVersion(cfg.Database.DSN)
			if err != nil {
				return err
			}
			log.Info("migrations applied",
				zap.String("direction", direction),
				zap.Uint("version", version),
				zap.Bool("dirty", dirty))
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "load a sample catalog, customer and portal login",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "portal-password",
				Usage:    "password for " + service.SamplePortalEmail,
				EnvVars:  []string{"PRINTSHOP_SEED_PORTAL_PASSWORD"},
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()
			res, err := service.Seed(c.Context, rt.app, c.String("portal-password"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "created %d products, %d customers, %d portal users\n",
				res.Products, res.Customers, res.PortalUsers)
			return nil
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "mark overdue invoices and expire lapsed quotations once",
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			overdue, err := scheduler.Run(c.Context, rt.log, "invoice_overdue", rt.app.Invoices.MarkOverdue)
			if err != nil {
				return err
			}
			expired, err := scheduler.Run(c.Context, rt.log, "quotation_expiry", rt.app.Sales.ExpireQuotations)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%d invoices overdue, %d quotations expired\n", overdue, expired)
			return nil
		},
	}
}

func invoicePDFCommand() *cli.Command {
	return &cli.Command{
		Name:  "invoice-pdf",
		Usage: "render an invoice to a PDF file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "invoice id", Required: true},
			&cli.StringFlag{Name: "out", Usage: "output path (defaults to the invoice number)"},
		},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			f, err := rt.app.Documents.InvoicePDF(c.Context, c.String("id"))
			if err != nil {
				return err
			}
			out := c.String("out")
			if out == "" {
				out = f.Name
			}
			if err := os.WriteFile(out, f.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintln(c.App.Writer, out)
			return nil
		},
	}
}
