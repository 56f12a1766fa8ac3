package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printshop-service/pkg/api"
	"github.com/printshop-service/pkg/scheduler"
	"github.com/printshop-service/pkg/service"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PRINTSHOP_DATABASE_DSN", "memory")
	t.Setenv("PRINTSHOP_PORTAL_JWT_SECRET", "test-secret")
	t.Setenv("PRINTSHOP_LOG_LEVEL", "error")

	dir := t.TempDir()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	base := []string{"printshop", "--config", filepath.Join(dir, "missing.yaml"), "--env", filepath.Join(dir, "missing.env")}
	err := app.Run(append(base, args...))
	return out.String(), err
}

func TestSeedCommand(t *testing.T) {
	out, err := runCLI(t, "seed", "--portal-password", "sample-password")
	require.NoError(t, err)
	assert.Equal(t, "created 6 products, 1 customers, 1 portal users\n", out)
}

func TestSeedRequiresPassword(t *testing.T) {
	_, err := runCLI(t, "seed")
	assert.Error(t, err)
}

func TestSweepCommand(t *testing.T) {
	out, err := runCLI(t, "sweep")
	require.NoError(t, err)
	assert.Equal(t, "0 invoices overdue, 0 quotations expired\n", out)
}

func TestMigrateRejectsMemoryStore(t *testing.T) {
	_, err := runCLI(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres dsn")
}

func TestInvoicePDFUnknownInvoice(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	_, err := runCLI(t, "invoice-pdf", "--id", "missing", "--out", out)
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMissingSecretFailsConfig(t *testing.T) {
	t.Setenv("PRINTSHOP_DATABASE_DSN", "memory")
	app := newApp()
	app.Writer = &bytes.Buffer{}
	dir := t.TempDir()
	err := app.Run([]string{"printshop", "--config", filepath.Join(dir, "none.yaml"), "--env", filepath.Join(dir, "none.env"), "sweep"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portal.jwtSecret is required")
}

func TestAddSweeps(t *testing.T) {
	app := service.New(service.Options{})
	limiter := api.NewRateLimiter(1, 1)

	sched := scheduler.New(zap.NewNop())
	require.NoError(t, addSweeps(sched, app, limiter, "@hourly", "@daily", "@every 10m"))
	assert.Equal(t, 3, sched.Len())

	sched = scheduler.New(zap.NewNop())
	require.NoError(t, addSweeps(sched, app, limiter, "@hourly", "", ""))
	assert.Equal(t, 1, sched.Len())

	sched = scheduler.New(zap.NewNop())
	assert.Error(t, addSweeps(sched, app, limiter, "not a spec", "@daily", ""))
}
