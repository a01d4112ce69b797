// Command compliance-gate evaluates every sealed evidence record of one
// tenant and prints the report as JSON. It only reads from the ledger.
//
// Exit codes: 0 = all records pass, 1 = error, 2 = at least one record fails.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres"
	"github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres/audit"
	"github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres/evidence"
	"github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres/idempotency"
	"github.com/emissioncoresupport/evidence-ledger/internal/app"
	"github.com/emissioncoresupport/evidence-ledger/internal/compliance"
	"github.com/emissioncoresupport/evidence-ledger/internal/config"
	"github.com/emissioncoresupport/evidence-ledger/internal/metrics"
	"github.com/emissioncoresupport/evidence-ledger/internal/service/ledger"
	"github.com/emissioncoresupport/evidence-ledger/pkg/ctxutil"
)

const (
	exitOK     = 0
	exitError  = 1
	exitFailed = 2
)

type options struct {
	tenantID   string
	configPath string
	timeout    time.Duration
	pretty     bool
}

func main() {
	var opts options
	pflag.StringVar(&opts.tenantID, "tenant", "", "tenant whose sealed records are evaluated (required)")
	pflag.StringVar(&opts.configPath, "config", "", "config file (defaults to $CONFIG_PATH, then ./config.yaml)")
	pflag.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "overall deadline")
	pflag.BoolVar(&opts.pretty, "pretty", false, "indent the JSON report")
	pflag.Parse()

	os.Exit(run(opts, os.Stdout))
}

// run evaluates the tenant and returns the process exit code. Deferred
// cleanup runs before main exits.
func run(opts options, out io.Writer) int {
	if opts.tenantID == "" {
		fmt.Fprintln(os.Stderr, "compliance-gate: --tenant is required")
		pflag.Usage()
		return exitError
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compliance-gate: load config: %v\n", err)
		return exitError
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		return exitError
	}
	defer pool.Close()

	svc := ledger.NewService(
		logger,
		evidence.New(pool),
		audit.New(pool),
		idempotency.New(pool),
		postgres.NewTxManager(pool),
		metrics.NewMetrics(nil),
		cfg.Ledger,
	)

	report, err := svc.RunTenantGate(ctxutil.WithTenantID(ctx, opts.tenantID))
	if err != nil {
		logger.Error("run compliance gate",
			slog.String("tenant_id", opts.tenantID),
			slog.String("error", err.Error()),
		)
		return exitError
	}

	if err := writeReport(out, report, opts.pretty); err != nil {
		logger.Error("write report", slog.String("error", err.Error()))
		return exitError
	}

	if !report.Pass() {
		logger.Warn("compliance gate failed",
			slog.String("tenant_id", opts.tenantID),
			slog.Int("failed", report.Failed),
			slog.Int("evaluated", report.Evaluated),
		)
	}
	return exitCode(report)
}

func writeReport(w io.Writer, report compliance.TenantReport, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(struct {
		Pass   bool                    `json:"pass"`
		Report compliance.TenantReport `json:"report"`
	}{Pass: report.Pass(), Report: report})
}

func exitCode(report compliance.TenantReport) int {
	if report.Pass() {
		return exitOK
	}
	return exitFailed
}
