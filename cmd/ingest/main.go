// Package main runs a single ingestion of a transaction list file and prints
// the reconciliation report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"palletledger/internal/app"
	"palletledger/internal/core/apperror"
	appctx "palletledger/internal/core/context"
	"palletledger/internal/domain/ingest"
	"palletledger/pkg/config"
	"palletledger/pkg/logger"
)

func main() {
	var (
		file     = flag.String("file", "", "path to a .csv or .xlsx transaction list (required)")
		name     = flag.String("name", "", "report name (defaults to the file name)")
		from     = flag.String("from", "", "period start, YYYY-MM-DD")
		to       = flag.String("to", "", "period end, YYYY-MM-DD")
		operator = flag.String("operator", "", "operator recorded on movements and the report")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*file, *name, *from, *to, *operator); err != nil {
		fmt.Fprintf(os.Stderr, "ingest failed: %s\n", describe(err))
		os.Exit(1)
	}
}

func run(path, name, from, to, operator string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	meta := ingest.Metadata{Name: name, Operator: operator}
	if meta.PeriodStart, err = parseDay("from", from); err != nil {
		return err
	}
	if meta.PeriodEnd, err = parseDay("to", to); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext("", ""))
	if operator != "" {
		ctx = appctx.WithOperator(ctx, &appctx.OperatorContext{OperatorID: operator, Source: "cli"})
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Pipeline.Ingest(ctx, ingest.Source{Filename: filepath.Base(path), Data: data}, meta)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func parseDay(flagName, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("-%s must be YYYY-MM-DD: %w", flagName, err)
	}
	return &t, nil
}

// describe renders AppErrors with their code and details.
func describe(err error) string {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return err.Error()
	}
	if len(appErr.Details) == 0 {
		return fmt.Sprintf("%s: %s", appErr.Code, appErr.Message)
	}
	return fmt.Sprintf("%s: %s %v", appErr.Code, appErr.Message, appErr.Details)
}
