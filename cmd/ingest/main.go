// Command ingest runs one full ingestion of the NID nationwide CSV export
// into Postgres. It is a batch job: setup failures (missing DATABASE_URL,
// unreadable CSV, unreachable store) exit non-zero before any write; every
// per-row, per-entity, and per-batch failure during the run is logged and
// counted, and the process still exits zero with a summary.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tidegate/nid-etl/internal/config"
	"github.com/tidegate/nid-etl/internal/nidcsv"
	"github.com/tidegate/nid-etl/internal/observability"
	"github.com/tidegate/nid-etl/internal/pipeline"
	"github.com/tidegate/nid-etl/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	file, err := nidcsv.ReadFile(cfg.CSVPath)
	if err != nil {
		logger.Error("failed to read export", "path", cfg.CSVPath, "error", err)
		os.Exit(1)
	}
	logger.Info("export loaded", "path", cfg.CSVPath, "columns", len(file.Header), "rows", len(file.Rows))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.DatabaseURL, cfg.StoreTimeout, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(st, logger, metrics, cfg.BatchSize)
	sum, err := p.Run(ctx, file)
	if err != nil {
		logger.Error("ingestion interrupted", "error", err)
		os.Exit(1)
	}

	logger.Info("run summary",
		"rows", sum.RowsTotal,
		"skipped", sum.RowsSkipped,
		"duplicates", sum.Duplicates,
		"records", sum.Records,
		"inserted", sum.Inserted,
		"failed", sum.Failed,
		"states", sum.States,
		"counties", sum.Counties,
		"purposes", sum.Purposes,
		"owner_types", sum.OwnerTypes,
		"lookup_errors", sum.LookupErrors,
		"count_errors", sum.CountErrors,
	)
}
