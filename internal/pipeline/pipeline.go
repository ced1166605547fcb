// Package pipeline orchestrates one full ingestion run: parse, map, dedupe,
// build lookups, resolve foreign keys, batch-load, recompute counts.
//
// Stages are strictly sequential: each consumes the complete output of its
// predecessor, holding the full dataset in memory. Every per-record,
// per-entity, and per-batch failure is recovered locally, logged, and
// counted; only context cancellation stops a run early. Re-running the whole
// pipeline is the recovery path, and is safe because every write is an
// upsert.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tidegate/nid-etl/internal/domain"
	"github.com/tidegate/nid-etl/internal/nidcsv"
	"github.com/tidegate/nid-etl/internal/observability"
	"github.com/tidegate/nid-etl/internal/store"
)

// Store is the write-side persistence the pipeline drives.
type Store interface {
	UpsertState(ctx context.Context, name, slug string) (int64, error)
	UpsertCounty(ctx context.Context, name, slug string, stateID int64) (int64, error)
	UpsertPurpose(ctx context.Context, name, slug string) (int64, error)
	UpsertOwnerType(ctx context.Context, name, slug string) (int64, error)
	UpsertDams(ctx context.Context, records []domain.Record) error
	TableCounts(ctx context.Context) (store.TableCounts, error)
	CountDamsByState(ctx context.Context, state string) (total, highHazard int64, err error)
	CountDamsByCounty(ctx context.Context, state, county string) (int64, error)
	CountDamsByPurpose(ctx context.Context, purpose string) (int64, error)
	CountDamsByOwnerType(ctx context.Context, ownerType string) (int64, error)
	UpdateStateCounts(ctx context.Context, id, damCount, highHazardCount int64) error
	UpdateCountyCount(ctx context.Context, id, damCount int64) error
	UpdatePurposeCount(ctx context.Context, id, damCount int64) error
	UpdateOwnerTypeCount(ctx context.Context, id, damCount int64) error
	UpdateMetadata(ctx context.Context, recordCount int64, lastUpdated time.Time) error
}

// Summary reports the outcome of a run. Inserted and Failed partition the
// deduplicated record set; Tables is the store's own row counts re-queried
// after loading, as a cross-check against the in-memory numbers.
type Summary struct {
	RowsTotal    int
	RowsSkipped  int
	Duplicates   int
	Records      int
	States       int
	Counties     int
	Purposes     int
	OwnerTypes   int
	LookupErrors int
	Inserted     int
	Failed       int
	CountErrors  int
	Tables       store.TableCounts
}

// Pipeline runs the ingestion stages against a Store.
type Pipeline struct {
	store     Store
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	batchSize int
}

// New creates a Pipeline. batchSize bounds primary-table writes per round
// trip.
func New(s Store, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		store:     s,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		batchSize: batchSize,
	}
}

// SetClock swaps the time source used for run timestamps. Tests inject a
// fake clock for deterministic metadata.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	p.clock = c
}

// Run executes one complete ingestion of a parsed export. Store-level
// failures inside a stage are recovered and reflected in the Summary; Run
// itself fails only on context cancellation.
func (p *Pipeline) Run(ctx context.Context, file *nidcsv.File) (Summary, error) {
	var sum Summary
	p.metrics.IngestRunning.Set(1)
	defer p.metrics.IngestRunning.Set(0)

	records := p.mapRows(file, &sum)
	records, sum.Duplicates = domain.Dedupe(records)
	sum.Records = len(records)
	p.metrics.DuplicatesDropped.Add(float64(sum.Duplicates))
	p.logger.Info("parsed export",
		"rows", sum.RowsTotal,
		"skipped", sum.RowsSkipped,
		"duplicates", sum.Duplicates,
		"records", sum.Records,
	)

	lookups := p.buildLookups(ctx, records, &sum)
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	Resolve(records, lookups)

	p.loadBatches(ctx, records, &sum)
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	if tc, err := p.store.TableCounts(ctx); err != nil {
		p.logger.Error("table count cross-check failed", "error", err)
	} else {
		sum.Tables = tc
		p.logger.Info("table counts",
			"dams", tc.Dams,
			"states", tc.States,
			"counties", tc.Counties,
			"purposes", tc.Purposes,
			"owner_types", tc.OwnerTypes,
		)
		if int(tc.Dams) < sum.Inserted {
			p.logger.Warn("store reports fewer dams than were upserted",
				"persisted", tc.Dams, "inserted", sum.Inserted)
		}
	}

	p.updateCounts(ctx, lookups, &sum)
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	if err := p.store.UpdateMetadata(ctx, sum.Tables.Dams, p.clock.Now()); err != nil {
		p.logger.Error("metadata update failed", "error", err)
	}

	p.logger.Info("ingestion complete",
		"inserted", sum.Inserted,
		"failed", sum.Failed,
		"lookup_errors", sum.LookupErrors,
		"count_errors", sum.CountErrors,
	)
	return sum, nil
}

// mapRows applies the row mapper to every data row, counting skips instead
// of failing.
func (p *Pipeline) mapRows(file *nidcsv.File, sum *Summary) []domain.Record {
	mapper := domain.NewMapper(file.Header)
	records := make([]domain.Record, 0, len(file.Rows))

	sum.RowsTotal = len(file.Rows)
	for i, row := range file.Rows {
		r, err := mapper.MapRow(row)
		if err != nil {
			sum.RowsSkipped++
			p.metrics.RowsSkipped.Inc()
			p.logger.Debug("skipping row", "row", i, "reason", err)
			continue
		}
		p.metrics.RowsParsed.Inc()
		records = append(records, r)
	}
	return records
}

// loadBatches upserts records in fixed-size batches. A failed batch is
// logged with its index and counted; later batches are still attempted.
func (p *Pipeline) loadBatches(ctx context.Context, records []domain.Record, sum *Summary) {
	for i := 0; i < len(records); i += p.batchSize {
		if ctx.Err() != nil {
			return
		}
		end := min(i+p.batchSize, len(records))
		batch := records[i:end]

		start := p.clock.Now()
		if err := p.store.UpsertDams(ctx, batch); err != nil {
			sum.Failed += len(batch)
			p.metrics.RecordsFailed.Add(float64(len(batch)))
			p.logger.Error("batch upsert failed",
				"batch", i/p.batchSize, "size", len(batch), "error", err)
			continue
		}
		sum.Inserted += len(batch)
		p.metrics.RecordsInserted.Add(float64(len(batch)))
		p.metrics.BatchDuration.Observe(p.clock.Since(start).Seconds())

		if end%10000 < p.batchSize {
			p.logger.Info("load progress", "loaded", end, "total", len(records))
		}
	}
}
