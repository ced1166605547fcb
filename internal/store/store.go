// Package store persists the dam inventory to Postgres.
//
// Write paths are all upserts: dams on nid_id, reference tables on slug.
// That makes every run idempotent and re-running the whole pipeline the
// recovery path after partial failures. There is no cross-table transaction.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx connection pool with the queries the pipeline and the
// read API need.
type Store struct {
	pool        *pgxpool.Pool
	logger      *slog.Logger
	callTimeout time.Duration
}

// New opens a connection pool for the given DSN and verifies connectivity.
// callTimeout bounds each write-path store call; zero disables the bound.
func New(ctx context.Context, dsn string, callTimeout time.Duration, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool, logger: logger, callTimeout: callTimeout}, nil
}

// opCtx applies the per-call timeout when one is configured.
func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// schema is applied statement-by-statement on startup. Everything is
// IF NOT EXISTS so repeated runs are no-ops.
const schema = `
CREATE TABLE IF NOT EXISTS states (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	dam_count BIGINT NOT NULL DEFAULT 0,
	high_hazard_count BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS counties (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	state_id BIGINT NOT NULL REFERENCES states(id),
	dam_count BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS purposes (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	dam_count BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS owner_types (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	dam_count BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS dams (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	nid_id TEXT NOT NULL UNIQUE,
	slug TEXT NOT NULL UNIQUE,
	name TEXT,
	other_names TEXT,
	former_names TEXT,
	federal_id TEXT,
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	state TEXT,
	county TEXT,
	city TEXT,
	distance_to_city DOUBLE PRECISION,
	river_name TEXT,
	congressional_district TEXT,
	tribal_land TEXT,
	owner_names TEXT,
	owner_types TEXT,
	primary_owner_type TEXT,
	non_federal_on_federal BOOLEAN,
	primary_purpose TEXT,
	purposes TEXT,
	source_agency TEXT,
	state_agency_id TEXT,
	primary_dam_type TEXT,
	dam_types TEXT,
	core_types TEXT,
	foundation TEXT,
	dam_height_ft DOUBLE PRECISION,
	hydraulic_height_ft DOUBLE PRECISION,
	structural_height_ft DOUBLE PRECISION,
	nid_height_ft DOUBLE PRECISION,
	nid_height_category TEXT,
	dam_length_ft DOUBLE PRECISION,
	volume_cubic_yards DOUBLE PRECISION,
	year_completed DOUBLE PRECISION,
	year_completed_category TEXT,
	years_modified TEXT,
	data_last_updated DATE,
	nid_storage_acre_ft DOUBLE PRECISION,
	max_storage_acre_ft DOUBLE PRECISION,
	normal_storage_acre_ft DOUBLE PRECISION,
	surface_area_acres DOUBLE PRECISION,
	drainage_area_sq_miles DOUBLE PRECISION,
	max_discharge_cfs DOUBLE PRECISION,
	spillway_type TEXT,
	spillway_width_ft DOUBLE PRECISION,
	outlet_gate_type TEXT,
	number_of_locks DOUBLE PRECISION,
	lock_length_ft DOUBLE PRECISION,
	lock_width_ft DOUBLE PRECISION,
	state_regulated BOOLEAN,
	state_jurisdictional BOOLEAN,
	state_regulatory_agency TEXT,
	federally_regulated BOOLEAN,
	hazard_potential TEXT,
	condition_assessment TEXT,
	condition_assessment_date DATE,
	last_inspection_date DATE,
	inspection_frequency DOUBLE PRECISION,
	operational_status TEXT,
	eap_prepared TEXT,
	eap_last_revision DATE,
	inundation_maps_in_nid BOOLEAN,
	website_url TEXT,
	ingested_at TIMESTAMPTZ,
	state_id BIGINT REFERENCES states(id),
	county_id BIGINT REFERENCES counties(id),
	primary_purpose_id BIGINT REFERENCES purposes(id),
	primary_owner_type_id BIGINT REFERENCES owner_types(id)
);

CREATE INDEX IF NOT EXISTS dams_state_idx ON dams (state);
CREATE INDEX IF NOT EXISTS dams_state_county_idx ON dams (state, county);
CREATE INDEX IF NOT EXISTS dams_primary_purpose_idx ON dams (primary_purpose);
CREATE INDEX IF NOT EXISTS dams_primary_owner_type_idx ON dams (primary_owner_type);
CREATE INDEX IF NOT EXISTS dams_hazard_potential_idx ON dams (hazard_potential);

CREATE TABLE IF NOT EXISTS data_metadata (
	id INTEGER PRIMARY KEY DEFAULT 1,
	source_name TEXT NOT NULL DEFAULT 'National Inventory of Dams',
	source_url TEXT NOT NULL DEFAULT 'https://nid.sec.usace.army.mil/api/nation/csv',
	record_count BIGINT,
	last_updated TIMESTAMPTZ,
	CONSTRAINT single_row CHECK (id = 1)
);
`

// EnsureSchema applies the table and index DDL. Safe to run before every
// ingestion.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// TableCounts holds the persisted row count of every table the pipeline
// writes, used as a post-load sanity cross-check against in-memory counters.
type TableCounts struct {
	Dams       int64
	States     int64
	Counties   int64
	Purposes   int64
	OwnerTypes int64
}

// TableCounts re-queries the row count of each table.
func (s *Store) TableCounts(ctx context.Context) (TableCounts, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var tc TableCounts
	for _, q := range []struct {
		table string
		dst   *int64
	}{
		{"dams", &tc.Dams},
		{"states", &tc.States},
		{"counties", &tc.Counties},
		{"purposes", &tc.Purposes},
		{"owner_types", &tc.OwnerTypes},
	} {
		if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+q.table).Scan(q.dst); err != nil {
			return TableCounts{}, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return tc, nil
}

// UpdateMetadata upserts the single data_metadata row with the outcome of a
// successful run.
func (s *Store) UpdateMetadata(ctx context.Context, recordCount int64, lastUpdated time.Time) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO data_metadata (id, record_count, last_updated)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			record_count = EXCLUDED.record_count,
			last_updated = EXCLUDED.last_updated`,
		recordCount, lastUpdated)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return nil
}
