package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned by single-record lookups that match nothing.
var ErrNotFound = errors.New("not found")

// DamSummary is the list/search projection of a dam.
type DamSummary struct {
	NIDID           string   `json:"nid_id"`
	Name            *string  `json:"name"`
	Slug            string   `json:"slug"`
	State           *string  `json:"state"`
	County          *string  `json:"county"`
	HazardPotential *string  `json:"hazard_potential"`
	PrimaryPurpose  *string  `json:"primary_purpose"`
	DamHeightFt     *float64 `json:"dam_height_ft"`
	YearCompleted   *float64 `json:"year_completed"`
}

// DamDetail is the single-record projection served for a dam page.
type DamDetail struct {
	DamSummary
	OtherNames          *string  `json:"other_names"`
	City                *string  `json:"city"`
	RiverName           *string  `json:"river_name"`
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
	OwnerNames          *string  `json:"owner_names"`
	PrimaryOwnerType    *string  `json:"primary_owner_type"`
	PrimaryDamType      *string  `json:"primary_dam_type"`
	NIDHeightFt         *float64 `json:"nid_height_ft"`
	DamLengthFt         *float64 `json:"dam_length_ft"`
	NIDStorageAcreFt    *float64 `json:"nid_storage_acre_ft"`
	MaxStorageAcreFt    *float64 `json:"max_storage_acre_ft"`
	DrainageAreaSqMiles *float64 `json:"drainage_area_sq_miles"`
	ConditionAssessment *string  `json:"condition_assessment"`
	LastInspectionDate  *string  `json:"last_inspection_date"`
	OperationalStatus   *string  `json:"operational_status"`
	WebsiteURL          *string  `json:"website_url"`
}

// DamFilter restricts a dam listing by categorical display strings. Empty
// fields are ignored.
type DamFilter struct {
	State     string
	County    string
	Purpose   string
	OwnerType string
	Hazard    string
}

// LookupRow is one reference-table row as served to readers.
type LookupRow struct {
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	DamCount        int64  `json:"dam_count"`
	HighHazardCount int64  `json:"high_hazard_count,omitempty"`
}

// Stats are the site-wide headline numbers.
type Stats struct {
	TotalDams         int64 `json:"total_dams"`
	HighHazard        int64 `json:"high_hazard"`
	SignificantHazard int64 `json:"significant_hazard"`
}

const damSummaryCols = `nid_id, name, slug, state, county, hazard_potential,
	primary_purpose, dam_height_ft, year_completed`

func scanDamSummary(row pgx.Row, d *DamSummary) error {
	return row.Scan(&d.NIDID, &d.Name, &d.Slug, &d.State, &d.County,
		&d.HazardPotential, &d.PrimaryPurpose, &d.DamHeightFt, &d.YearCompleted)
}

// DamBySlug fetches one dam by its unique slug.
func (s *Store) DamBySlug(ctx context.Context, slug string) (DamDetail, error) {
	var d DamDetail
	err := s.pool.QueryRow(ctx, `
		SELECT `+damSummaryCols+`,
			other_names, city, river_name, latitude, longitude,
			owner_names, primary_owner_type, primary_dam_type,
			nid_height_ft, dam_length_ft, nid_storage_acre_ft,
			max_storage_acre_ft, drainage_area_sq_miles,
			condition_assessment, last_inspection_date::text,
			operational_status, website_url
		FROM dams WHERE slug = $1`, slug).Scan(
		&d.NIDID, &d.Name, &d.Slug, &d.State, &d.County,
		&d.HazardPotential, &d.PrimaryPurpose, &d.DamHeightFt, &d.YearCompleted,
		&d.OtherNames, &d.City, &d.RiverName, &d.Latitude, &d.Longitude,
		&d.OwnerNames, &d.PrimaryOwnerType, &d.PrimaryDamType,
		&d.NIDHeightFt, &d.DamLengthFt, &d.NIDStorageAcreFt,
		&d.MaxStorageAcreFt, &d.DrainageAreaSqMiles,
		&d.ConditionAssessment, &d.LastInspectionDate,
		&d.OperationalStatus, &d.WebsiteURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return DamDetail{}, ErrNotFound
	}
	if err != nil {
		return DamDetail{}, fmt.Errorf("dam by slug %q: %w", slug, err)
	}
	return d, nil
}

// ListDams returns dams matching the filter, ordered by name.
func (s *Store) ListDams(ctx context.Context, f DamFilter, limit int) ([]DamSummary, error) {
	var conds []string
	var args []any
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("state", f.State)
	add("county", f.County)
	add("primary_purpose", f.Purpose)
	add("primary_owner_type", f.OwnerType)
	add("hazard_potential", f.Hazard)

	q := "SELECT " + damSummaryCols + " FROM dams"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY name NULLS LAST LIMIT $%d", len(args))

	return s.queryDamSummaries(ctx, q, args...)
}

// SearchDams matches dam names case-insensitively, ordered by name.
func (s *Store) SearchDams(ctx context.Context, query string, limit int) ([]DamSummary, error) {
	return s.queryDamSummaries(ctx,
		"SELECT "+damSummaryCols+` FROM dams
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name LIMIT $2`,
		query, limit)
}

func (s *Store) queryDamSummaries(ctx context.Context, q string, args ...any) ([]DamSummary, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query dams: %w", err)
	}
	defer rows.Close()

	var out []DamSummary
	for rows.Next() {
		var d DamSummary
		if err := scanDamSummary(rows, &d); err != nil {
			return nil, fmt.Errorf("scan dam: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dams: %w", err)
	}
	return out, nil
}

// ListStates returns states ordered by dam count descending.
func (s *Store) ListStates(ctx context.Context, limit int) ([]LookupRow, error) {
	return s.queryLookup(ctx, `
		SELECT name, slug, dam_count, high_hazard_count FROM states
		ORDER BY dam_count DESC LIMIT $1`, limit)
}

// ListCounties returns counties ordered by dam count descending.
func (s *Store) ListCounties(ctx context.Context, limit int) ([]LookupRow, error) {
	return s.queryLookup(ctx, `
		SELECT name, slug, dam_count, 0 FROM counties
		ORDER BY dam_count DESC LIMIT $1`, limit)
}

// ListPurposes returns purposes ordered by dam count descending.
func (s *Store) ListPurposes(ctx context.Context, limit int) ([]LookupRow, error) {
	return s.queryLookup(ctx, `
		SELECT name, slug, dam_count, 0 FROM purposes
		ORDER BY dam_count DESC LIMIT $1`, limit)
}

// ListOwnerTypes returns owner types ordered by dam count descending.
func (s *Store) ListOwnerTypes(ctx context.Context, limit int) ([]LookupRow, error) {
	return s.queryLookup(ctx, `
		SELECT name, slug, dam_count, 0 FROM owner_types
		ORDER BY dam_count DESC LIMIT $1`, limit)
}

func (s *Store) queryLookup(ctx context.Context, q string, args ...any) ([]LookupRow, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query lookup: %w", err)
	}
	defer rows.Close()

	var out []LookupRow
	for rows.Next() {
		var r LookupRow
		if err := rows.Scan(&r.Name, &r.Slug, &r.DamCount, &r.HighHazardCount); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup: %w", err)
	}
	return out, nil
}

// Stats returns the headline hazard numbers.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE hazard_potential = 'High'),
			count(*) FILTER (WHERE hazard_potential = 'Significant')
		FROM dams`).Scan(&st.TotalDams, &st.HighHazard, &st.SignificantHazard)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
