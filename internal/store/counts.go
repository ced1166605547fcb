package store

import (
	"context"
	"fmt"

	"github.com/tidegate/nid-etl/internal/domain"
)

// Count queries match dams by their categorical display strings, not by
// surrogate key — the same columns the read contract filters on, so the
// denormalized counts always agree with what a caller filtering the primary
// table would see.

// CountDamsByState returns the number of dams in a state, and the subset
// classified High hazard.
func (s *Store) CountDamsByState(ctx context.Context, state string) (total, highHazard int64, err error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err = s.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE hazard_potential = $2)
		FROM dams WHERE state = $1`,
		state, domain.HazardHigh).Scan(&total, &highHazard)
	if err != nil {
		return 0, 0, fmt.Errorf("count dams for state %q: %w", state, err)
	}
	return total, highHazard, nil
}

// CountDamsByCounty returns the number of dams in a (state, county) pair.
func (s *Store) CountDamsByCounty(ctx context.Context, state, county string) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM dams WHERE state = $1 AND county = $2`,
		state, county).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count dams for county %q/%q: %w", state, county, err)
	}
	return n, nil
}

// CountDamsByPurpose returns the number of dams with a primary purpose.
func (s *Store) CountDamsByPurpose(ctx context.Context, purpose string) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM dams WHERE primary_purpose = $1`, purpose).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count dams for purpose %q: %w", purpose, err)
	}
	return n, nil
}

// CountDamsByOwnerType returns the number of dams with a primary owner type.
func (s *Store) CountDamsByOwnerType(ctx context.Context, ownerType string) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM dams WHERE primary_owner_type = $1`, ownerType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count dams for owner type %q: %w", ownerType, err)
	}
	return n, nil
}

// UpdateStateCounts overwrites a state's denormalized counts.
func (s *Store) UpdateStateCounts(ctx context.Context, id, damCount, highHazardCount int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`UPDATE states SET dam_count = $2, high_hazard_count = $3 WHERE id = $1`,
		id, damCount, highHazardCount); err != nil {
		return fmt.Errorf("update state %d counts: %w", id, err)
	}
	return nil
}

// UpdateCountyCount overwrites a county's denormalized count.
func (s *Store) UpdateCountyCount(ctx context.Context, id, damCount int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`UPDATE counties SET dam_count = $2 WHERE id = $1`, id, damCount); err != nil {
		return fmt.Errorf("update county %d count: %w", id, err)
	}
	return nil
}

// UpdatePurposeCount overwrites a purpose's denormalized count.
func (s *Store) UpdatePurposeCount(ctx context.Context, id, damCount int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`UPDATE purposes SET dam_count = $2 WHERE id = $1`, id, damCount); err != nil {
		return fmt.Errorf("update purpose %d count: %w", id, err)
	}
	return nil
}

// UpdateOwnerTypeCount overwrites an owner type's denormalized count.
func (s *Store) UpdateOwnerTypeCount(ctx context.Context, id, damCount int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`UPDATE owner_types SET dam_count = $2 WHERE id = $1`, id, damCount); err != nil {
		return fmt.Errorf("update owner type %d count: %w", id, err)
	}
	return nil
}
