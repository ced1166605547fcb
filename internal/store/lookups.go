package store

import (
	"context"
	"fmt"
)

// upsertLookup inserts or updates a reference-table row keyed on slug and
// returns its surrogate id. The slug is derived deterministically from the
// name, so repeated runs update in place instead of duplicating.
func (s *Store) upsertLookup(ctx context.Context, table, name, slug string) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, slug) VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, table),
		name, slug).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert %s %q: %w", table, name, err)
	}
	return id, nil
}

// UpsertState upserts one state by slug and returns its id.
func (s *Store) UpsertState(ctx context.Context, name, slug string) (int64, error) {
	return s.upsertLookup(ctx, "states", name, slug)
}

// UpsertPurpose upserts one purpose by slug and returns its id.
func (s *Store) UpsertPurpose(ctx context.Context, name, slug string) (int64, error) {
	return s.upsertLookup(ctx, "purposes", name, slug)
}

// UpsertOwnerType upserts one owner type by slug and returns its id.
func (s *Store) UpsertOwnerType(ctx context.Context, name, slug string) (int64, error) {
	return s.upsertLookup(ctx, "owner_types", name, slug)
}

// UpsertCounty upserts one county by slug with its parent state id. The slug
// embeds the state slug because county names recur across states.
func (s *Store) UpsertCounty(ctx context.Context, name, slug string, stateID int64) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO counties (name, slug, state_id) VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, state_id = EXCLUDED.state_id
		RETURNING id`,
		name, slug, stateID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert county %q: %w", name, err)
	}
	return id, nil
}
