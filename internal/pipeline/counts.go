package pipeline

import (
	"context"
	"strings"
)

// updateCounts recomputes every lookup entity's denormalized dam count from
// scratch and overwrites the stored value. Full recomputation keeps this
// idempotent and safe to re-run after partial failures; a failure for one
// entity never blocks the rest.
func (p *Pipeline) updateCounts(ctx context.Context, l Lookups, sum *Summary) {
	fail := func(entity, name string, err error) {
		sum.CountErrors++
		p.metrics.CountUpdateErrors.WithLabelValues(entity).Inc()
		p.logger.Error("count update failed", "entity", entity, "value", name, "error", err)
	}

	for name, id := range l.States {
		if ctx.Err() != nil {
			return
		}
		total, highHazard, err := p.store.CountDamsByState(ctx, name)
		if err == nil {
			err = p.store.UpdateStateCounts(ctx, id, total, highHazard)
		}
		if err != nil {
			fail("state", name, err)
		}
	}

	for key, id := range l.Counties {
		if ctx.Err() != nil {
			return
		}
		state, county, _ := strings.Cut(key, "|")
		total, err := p.store.CountDamsByCounty(ctx, state, county)
		if err == nil {
			err = p.store.UpdateCountyCount(ctx, id, total)
		}
		if err != nil {
			fail("county", key, err)
		}
	}

	for name, id := range l.Purposes {
		if ctx.Err() != nil {
			return
		}
		total, err := p.store.CountDamsByPurpose(ctx, name)
		if err == nil {
			err = p.store.UpdatePurposeCount(ctx, id, total)
		}
		if err != nil {
			fail("purpose", name, err)
		}
	}

	for name, id := range l.OwnerTypes {
		if ctx.Err() != nil {
			return
		}
		total, err := p.store.CountDamsByOwnerType(ctx, name)
		if err == nil {
			err = p.store.UpdateOwnerTypeCount(ctx, id, total)
		}
		if err != nil {
			fail("owner_type", name, err)
		}
	}

	p.logger.Info("aggregate counts updated",
		"states", len(l.States),
		"counties", len(l.Counties),
		"purposes", len(l.Purposes),
		"owner_types", len(l.OwnerTypes),
		"errors", sum.CountErrors,
	)
}
