package pipeline

import (
	"context"

	"github.com/tidegate/nid-etl/internal/domain"
)

// Lookups holds the name→surrogate-key maps produced by the lookup build
// stage. Counties are keyed by the compound state|county key. The maps are
// immutable after construction; resolution reads them and never writes.
type Lookups struct {
	States     map[string]int64
	Counties   map[string]int64
	Purposes   map[string]int64
	OwnerTypes map[string]int64
}

// buildLookups upserts one reference row per distinct categorical value and
// collects the returned surrogate keys. Each upsert failure is logged with
// the offending value and skipped — records that needed it resolve to a nil
// foreign key later.
func (p *Pipeline) buildLookups(ctx context.Context, records []domain.Record, sum *Summary) Lookups {
	l := Lookups{
		States:     map[string]int64{},
		Counties:   map[string]int64{},
		Purposes:   map[string]int64{},
		OwnerTypes: map[string]int64{},
	}

	p.upsertDistinct(ctx, "state", distinct(records, func(r domain.Record) *string { return r.State }),
		l.States, sum, p.store.UpsertState)
	p.upsertDistinct(ctx, "purpose", distinct(records, func(r domain.Record) *string { return r.PrimaryPurpose }),
		l.Purposes, sum, p.store.UpsertPurpose)
	p.upsertDistinct(ctx, "owner_type", distinct(records, func(r domain.Record) *string { return r.PrimaryOwnerType }),
		l.OwnerTypes, sum, p.store.UpsertOwnerType)
	p.upsertCounties(ctx, records, &l, sum)

	sum.States = len(l.States)
	sum.Counties = len(l.Counties)
	sum.Purposes = len(l.Purposes)
	sum.OwnerTypes = len(l.OwnerTypes)
	p.logger.Info("lookup tables built",
		"states", sum.States,
		"counties", sum.Counties,
		"purposes", sum.Purposes,
		"owner_types", sum.OwnerTypes,
		"errors", sum.LookupErrors,
	)
	return l
}

// upsertDistinct runs one lookup upsert per distinct value, filling dst with
// name→id.
func (p *Pipeline) upsertDistinct(ctx context.Context, entity string, values []string,
	dst map[string]int64, sum *Summary,
	upsert func(ctx context.Context, name, slug string) (int64, error),
) {
	for _, v := range values {
		if ctx.Err() != nil {
			return
		}
		id, err := upsert(ctx, v, domain.Slugify(v))
		if err != nil {
			sum.LookupErrors++
			p.metrics.LookupErrors.WithLabelValues(entity).Inc()
			p.logger.Error("lookup upsert failed", "entity", entity, "value", v, "error", err)
			continue
		}
		dst[v] = id
	}
}

// upsertCounties walks the deduplicated records for distinct (state, county)
// pairs. The county slug embeds the state slug, and the row carries the
// parent state's surrogate key — so a county whose state upsert failed is
// skipped, not orphaned.
func (p *Pipeline) upsertCounties(ctx context.Context, records []domain.Record, l *Lookups, sum *Summary) {
	seen := map[string]struct{}{}
	for _, r := range records {
		if ctx.Err() != nil {
			return
		}
		if r.State == nil || r.County == nil {
			continue
		}
		key := domain.CountyKey(*r.State, *r.County)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		stateID, ok := l.States[*r.State]
		if !ok {
			p.logger.Warn("skipping county with unresolved state", "county", *r.County, "state", *r.State)
			continue
		}

		slug := domain.Slugify(*r.State) + "-" + domain.Slugify(*r.County)
		id, err := p.store.UpsertCounty(ctx, *r.County, slug, stateID)
		if err != nil {
			sum.LookupErrors++
			p.metrics.LookupErrors.WithLabelValues("county").Inc()
			p.logger.Error("lookup upsert failed", "entity", "county", "value", key, "error", err)
			continue
		}
		l.Counties[key] = id
	}
}

// distinct collects the distinct non-nil values of one attribute in
// first-seen row order.
func distinct(records []domain.Record, get func(domain.Record) *string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		v := get(r)
		if v == nil {
			continue
		}
		if _, ok := seen[*v]; ok {
			continue
		}
		seen[*v] = struct{}{}
		out = append(out, *v)
	}
	return out
}
