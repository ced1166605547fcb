package pipeline

import "github.com/tidegate/nid-etl/internal/domain"

// Resolve attaches surrogate keys to each record from the lookup maps,
// in place. A key stays nil when the display value is nil or its lookup
// entry is absent — no placeholder entity is ever synthesized. The maps are
// only read.
func Resolve(records []domain.Record, l Lookups) {
	for i := range records {
		r := &records[i]
		if r.State != nil {
			if id, ok := l.States[*r.State]; ok {
				r.StateID = &id
			}
		}
		if r.State != nil && r.County != nil {
			if id, ok := l.Counties[domain.CountyKey(*r.State, *r.County)]; ok {
				r.CountyID = &id
			}
		}
		if r.PrimaryPurpose != nil {
			if id, ok := l.Purposes[*r.PrimaryPurpose]; ok {
				r.PrimaryPurposeID = &id
			}
		}
		if r.PrimaryOwnerType != nil {
			if id, ok := l.OwnerTypes[*r.PrimaryOwnerType]; ok {
				r.PrimaryOwnerTypeID = &id
			}
		}
	}
}
