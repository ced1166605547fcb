package domain

// Dedupe collapses records to one per NID ID, keeping the first occurrence
// in row order. Returns the surviving records and the number of duplicates
// dropped. Must run before lookup derivation, which assumes one record per
// natural key.
func Dedupe(records []Record) ([]Record, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.NIDID]; dup {
			continue
		}
		seen[r.NIDID] = struct{}{}
		out = append(out, r)
	}
	return out, len(records) - len(out)
}
