package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegate/nid-etl/internal/domain"
	"github.com/tidegate/nid-etl/internal/nidcsv"
	"github.com/tidegate/nid-etl/internal/observability"
	"github.com/tidegate/nid-etl/internal/pipeline"
	"github.com/tidegate/nid-etl/internal/store"
)

// --- mocks ---

// mockStore keeps everything in maps and hands out sequential surrogate keys.
// Upserts are idempotent on the natural key, like the real store.
type mockStore struct {
	nextID int64

	states     map[string]int64 // name → id
	counties   map[string]int64 // slug → id
	purposes   map[string]int64
	ownerTypes map[string]int64

	dams map[string]domain.Record // nid_id → record

	stateCounts     map[int64][2]int64 // id → {dam_count, high_hazard_count}
	countyCounts    map[int64]int64
	purposeCounts   map[int64]int64
	ownerTypeCounts map[int64]int64

	metaCount int64
	metaAt    time.Time

	failStateName string // UpsertState for this name fails
	failBatch     int    // 1-based UpsertDams call that fails; 0 = never
	damCalls      int
}

func newMockStore() *mockStore {
	return &mockStore{
		states:          map[string]int64{},
		counties:        map[string]int64{},
		purposes:        map[string]int64{},
		ownerTypes:      map[string]int64{},
		dams:            map[string]domain.Record{},
		stateCounts:     map[int64][2]int64{},
		countyCounts:    map[int64]int64{},
		purposeCounts:   map[int64]int64{},
		ownerTypeCounts: map[int64]int64{},
	}
}

func (m *mockStore) upsert(table map[string]int64, key string) int64 {
	if id, ok := table[key]; ok {
		return id
	}
	m.nextID++
	table[key] = m.nextID
	return m.nextID
}

func (m *mockStore) UpsertState(_ context.Context, name, _ string) (int64, error) {
	if name == m.failStateName {
		return 0, errors.New("state upsert refused")
	}
	return m.upsert(m.states, name), nil
}

func (m *mockStore) UpsertCounty(_ context.Context, _, slug string, _ int64) (int64, error) {
	return m.upsert(m.counties, slug), nil
}

func (m *mockStore) UpsertPurpose(_ context.Context, name, _ string) (int64, error) {
	return m.upsert(m.purposes, name), nil
}

func (m *mockStore) UpsertOwnerType(_ context.Context, name, _ string) (int64, error) {
	return m.upsert(m.ownerTypes, name), nil
}

func (m *mockStore) UpsertDams(_ context.Context, records []domain.Record) error {
	m.damCalls++
	if m.damCalls == m.failBatch {
		return errors.New("batch write refused")
	}
	for _, r := range records {
		m.dams[r.NIDID] = r
	}
	return nil
}

func (m *mockStore) TableCounts(context.Context) (store.TableCounts, error) {
	return store.TableCounts{
		Dams:       int64(len(m.dams)),
		States:     int64(len(m.states)),
		Counties:   int64(len(m.counties)),
		Purposes:   int64(len(m.purposes)),
		OwnerTypes: int64(len(m.ownerTypes)),
	}, nil
}

func (m *mockStore) CountDamsByState(_ context.Context, state string) (int64, int64, error) {
	var total, high int64
	for _, r := range m.dams {
		if r.State == nil || *r.State != state {
			continue
		}
		total++
		if r.HazardPotential != nil && *r.HazardPotential == domain.HazardHigh {
			high++
		}
	}
	return total, high, nil
}

func (m *mockStore) CountDamsByCounty(_ context.Context, state, county string) (int64, error) {
	var total int64
	for _, r := range m.dams {
		if r.State != nil && *r.State == state && r.County != nil && *r.County == county {
			total++
		}
	}
	return total, nil
}

func (m *mockStore) CountDamsByPurpose(_ context.Context, purpose string) (int64, error) {
	var total int64
	for _, r := range m.dams {
		if r.PrimaryPurpose != nil && *r.PrimaryPurpose == purpose {
			total++
		}
	}
	return total, nil
}

func (m *mockStore) CountDamsByOwnerType(_ context.Context, ownerType string) (int64, error) {
	var total int64
	for _, r := range m.dams {
		if r.PrimaryOwnerType != nil && *r.PrimaryOwnerType == ownerType {
			total++
		}
	}
	return total, nil
}

func (m *mockStore) UpdateStateCounts(_ context.Context, id, damCount, highHazardCount int64) error {
	m.stateCounts[id] = [2]int64{damCount, highHazardCount}
	return nil
}

func (m *mockStore) UpdateCountyCount(_ context.Context, id, damCount int64) error {
	m.countyCounts[id] = damCount
	return nil
}

func (m *mockStore) UpdatePurposeCount(_ context.Context, id, damCount int64) error {
	m.purposeCounts[id] = damCount
	return nil
}

func (m *mockStore) UpdateOwnerTypeCount(_ context.Context, id, damCount int64) error {
	m.ownerTypeCounts[id] = damCount
	return nil
}

func (m *mockStore) UpdateMetadata(_ context.Context, recordCount int64, lastUpdated time.Time) error {
	m.metaCount = recordCount
	m.metaAt = lastUpdated
	return nil
}

// --- fixtures ---

func headerIndex() map[string]int {
	idx := map[string]int{}
	for i, h := range domain.Headers() {
		idx[h] = i
	}
	return idx
}

func rowWith(values map[string]string) []string {
	headers := domain.Headers()
	row := make([]string, len(headers))
	for i, h := range headers {
		row[i] = values[h]
	}
	return row
}

// testFile is a small export exercising the interesting paths: a duplicate
// natural key, a record with no county, and a truncated row.
func testFile() *nidcsv.File {
	return &nidcsv.File{
		Header: headerIndex(),
		Rows: [][]string{
			rowWith(map[string]string{
				"NID ID":                          "TX001",
				"Dam Name":                        "Lake Dam",
				"State":                           "Texas",
				"County":                          "Travis",
				"Primary Purpose":                 "Recreation",
				"Primary Owner Type":              "Private",
				"Hazard Potential Classification": "High",
			}),
			rowWith(map[string]string{
				"NID ID":   "TX001",
				"Dam Name": "Lake Dam Duplicate",
				"State":    "Texas",
			}),
			rowWith(map[string]string{
				"NID ID":                          "OH002",
				"Dam Name":                        "Mill Pond Dam",
				"State":                           "Ohio",
				"Primary Owner Type":              "Local Government",
				"Hazard Potential Classification": "Low",
			}),
			{"XX999", "Truncated", "Row"},
		},
	}
}

func newPipeline(t *testing.T, st pipeline.Store, batchSize int) *pipeline.Pipeline {
	t.Helper()
	p := pipeline.New(st, slog.Default(), observability.NewMetricsForTesting(), batchSize)
	p.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)))
	return p
}

// --- tests ---

func TestPipeline_Run(t *testing.T) {
	st := newMockStore()
	p := newPipeline(t, st, 500)

	sum, err := p.Run(context.Background(), testFile())
	require.NoError(t, err)

	want := pipeline.Summary{
		RowsTotal:   4,
		RowsSkipped: 1,
		Duplicates:  1,
		Records:     2,
		States:      2,
		Counties:    1,
		Purposes:    1,
		OwnerTypes:  2,
		Inserted:    2,
		Tables: store.TableCounts{
			Dams:       2,
			States:     2,
			Counties:   1,
			Purposes:   1,
			OwnerTypes: 2,
		},
	}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	tx, ok := st.dams["TX001"]
	require.True(t, ok)
	assert.Equal(t, "Lake Dam", *tx.Name, "first occurrence wins over the duplicate")
	require.NotNil(t, tx.StateID)
	assert.Equal(t, st.states["Texas"], *tx.StateID)
	require.NotNil(t, tx.CountyID)
	assert.Equal(t, st.counties["texas-travis"], *tx.CountyID)
	require.NotNil(t, tx.PrimaryPurposeID)
	require.NotNil(t, tx.PrimaryOwnerTypeID)

	oh, ok := st.dams["OH002"]
	require.True(t, ok)
	require.NotNil(t, oh.StateID)
	assert.Nil(t, oh.CountyID, "no county in the export, no foreign key")
	assert.Nil(t, oh.PrimaryPurposeID)

	assert.Equal(t, [2]int64{1, 1}, st.stateCounts[st.states["Texas"]])
	assert.Equal(t, [2]int64{1, 0}, st.stateCounts[st.states["Ohio"]])
	assert.Equal(t, int64(1), st.countyCounts[st.counties["texas-travis"]])
	assert.Equal(t, int64(2), st.ownerTypeCounts[st.ownerTypes["Private"]]+st.ownerTypeCounts[st.ownerTypes["Local Government"]])

	assert.Equal(t, int64(2), st.metaCount)
	assert.Equal(t, time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC), st.metaAt)
}

func TestPipeline_Run_Idempotent(t *testing.T) {
	st := newMockStore()
	p := newPipeline(t, st, 500)

	first, err := p.Run(context.Background(), testFile())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), testFile())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run diverged (-first +second):\n%s", diff)
	}
	assert.Len(t, st.dams, 2, "re-running must not grow the primary table")
	assert.Equal(t, [2]int64{1, 1}, st.stateCounts[st.states["Texas"]])
}

func TestPipeline_Run_BatchFailureIsRecovered(t *testing.T) {
	st := newMockStore()
	st.failBatch = 1
	p := newPipeline(t, st, 1)

	sum, err := p.Run(context.Background(), testFile())
	require.NoError(t, err, "a failed batch must not abort the run")

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Inserted)
	assert.Len(t, st.dams, 1, "the second batch still landed")
}

func TestPipeline_Run_LookupFailureLeavesKeyNil(t *testing.T) {
	st := newMockStore()
	st.failStateName = "Ohio"
	p := newPipeline(t, st, 500)

	file := testFile()
	// Give the Ohio record a county so the unresolved-state skip is exercised.
	file.Rows[2] = rowWith(map[string]string{
		"NID ID": "OH002",
		"State":  "Ohio",
		"County": "Licking",
	})

	sum, err := p.Run(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.LookupErrors)
	assert.Equal(t, 1, sum.States, "only Texas resolved")
	assert.Equal(t, 1, sum.Counties, "a county under an unresolved state is skipped")
	assert.Equal(t, 2, sum.Inserted, "the record itself still loads")

	oh := st.dams["OH002"]
	assert.Nil(t, oh.StateID)
	assert.Nil(t, oh.CountyID)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	st := newMockStore()
	p := newPipeline(t, st, 500)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, testFile())
	require.ErrorIs(t, err, context.Canceled)
}
