package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/tidegate/nid-etl/internal/adapter/http"
	"github.com/tidegate/nid-etl/internal/store"
)

// mockReader serves canned rows and records the arguments it was called with.
type mockReader struct {
	dams    []store.DamSummary
	detail  store.DamDetail
	states  []store.LookupRow
	stats   store.Stats
	err     error
	notFind bool

	gotFilter store.DamFilter
	gotQuery  string
	gotLimit  int
}

func (m *mockReader) DamBySlug(_ context.Context, slug string) (store.DamDetail, error) {
	if m.notFind {
		return store.DamDetail{}, store.ErrNotFound
	}
	return m.detail, m.err
}

func (m *mockReader) ListDams(_ context.Context, f store.DamFilter, limit int) ([]store.DamSummary, error) {
	m.gotFilter = f
	m.gotLimit = limit
	return m.dams, m.err
}

func (m *mockReader) SearchDams(_ context.Context, query string, limit int) ([]store.DamSummary, error) {
	m.gotQuery = query
	m.gotLimit = limit
	return m.dams, m.err
}

func (m *mockReader) ListStates(_ context.Context, limit int) ([]store.LookupRow, error) {
	m.gotLimit = limit
	return m.states, m.err
}

func (m *mockReader) ListCounties(_ context.Context, limit int) ([]store.LookupRow, error) {
	m.gotLimit = limit
	return m.states, m.err
}

func (m *mockReader) ListPurposes(_ context.Context, limit int) ([]store.LookupRow, error) {
	m.gotLimit = limit
	return m.states, m.err
}

func (m *mockReader) ListOwnerTypes(_ context.Context, limit int) ([]store.LookupRow, error) {
	m.gotLimit = limit
	return m.states, m.err
}

func (m *mockReader) Stats(context.Context) (store.Stats, error) {
	return m.stats, m.err
}

func newTestServer(reader *mockReader) *httpadapter.Server {
	return httpadapter.NewServer(":0", reader, slog.Default())
}

func get(t *testing.T, s *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func decodeResults(t *testing.T, rec *httptest.ResponseRecorder) []json.RawMessage {
	t.Helper()
	var body struct {
		Results []json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Results
}

func strPtr(s string) *string { return &s }

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(&mockReader{}), "/healthz")
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestListDams_FilterAndLimit(t *testing.T) {
	reader := &mockReader{dams: []store.DamSummary{{NIDID: "TX001", Slug: "lake-dam-tx001"}}}
	s := newTestServer(reader)

	rec := get(t, s, "/api/dams?state=Texas&hazard=High&limit=25")
	assert.Equal(t, 200, rec.Code)
	assert.Len(t, decodeResults(t, rec), 1)
	assert.Equal(t, store.DamFilter{State: "Texas", Hazard: "High"}, reader.gotFilter)
	assert.Equal(t, 25, reader.gotLimit)
}

func TestListDams_DefaultAndCappedLimit(t *testing.T) {
	reader := &mockReader{}
	s := newTestServer(reader)

	get(t, s, "/api/dams")
	assert.Equal(t, 50, reader.gotLimit)

	get(t, s, "/api/dams?limit=99999")
	assert.Equal(t, 500, reader.gotLimit)

	get(t, s, "/api/dams?limit=junk")
	assert.Equal(t, 50, reader.gotLimit)
}

func TestListDams_EmptyResultIsArray(t *testing.T) {
	rec := get(t, newTestServer(&mockReader{}), "/api/dams")
	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
}

func TestDamBySlug(t *testing.T) {
	reader := &mockReader{detail: store.DamDetail{
		DamSummary: store.DamSummary{NIDID: "TX001", Slug: "lake-dam-tx001", Name: strPtr("Lake Dam")},
	}}
	rec := get(t, newTestServer(reader), "/api/dams/lake-dam-tx001")
	assert.Equal(t, 200, rec.Code)

	var d store.DamDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "TX001", d.NIDID)
	assert.Equal(t, "Lake Dam", *d.Name)
}

func TestDamBySlug_NotFound(t *testing.T) {
	rec := get(t, newTestServer(&mockReader{notFind: true}), "/api/dams/no-such-dam")
	assert.Equal(t, 404, rec.Code)
}

func TestSearch(t *testing.T) {
	reader := &mockReader{dams: []store.DamSummary{{NIDID: "TX001"}}}
	rec := get(t, newTestServer(reader), "/api/search?q=lake")
	assert.Equal(t, 200, rec.Code)
	assert.Len(t, decodeResults(t, rec), 1)
	assert.Equal(t, "lake", reader.gotQuery)
	assert.Equal(t, 10, reader.gotLimit)
}

func TestSearch_QueryTooShort(t *testing.T) {
	reader := &mockReader{dams: []store.DamSummary{{NIDID: "TX001"}}}
	s := newTestServer(reader)

	for _, q := range []string{"", "x"} {
		rec := get(t, s, "/api/search?q="+q)
		assert.Equal(t, 200, rec.Code)
		assert.Empty(t, decodeResults(t, rec), "query %q must short-circuit", q)
		assert.Empty(t, reader.gotQuery, "the reader must not be consulted")
	}
}

func TestLookupRoutes(t *testing.T) {
	reader := &mockReader{states: []store.LookupRow{
		{Name: "Texas", Slug: "texas", DamCount: 7318, HighHazardCount: 1200},
	}}
	s := newTestServer(reader)

	for _, path := range []string{"/api/states", "/api/counties", "/api/purposes", "/api/owner-types"} {
		rec := get(t, s, path)
		require.Equal(t, 200, rec.Code, path)

		results := decodeResults(t, rec)
		require.Len(t, results, 1, path)

		var row store.LookupRow
		require.NoError(t, json.Unmarshal(results[0], &row))
		assert.Equal(t, "Texas", row.Name)
		assert.Equal(t, int64(7318), row.DamCount)
	}
}

func TestStats(t *testing.T) {
	reader := &mockReader{stats: store.Stats{TotalDams: 91000, HighHazard: 16000, SignificantHazard: 12000}}
	rec := get(t, newTestServer(reader), "/api/stats")
	assert.Equal(t, 200, rec.Code)

	var got store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(91000), got.TotalDams)
}

func TestReaderError(t *testing.T) {
	rec := get(t, newTestServer(&mockReader{err: errors.New("pool exhausted")}), "/api/dams")
	assert.Equal(t, 500, rec.Code)
	assert.JSONEq(t, `{"error":"query failed"}`, rec.Body.String())
}
