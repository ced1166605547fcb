package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegate/nid-etl/internal/domain"
)

// headerIndex builds the header-name→index map the mapper expects, in the
// mapper's own column order.
func headerIndex() map[string]int {
	idx := map[string]int{}
	for i, h := range domain.Headers() {
		idx[h] = i
	}
	return idx
}

// rowWith produces a full-width row with the given header→value overrides.
func rowWith(values map[string]string) []string {
	headers := domain.Headers()
	row := make([]string, len(headers))
	for i, h := range headers {
		row[i] = values[h]
	}
	return row
}

func TestMapRow(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	m := domain.NewMapper(headerIndex())
	r, err := m.MapRow(rowWith(map[string]string{
		"NID ID":                          "TX00123",
		"Dam Name":                        "Lake Travis Dam",
		"State":                           "Texas",
		"County":                          "Travis",
		"Latitude":                        "30.3894",
		"Longitude":                       "-97.9053",
		"Dam Height (Ft)":                 "266",
		"Volume (Cubic Yards)":            "1,550,000",
		"Data Last Updated":               "7/18/2023",
		"Hazard Potential Classification": "High",
		"State Regulated Dam":             "Yes",
		"Federally Regulated Dam":         "N/A",
		"Primary Purpose":                 "Flood Risk Reduction",
	}))
	require.NoError(t, err)

	assert.Equal(t, "TX00123", r.NIDID)
	assert.Equal(t, "lake-travis-dam-tx00123", r.Slug)
	require.NotNil(t, r.Name)
	assert.Equal(t, "Lake Travis Dam", *r.Name)
	require.NotNil(t, r.State)
	assert.Equal(t, "Texas", *r.State)
	require.NotNil(t, r.Latitude)
	assert.InDelta(t, 30.3894, *r.Latitude, 1e-9)
	require.NotNil(t, r.DamHeightFt)
	assert.InDelta(t, 266, *r.DamHeightFt, 1e-9)
	require.NotNil(t, r.VolumeCubicYards)
	assert.InDelta(t, 1550000, *r.VolumeCubicYards, 1e-9)
	require.NotNil(t, r.DataLastUpdated)
	assert.Equal(t, "2023-07-18", *r.DataLastUpdated)
	require.NotNil(t, r.HazardPotential)
	assert.Equal(t, domain.HazardHigh, *r.HazardPotential)
	require.NotNil(t, r.StateRegulated)
	assert.True(t, *r.StateRegulated)
	assert.Nil(t, r.FederallyRegulated, "N/A must map to nil, not false")
	assert.Nil(t, r.City)
	assert.Equal(t, time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC), r.IngestedAt)

	// Foreign keys are not the mapper's business.
	assert.Nil(t, r.StateID)
	assert.Nil(t, r.CountyID)
}

func TestMapRow_SlugFallsBackWhenNameMissing(t *testing.T) {
	m := domain.NewMapper(headerIndex())
	r, err := m.MapRow(rowWith(map[string]string{"NID ID": "OH002"}))
	require.NoError(t, err)
	assert.Equal(t, "dam-oh002", r.Slug)
	assert.Nil(t, r.Name)
}

func TestMapRow_TooFewColumns(t *testing.T) {
	m := domain.NewMapper(headerIndex())
	_, err := m.MapRow([]string{"TX001", "Lake Dam", "Texas", "Travis"})
	assert.ErrorIs(t, err, domain.ErrTooFewColumns)
}

func TestMapRow_MissingNIDID(t *testing.T) {
	m := domain.NewMapper(headerIndex())
	for _, raw := range []string{"", "N/A", "   "} {
		_, err := m.MapRow(rowWith(map[string]string{"NID ID": raw, "Dam Name": "Nameless"}))
		assert.ErrorIs(t, err, domain.ErrMissingNIDID, "NID ID %q", raw)
	}
}

// Distinct natural keys always derive distinct slugs, even for identical
// names, because the key is part of the slug.
func TestMapRow_SlugUniquePerNIDID(t *testing.T) {
	m := domain.NewMapper(headerIndex())
	seen := map[string]string{}
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("TX%05d", i)
		r, err := m.MapRow(rowWith(map[string]string{"NID ID": id, "Dam Name": "Lake Dam"}))
		require.NoError(t, err)
		prev, dup := seen[r.Slug]
		require.False(t, dup, "slug %q already derived for %s", r.Slug, prev)
		seen[r.Slug] = id
	}
}

// The mapper reads columns by header name, so a reordered export maps
// identically.
func TestMapRow_ResilientToColumnReordering(t *testing.T) {
	idx := map[string]int{"State": 0, "Dam Name": 1, "NID ID": 2}
	m := domain.NewMapper(idx)

	r, err := m.MapRow([]string{"Texas", "Lake Dam", "TX001", "", "", "", "", "", "", ""})
	require.NoError(t, err)
	assert.Equal(t, "TX001", r.NIDID)
	require.NotNil(t, r.State)
	assert.Equal(t, "Texas", *r.State)
}

func TestHeaders_ContainsExternalContract(t *testing.T) {
	headers := domain.Headers()
	set := map[string]bool{}
	for _, h := range headers {
		require.False(t, set[h], "duplicate header %q", h)
		set[h] = true
	}

	// Spot-check the load-bearing names from the upstream contract.
	for _, h := range []string{
		"NID ID", "Dam Name", "State", "County", "Primary Purpose",
		"Primary Owner Type", "Hazard Potential Classification",
		"Dam Height (Ft)", "NID Storage (Acre-Ft)",
	} {
		assert.True(t, set[h], "missing header %q", h)
	}
}
