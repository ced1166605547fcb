package domain

import (
	"errors"
	"strings"
)

// MinColumns is the defensive floor for a plausible data row. Rows shorter
// than this are truncated lines, not dams.
const MinColumns = 10

var (
	// ErrTooFewColumns marks a row below the MinColumns floor.
	ErrTooFewColumns = errors.New("row has too few columns")
	// ErrMissingNIDID marks a row with no natural key after cleaning.
	ErrMissingNIDID = errors.New("row has no NID ID")
)

// columnSpec binds one source header name to the coercer that populates the
// matching Record attribute. Renaming a column upstream is a one-line change
// here.
type columnSpec struct {
	header string
	set    func(r *Record, raw string)
}

var columns = []columnSpec{
	// Identification.
	{"NID ID", func(r *Record, v string) {
		if s := CleanString(v); s != nil {
			r.NIDID = *s
		}
	}},
	{"Dam Name", func(r *Record, v string) { r.Name = CleanString(v) }},
	{"Other Names", func(r *Record, v string) { r.OtherNames = CleanString(v) }},
	{"Former Names", func(r *Record, v string) { r.FormerNames = CleanString(v) }},
	{"Federal ID", func(r *Record, v string) { r.FederalID = CleanString(v) }},

	// Location.
	{"Latitude", func(r *Record, v string) { r.Latitude = ParseNumber(v) }},
	{"Longitude", func(r *Record, v string) { r.Longitude = ParseNumber(v) }},
	{"State", func(r *Record, v string) { r.State = CleanString(v) }},
	{"County", func(r *Record, v string) { r.County = CleanString(v) }},
	{"City", func(r *Record, v string) { r.City = CleanString(v) }},
	{"Distance to Nearest City (Miles)", func(r *Record, v string) { r.DistanceToCity = ParseNumber(v) }},
	{"River or Stream Name", func(r *Record, v string) { r.RiverName = CleanString(v) }},
	{"Congressional District", func(r *Record, v string) { r.CongressionalDistrict = CleanString(v) }},
	{"American Indian/Alaska Native/Native Hawaiian", func(r *Record, v string) { r.TribalLand = CleanString(v) }},

	// Ownership.
	{"Owner Names", func(r *Record, v string) { r.OwnerNames = CleanString(v) }},
	{"Owner Types", func(r *Record, v string) { r.OwnerTypes = CleanString(v) }},
	{"Primary Owner Type", func(r *Record, v string) { r.PrimaryOwnerType = CleanString(v) }},
	{"Non-Federal Dam on Federal Property", func(r *Record, v string) { r.NonFederalOnFedLnd = ParseBoolean(v) }},

	// Purpose.
	{"Primary Purpose", func(r *Record, v string) { r.PrimaryPurpose = CleanString(v) }},
	{"Purposes", func(r *Record, v string) { r.Purposes = CleanString(v) }},

	// Source.
	{"Source Agency", func(r *Record, v string) { r.SourceAgency = CleanString(v) }},
	{"State or Federal Agency ID", func(r *Record, v string) { r.StateAgencyID = CleanString(v) }},

	// Physical characteristics.
	{"Primary Dam Type", func(r *Record, v string) { r.PrimaryDamType = CleanString(v) }},
	{"Dam Types", func(r *Record, v string) { r.DamTypes = CleanString(v) }},
	{"Core Types", func(r *Record, v string) { r.CoreTypes = CleanString(v) }},
	{"Foundation", func(r *Record, v string) { r.Foundation = CleanString(v) }},
	{"Dam Height (Ft)", func(r *Record, v string) { r.DamHeightFt = ParseNumber(v) }},
	{"Hydraulic Height (Ft)", func(r *Record, v string) { r.HydraulicHeightFt = ParseNumber(v) }},
	{"Structural Height (Ft)", func(r *Record, v string) { r.StructuralHeightFt = ParseNumber(v) }},
	{"NID Height (Ft)", func(r *Record, v string) { r.NIDHeightFt = ParseNumber(v) }},
	{"NID Height Category", func(r *Record, v string) { r.NIDHeightCategory = CleanString(v) }},
	{"Dam Length (Ft)", func(r *Record, v string) { r.DamLengthFt = ParseNumber(v) }},
	{"Volume (Cubic Yards)", func(r *Record, v string) { r.VolumeCubicYards = ParseNumber(v) }},

	// Dates.
	{"Year Completed", func(r *Record, v string) { r.YearCompleted = ParseNumber(v) }},
	{"Year Completed Category", func(r *Record, v string) { r.YearCompletedCategory = CleanString(v) }},
	{"Years Modified", func(r *Record, v string) { r.YearsModified = CleanString(v) }},
	{"Data Last Updated", func(r *Record, v string) { r.DataLastUpdated = ParseDate(v) }},

	// Storage and hydrology.
	{"NID Storage (Acre-Ft)", func(r *Record, v string) { r.NIDStorageAcreFt = ParseNumber(v) }},
	{"Max Storage (Acre-Ft)", func(r *Record, v string) { r.MaxStorageAcreFt = ParseNumber(v) }},
	{"Normal Storage (Acre-Ft)", func(r *Record, v string) { r.NormalStorageAcreFt = ParseNumber(v) }},
	{"Surface Area (Acres)", func(r *Record, v string) { r.SurfaceAreaAcres = ParseNumber(v) }},
	{"Drainage Area (Sq Miles)", func(r *Record, v string) { r.DrainageAreaSqMiles = ParseNumber(v) }},

	// Spillway.
	{"Max Discharge (Cubic Ft/Second)", func(r *Record, v string) { r.MaxDischargeCfs = ParseNumber(v) }},
	{"Spillway Type", func(r *Record, v string) { r.SpillwayType = CleanString(v) }},
	{"Spillway Width (Ft)", func(r *Record, v string) { r.SpillwayWidthFt = ParseNumber(v) }},
	{"Outlet Gate Type", func(r *Record, v string) { r.OutletGateType = CleanString(v) }},

	// Locks.
	{"Number of Locks", func(r *Record, v string) { r.NumberOfLocks = ParseNumber(v) }},
	{"Length of Locks (ft)", func(r *Record, v string) { r.LockLengthFt = ParseNumber(v) }},
	{"Lock Width (Ft)", func(r *Record, v string) { r.LockWidthFt = ParseNumber(v) }},

	// Regulation.
	{"State Regulated Dam", func(r *Record, v string) { r.StateRegulated = ParseBoolean(v) }},
	{"State Jurisdictional Dam", func(r *Record, v string) { r.StateJurisdictional = ParseBoolean(v) }},
	{"State Regulatory Agency", func(r *Record, v string) { r.StateRegulatoryAgy = CleanString(v) }},
	{"Federally Regulated Dam", func(r *Record, v string) { r.FederallyRegulated = ParseBoolean(v) }},

	// Safety.
	{"Hazard Potential Classification", func(r *Record, v string) { r.HazardPotential = CleanString(v) }},
	{"Condition Assessment", func(r *Record, v string) { r.ConditionAssessment = CleanString(v) }},
	{"Condition Assessment Date", func(r *Record, v string) { r.ConditionAssessmentDate = ParseDate(v) }},
	{"Last Inspection Date", func(r *Record, v string) { r.LastInspectionDate = ParseDate(v) }},
	{"Inspection Frequency", func(r *Record, v string) { r.InspectionFrequency = ParseNumber(v) }},
	{"Operational Status", func(r *Record, v string) { r.OperationalStatus = CleanString(v) }},

	// Emergency action plan.
	{"EAP Prepared", func(r *Record, v string) { r.EAPPrepared = CleanString(v) }},
	{"EAP Last Revision Date", func(r *Record, v string) { r.EAPLastRevision = ParseDate(v) }},
	{"Inundation Maps Added to NID?", func(r *Record, v string) { r.InundationMapsNID = ParseBoolean(v) }},

	// Meta.
	{"Website URL", func(r *Record, v string) { r.WebsiteURL = CleanString(v) }},
}

// Headers returns every source column name the mapper reads, in table order.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

// Mapper turns parsed field slices into Records using a header-name→index
// lookup, so it is resilient to column reordering but deliberately brittle
// to header renames (the upstream contract is the header names themselves).
type Mapper struct {
	index map[string]int
}

// NewMapper creates a Mapper over the given header-name→column-index map.
func NewMapper(header map[string]int) *Mapper {
	return &Mapper{index: header}
}

// MapRow builds a Record from one parsed row. It returns ErrTooFewColumns
// for rows below the MinColumns floor and ErrMissingNIDID when the natural
// key is absent after cleaning; both are skip conditions, not fatal errors.
func (m *Mapper) MapRow(fields []string) (Record, error) {
	if len(fields) < MinColumns {
		return Record{}, ErrTooFewColumns
	}

	var r Record
	for _, c := range columns {
		idx, ok := m.index[c.header]
		if !ok || idx >= len(fields) {
			continue
		}
		c.set(&r, fields[idx])
	}

	if r.NIDID == "" {
		return Record{}, ErrMissingNIDID
	}

	r.Slug = damSlug(r)
	r.IngestedAt = clock.Now()
	return r, nil
}

// damSlug derives the record slug: slugified name (or "dam" when the name is
// missing) joined with the lower-cased NID ID. Including the natural key
// guarantees uniqueness across records.
func damSlug(r Record) string {
	namePart := "dam"
	if r.Name != nil {
		namePart = Slugify(*r.Name)
	}
	return namePart + "-" + strings.ToLower(r.NIDID)
}
