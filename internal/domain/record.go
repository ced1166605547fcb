package domain

import "time"

// Hazard potential classification values as they appear in the NID export.
const (
	HazardHigh         = "High"
	HazardSignificant  = "Significant"
	HazardLow          = "Low"
	HazardUndetermined = "Undetermined"
)

// Record is one dam from the NID export after coercion. Pointer fields are
// nullable: nil means the source reported "N/A" or left the column empty.
type Record struct {
	// Identification.
	NIDID       string
	Name        *string
	OtherNames  *string
	FormerNames *string
	FederalID   *string
	Slug        string

	// Location.
	Latitude              *float64
	Longitude             *float64
	State                 *string
	County                *string
	City                  *string
	DistanceToCity        *float64
	RiverName             *string
	CongressionalDistrict *string
	TribalLand            *string

	// Ownership.
	OwnerNames         *string
	OwnerTypes         *string
	PrimaryOwnerType   *string
	NonFederalOnFedLnd *bool

	// Purpose.
	PrimaryPurpose *string
	Purposes       *string

	// Source.
	SourceAgency  *string
	StateAgencyID *string

	// Physical characteristics.
	PrimaryDamType     *string
	DamTypes           *string
	CoreTypes          *string
	Foundation         *string
	DamHeightFt        *float64
	HydraulicHeightFt  *float64
	StructuralHeightFt *float64
	NIDHeightFt        *float64
	NIDHeightCategory  *string
	DamLengthFt        *float64
	VolumeCubicYards   *float64

	// Dates.
	YearCompleted         *float64
	YearCompletedCategory *string
	YearsModified         *string
	DataLastUpdated       *string

	// Storage and hydrology.
	NIDStorageAcreFt    *float64
	MaxStorageAcreFt    *float64
	NormalStorageAcreFt *float64
	SurfaceAreaAcres    *float64
	DrainageAreaSqMiles *float64

	// Spillway.
	MaxDischargeCfs *float64
	SpillwayType    *string
	SpillwayWidthFt *float64
	OutletGateType  *string

	// Locks.
	NumberOfLocks *float64
	LockLengthFt  *float64
	LockWidthFt   *float64

	// Regulation.
	StateRegulated      *bool
	StateJurisdictional *bool
	StateRegulatoryAgy  *string
	FederallyRegulated  *bool

	// Safety.
	HazardPotential         *string
	ConditionAssessment     *string
	ConditionAssessmentDate *string
	LastInspectionDate      *string
	InspectionFrequency     *float64
	OperationalStatus       *string

	// Emergency action plan.
	EAPPrepared       *string
	EAPLastRevision   *string
	InundationMapsNID *bool

	// Meta.
	WebsiteURL *string
	IngestedAt time.Time

	// Surrogate keys attached by foreign-key resolution. Nil until resolved,
	// and nil when the display value is missing or its lookup upsert failed.
	StateID            *int64
	CountyID           *int64
	PrimaryPurposeID   *int64
	PrimaryOwnerTypeID *int64
}

// CountyKey joins a state and county display name into the compound key used
// for county lookups. County names alone are not unique nationally (there are
// 30+ Washington Counties), so the state is always part of the key.
func CountyKey(state, county string) string {
	return state + "|" + county
}
