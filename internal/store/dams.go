package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tidegate/nid-etl/internal/domain"
)

// damColumns lists every dams column the loader writes, in the order
// damValues produces them. The two must stay in lockstep; a unit test
// enforces it.
var damColumns = []string{
	"nid_id", "slug", "name", "other_names", "former_names", "federal_id",
	"latitude", "longitude", "state", "county", "city", "distance_to_city",
	"river_name", "congressional_district", "tribal_land",
	"owner_names", "owner_types", "primary_owner_type", "non_federal_on_federal",
	"primary_purpose", "purposes",
	"source_agency", "state_agency_id",
	"primary_dam_type", "dam_types", "core_types", "foundation",
	"dam_height_ft", "hydraulic_height_ft", "structural_height_ft",
	"nid_height_ft", "nid_height_category", "dam_length_ft", "volume_cubic_yards",
	"year_completed", "year_completed_category", "years_modified", "data_last_updated",
	"nid_storage_acre_ft", "max_storage_acre_ft", "normal_storage_acre_ft",
	"surface_area_acres", "drainage_area_sq_miles",
	"max_discharge_cfs", "spillway_type", "spillway_width_ft", "outlet_gate_type",
	"number_of_locks", "lock_length_ft", "lock_width_ft",
	"state_regulated", "state_jurisdictional", "state_regulatory_agency", "federally_regulated",
	"hazard_potential", "condition_assessment", "condition_assessment_date",
	"last_inspection_date", "inspection_frequency", "operational_status",
	"eap_prepared", "eap_last_revision", "inundation_maps_in_nid",
	"website_url", "ingested_at",
	"state_id", "county_id", "primary_purpose_id", "primary_owner_type_id",
}

// damValues flattens a record into positional arguments matching damColumns.
func damValues(r domain.Record) []any {
	return []any{
		r.NIDID, r.Slug, r.Name, r.OtherNames, r.FormerNames, r.FederalID,
		r.Latitude, r.Longitude, r.State, r.County, r.City, r.DistanceToCity,
		r.RiverName, r.CongressionalDistrict, r.TribalLand,
		r.OwnerNames, r.OwnerTypes, r.PrimaryOwnerType, r.NonFederalOnFedLnd,
		r.PrimaryPurpose, r.Purposes,
		r.SourceAgency, r.StateAgencyID,
		r.PrimaryDamType, r.DamTypes, r.CoreTypes, r.Foundation,
		r.DamHeightFt, r.HydraulicHeightFt, r.StructuralHeightFt,
		r.NIDHeightFt, r.NIDHeightCategory, r.DamLengthFt, r.VolumeCubicYards,
		r.YearCompleted, r.YearCompletedCategory, r.YearsModified, r.DataLastUpdated,
		r.NIDStorageAcreFt, r.MaxStorageAcreFt, r.NormalStorageAcreFt,
		r.SurfaceAreaAcres, r.DrainageAreaSqMiles,
		r.MaxDischargeCfs, r.SpillwayType, r.SpillwayWidthFt, r.OutletGateType,
		r.NumberOfLocks, r.LockLengthFt, r.LockWidthFt,
		r.StateRegulated, r.StateJurisdictional, r.StateRegulatoryAgy, r.FederallyRegulated,
		r.HazardPotential, r.ConditionAssessment, r.ConditionAssessmentDate,
		r.LastInspectionDate, r.InspectionFrequency, r.OperationalStatus,
		r.EAPPrepared, r.EAPLastRevision, r.InundationMapsNID,
		r.WebsiteURL, r.IngestedAt,
		r.StateID, r.CountyID, r.PrimaryPurposeID, r.PrimaryOwnerTypeID,
	}
}

// damUpsertSQL is built once from damColumns: insert every column, and on a
// nid_id conflict overwrite the existing row in place.
var damUpsertSQL = buildDamUpsertSQL()

func buildDamUpsertSQL() string {
	placeholders := make([]string, len(damColumns))
	updates := make([]string, 0, len(damColumns))
	for i, col := range damColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col == "nid_id" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return fmt.Sprintf(
		"INSERT INTO dams (%s) VALUES (%s) ON CONFLICT (nid_id) DO UPDATE SET %s",
		strings.Join(damColumns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

// UpsertDams writes one batch of records as a single pgx batch round trip,
// upserting each on nid_id. The batch succeeds or fails as a unit; the
// caller attributes the failure to the batch and carries on.
func (s *Store) UpsertDams(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(damUpsertSQL, damValues(r)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upsert dams batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close dams batch: %w", err)
	}
	return nil
}
