// Package domain models National Inventory of Dams (NID) records.
//
// # Data Source
//
// Records originate from the US Army Corps of Engineers National Inventory
// of Dams nationwide CSV export (https://nid.sec.usace.army.mil/api/nation/csv),
// roughly 91,000 rows. The file has a fixed structural convention: the first
// line is a metadata banner (ignored), the second line is the quoted header
// row, and every following line is one dam. See package nidcsv for the
// tokenizer.
//
// # NID Data Conventions
//
// Missing values:
//
//	"N/A" is the NID sentinel for unreported values; empty fields mean the
//	same thing. Both coerce to nil, never to a zero value — in particular a
//	boolean column with no data is nil, not false.
//
// Dates:
//
//	M/D/YYYY or MM/DD/YYYY, e.g. "3/7/2019". Reformatted to ISO "2019-03-07"
//	at parse time. Any other shape yields nil; no partial-date inference.
//
// Numbers:
//
//	Plain decimals, sometimes with thousands separators ("1,234.5"). Commas
//	are stripped before parsing. Unparseable values yield nil.
//
// Booleans:
//
//	"Yes"/"True" (any case) are affirmative. Any other non-sentinel token,
//	e.g. "No", is false. Sentinel or empty is nil.
//
// Hazard potential classification:
//
//	One of "High", "Significant", "Low", "Undetermined", or absent. It
//	describes the consequence of a failure, not structural condition.
//
// # Identity and Slugs
//
// The NID ID is the government-assigned natural key, unique across the
// inventory and stable across exports. Each record derives a URL slug from
// the slugified dam name (or the literal "dam" when the name is missing)
// joined with the lower-cased NID ID. Because the NID ID is unique the slug
// is unique without a database round-trip, and re-ingesting the same export
// produces the same slug, which is what makes upserts on slug and nid_id
// idempotent.
package domain
