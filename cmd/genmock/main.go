// Command genmock writes a synthetic NID-format CSV export for tests and
// local runs. The output follows the real export's structure (a metadata
// banner, a quoted header row, then data rows) and deliberately includes
// the awkward cases the pipeline must handle: embedded commas and quotes in
// names, N/A sentinels, a duplicate NID ID, and a truncated row.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/nation.csv -rows 200
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/tidegate/nid-etl/internal/domain"
)

var states = []struct {
	name     string
	counties []string
}{
	{"Texas", []string{"Travis", "Harris", "Washington"}},
	{"Ohio", []string{"Franklin", "Licking"}},
	{"California", []string{"Kern", "Fresno"}},
	{"Georgia", []string{"Fulton", "Washington"}},
}

var purposes = []string{"Recreation", "Flood Risk Reduction", "Irrigation", "Water Supply", "N/A"}
var ownerTypes = []string{"Private", "Local Government", "Federal", "State"}
var hazards = []string{domain.HazardHigh, domain.HazardSignificant, domain.HazardLow, domain.HazardUndetermined, ""}

func main() {
	out := flag.String("out", "", "output path for the generated CSV (required)")
	rows := flag.Int("rows", 200, "number of well-formed data rows")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		log.Fatal("missing required flag: -out")
	}

	if err := run(*out, *rows); err != nil {
		log.Fatal(err)
	}
}

func run(out string, rows int) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	headers := domain.Headers()

	fmt.Fprintln(w, "National Inventory of Dams - synthetic fixture - not real data")
	writeRow(w, headers)

	for i := 0; i < rows; i++ {
		writeRow(w, rowFor(i, headers))
	}

	// One duplicate NID ID with a different name; the pipeline must keep the
	// first occurrence.
	dup := rowValues(0)
	dup["Dam Name"] = "Duplicate Of Row Zero"
	writeRow(w, orderValues(dup, headers))

	// One truncated row, below the column floor.
	fmt.Fprintln(w, "XX99999,Truncated,Row,Fixture")

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", out, err)
	}

	log.Printf("wrote %d data rows (+1 duplicate, +1 malformed) to %s", rows, out)
	return nil
}

func rowFor(i int, headers []string) []string {
	return orderValues(rowValues(i), headers)
}

// rowValues produces a deterministic row keyed by header name. Every column
// the mapper reads gets a value; unlisted columns stay empty.
func rowValues(i int) map[string]string {
	st := states[i%len(states)]
	county := st.counties[i%len(st.counties)]
	nid := fmt.Sprintf("%s%05d", strings.ToUpper(st.name[:2]), i)

	name := fmt.Sprintf("Reservoir %d Dam", i)
	switch i % 10 {
	case 3:
		name = fmt.Sprintf("Smith, John Memorial Dam %d", i)
	case 7:
		name = fmt.Sprintf(`The "Old Mill" Dam %d`, i)
	}

	v := map[string]string{
		"NID ID":                          nid,
		"Dam Name":                        name,
		"State":                           st.name,
		"County":                          county,
		"City":                            "Riverton",
		"Latitude":                        fmt.Sprintf("%.4f", 30.0+float64(i%900)/100),
		"Longitude":                       fmt.Sprintf("%.4f", -95.0-float64(i%900)/100),
		"River or Stream Name":            "Clear Creek",
		"Owner Names":                     "Example Water Authority",
		"Primary Owner Type":              ownerTypes[i%len(ownerTypes)],
		"Primary Purpose":                 purposes[i%len(purposes)],
		"Source Agency":                   st.name,
		"Primary Dam Type":                "Earth",
		"Dam Height (Ft)":                 fmt.Sprintf("%d", 20+i%80),
		"Dam Length (Ft)":                 fmt.Sprintf("%d", 300+i%2000),
		"Volume (Cubic Yards)":            "1,200",
		"Year Completed":                  fmt.Sprintf("%d", 1930+i%90),
		"Data Last Updated":               "3/7/2023",
		"NID Storage (Acre-Ft)":           fmt.Sprintf("%d", 100+i*7%5000),
		"Max Storage (Acre-Ft)":           fmt.Sprintf("%d", 200+i*9%9000),
		"Drainage Area (Sq Miles)":        fmt.Sprintf("%.1f", 1.0+float64(i%50)),
		"State Regulated Dam":             []string{"Yes", "No", "N/A"}[i%3],
		"Federally Regulated Dam":         []string{"No", "Yes", ""}[i%3],
		"Hazard Potential Classification": hazards[i%len(hazards)],
		"Condition Assessment":            []string{"Satisfactory", "Fair", "Poor", "N/A"}[i%4],
		"Last Inspection Date":            []string{"6/15/2022", "12/1/2021", "N/A"}[i%3],
		"Inspection Frequency":            "5",
		"Operational Status":              "Operational",
		"EAP Prepared":                    []string{"Yes", "No", "Not Required"}[i%3],
	}
	return v
}

func orderValues(v map[string]string, headers []string) []string {
	row := make([]string, len(headers))
	for i, h := range headers {
		row[i] = v[h]
	}
	return row
}

// writeRow emits one CSV line, quoting fields that contain commas or quotes
// and doubling embedded quotes, matching the upstream export's convention.
func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		if strings.ContainsAny(f, `",`) {
			w.WriteByte('"')
			w.WriteString(strings.ReplaceAll(f, `"`, `""`))
			w.WriteByte('"')
		} else {
			w.WriteString(f)
		}
	}
	w.WriteByte('\n')
}
