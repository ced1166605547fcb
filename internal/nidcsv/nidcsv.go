// Package nidcsv tokenizes the NID nationwide CSV export.
//
// The export is not quite RFC 4180: the first line is a metadata banner, the
// second is the header row, and the rest are data rows. ParseLine reproduces
// the upstream convention exactly: commas split fields unless enclosed in
// double quotes, a doubled quote inside a quoted field is a literal quote,
// and malformed quoting is handled permissively: an unterminated quote simply
// runs to the end of the line, producing a best-effort last field. The source
// is a fixed, trusted dataset, so the parser never errors on a line.
// encoding/csv is not usable here; it rejects bare quotes mid-field and has
// no notion of the leading metadata line.
package nidcsv

import (
	"fmt"
	"os"
	"strings"
)

// File is a fully parsed NID export: the header-name→column-index map and
// every data row as a field slice.
type File struct {
	Header map[string]int
	Rows   [][]string
}

// ParseLine splits one line into fields, honoring double-quote escaping and
// embedded commas. Fields are whitespace-trimmed. Never errors.
func ParseLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

// Parse reads a whole export from raw file content: line 0 is the metadata
// banner (ignored), line 1 the header row, lines 2..N the data rows. Blank
// lines are dropped. Errors only when the content is too short to contain a
// header.
func Parse(content string) (*File, error) {
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("nidcsv: %d non-blank lines, need metadata line and header", len(lines))
	}

	headers := ParseLine(lines[1])
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}

	rows := make([][]string, 0, len(lines)-2)
	for _, l := range lines[2:] {
		rows = append(rows, ParseLine(l))
	}

	return &File{Header: index, Rows: rows}, nil
}

// ReadFile loads and parses the export at path.
func ReadFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("nidcsv: read %s: %w", path, err)
	}
	return Parse(string(content))
}
