package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// sentinel is the NID token for "not available". Treated the same as an
// empty field by every coercer.
const sentinel = "N/A"

// maxSlugLen bounds slug length to keep URLs and index entries small.
const maxSlugLen = 200

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
	edgeDashRe = regexp.MustCompile(`^-+|-+$`)

	// dateRe matches the NID's M/D/YYYY date shape, e.g. "3/7/2019".
	dateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// CleanString trims whitespace and returns nil for empty or sentinel input.
func CleanString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || v == sentinel {
		return nil
	}
	return &v
}

// ParseNumber parses a float after stripping thousands-separator commas.
// Returns nil for empty, sentinel, or unparseable input.
func ParseNumber(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" || v == sentinel {
		return nil
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &n
}

// ParseDate reformats an M/D/YYYY date to ISO YYYY-MM-DD. Any other shape
// yields nil; there is no partial-date inference.
func ParseDate(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || v == sentinel {
		return nil
	}
	m := dateRe.FindStringSubmatch(v)
	if m == nil {
		return nil
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	iso := fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
	return &iso
}

// ParseBoolean maps "yes"/"true" (any case) to true and any other
// non-sentinel token to false. Empty or sentinel input is nil; absence of
// data is not a negative answer.
func ParseBoolean(v string) *bool {
	v = strings.TrimSpace(v)
	if v == "" || v == sentinel {
		return nil
	}
	b := strings.EqualFold(v, "yes") || strings.EqualFold(v, "true")
	return &b
}

// Slugify lower-cases, collapses runs of non-alphanumeric characters to a
// single hyphen, trims edge hyphens, and truncates to 200 characters.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, "-")
	s = edgeDashRe.ReplaceAllString(s, "")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}
