// Package normalize turns raw CSV rows into canonical Records.
//
// Government groundwater exports disagree on header spelling and carry sparse
// columns, so each logical field is resolved through an ordered alias list and
// a malformed cell never aborts the batch; it degrades to the field's default.
package normalize

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"groundwater-platform/internal/models"
)

// Alias lists per logical field, most specific first. Matching against
// headers is case-insensitive; the first alias present with a non-empty cell
// wins.
var (
	stateAliases    = []string{"state", "state/ut", "st_nm", "state_name", "region"}
	districtAliases = []string{"district", "dist_name", "district_name", "assessment unit"}
	levelAliases    = []string{"water_level", "water level (m)", "level", "gw_level"}
	wellsAliases    = []string{"wells", "no of wells", "num_wells", "well_count"}
	dateAliases     = []string{"date", "observation_date", "recorded_on", "timestamp"}
)

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"Jan 2, 2006",
	"20060102",
}

// ParseNumber coerces a raw cell to a float: thousands separators stripped,
// whitespace trimmed. Anything that does not parse to a finite number is
// absent, reported as nil.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseWells coerces a well count. Unlike other numerics it defaults to 0
// rather than nil: well counts participate in downstream arithmetic and must
// never be null.
func ParseWells(s string) int {
	v := ParseNumber(s)
	if v == nil {
		return 0
	}
	return int(*v)
}

// ParseDate parses a date cell leniently. Unparseable input yields nil, never
// an error.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Row is a raw CSV row keyed by column name, as read from the source export.
type Row map[string]string

// lookup returns the first alias present in the row with a non-empty value.
// Header comparison is case-insensitive and trims stray whitespace.
func lookup(row Row, aliases []string) (string, bool) {
	for _, alias := range aliases {
		for header, value := range row {
			if strings.EqualFold(strings.TrimSpace(header), alias) {
				if v := strings.TrimSpace(value); v != "" {
					return v, true
				}
			}
		}
	}
	return "", false
}

// consumedBy reports whether a header feeds one of the logical fields, so it
// is excluded from the free-form metric map.
func consumedBy(header string) bool {
	h := strings.TrimSpace(header)
	for _, aliases := range [][]string{stateAliases, districtAliases, levelAliases, wellsAliases, dateAliases} {
		for _, alias := range aliases {
			if strings.EqualFold(h, alias) {
				return true
			}
		}
	}
	return false
}

// NormalizeRow converts one raw row into a Record. It is pure and total: a
// malformed row yields a Record with defaults in the unparseable fields
// rather than an error.
func NormalizeRow(row Row) models.Record {
	rec := models.Record{
		Metrics: make(map[string]models.MetricValue),
	}

	if v, ok := lookup(row, stateAliases); ok {
		rec.State = v
	}
	if v, ok := lookup(row, districtAliases); ok {
		rec.District = v
	}
	if v, ok := lookup(row, levelAliases); ok {
		rec.Level = ParseNumber(v)
	}
	if v, ok := lookup(row, wellsAliases); ok {
		rec.Wells = ParseWells(v)
	}
	if v, ok := lookup(row, dateAliases); ok {
		rec.Date = ParseDate(v)
	}

	for header, value := range row {
		if consumedBy(header) {
			continue
		}
		name := strings.TrimSpace(header)
		if name == "" {
			continue
		}
		raw := strings.TrimSpace(value)
		rec.Metrics[name] = models.MetricValue{Raw: raw, Num: ParseNumber(raw)}
	}

	return rec
}

// NormalizeRecord re-normalizes an already-built Record: strings trimmed,
// metric numerics re-derived from their raw text. Applying it to an already
// normalized Record is the identity, which keeps API-sourced and CSV-sourced
// records interchangeable.
func NormalizeRecord(rec models.Record) models.Record {
	out := models.Record{
		State:    strings.TrimSpace(rec.State),
		District: strings.TrimSpace(rec.District),
		Level:    rec.Level,
		Wells:    rec.Wells,
		Date:     rec.Date,
		Metrics:  make(map[string]models.MetricValue, len(rec.Metrics)),
	}
	for name, mv := range rec.Metrics {
		raw := strings.TrimSpace(mv.Raw)
		out.Metrics[strings.TrimSpace(name)] = models.MetricValue{Raw: raw, Num: ParseNumber(raw)}
	}
	return out
}

// BatchResult summarizes one CSV ingestion pass.
type BatchResult struct {
	Records       []models.Record
	TotalRows     int
	DefectiveRows int // rows missing a usable state or district
}

// ReadCSV reads an entire CSV document (header row required) and normalizes
// every data row. Row order is preserved. Rows with a mismatched field count
// are skipped and counted as defective; rows with missing core fields are
// kept but counted.
func ReadCSV(r io.Reader) (*BatchResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.DefectiveRows++
			continue
		}
		result.TotalRows++

		row := make(Row, len(header))
		for i, h := range header {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}

		rec := NormalizeRow(row)
		if !rec.HasCoreFields() {
			result.DefectiveRows++
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}
