// Package aggregate reduces normalized records into chart-ready series. It is
// the single grouping/reduction implementation used by every consumer: the
// REST handlers, the chat answerer, and the overview summary.
package aggregate

import (
	"sort"
	"strings"

	"groundwater-platform/internal/models"
)

// UnknownGroup buckets records whose grouping field is empty. They are kept
// rather than dropped so group totals remain auditable against row counts.
const UnknownGroup = "Unknown"

// Dimension selects the grouping field.
type Dimension int

const (
	ByDistrict Dimension = iota
	ByState
)

// Kind selects the reduction rule for a metric.
type Kind int

const (
	// Sum adds numeric values; non-finite or absent values contribute 0.
	Sum Kind = iota
	// Presence counts records whose value is set: a non-empty textual flag
	// or a positive number both count as 1 regardless of magnitude.
	Presence
)

// Request describes one grouped aggregation.
type Request struct {
	State   string // optional; empty aggregates across all states
	GroupBy Dimension
	Metric  string
	Kind    Kind
}

// filterByState returns the records belonging to a state, compared
// case-insensitively. An empty state matches everything.
func filterByState(records []models.Record, state string) []models.Record {
	if state == "" {
		return records
	}
	want := strings.ToLower(strings.TrimSpace(state))
	var out []models.Record
	for i := range records {
		if strings.ToLower(records[i].State) == want {
			out = append(out, records[i])
		}
	}
	return out
}

func groupKey(rec *models.Record, dim Dimension) string {
	var key string
	switch dim {
	case ByState:
		key = rec.State
	default:
		key = rec.District
	}
	if key == "" {
		return UnknownGroup
	}
	return key
}

// contributes implements the Presence rule.
func contributes(mv models.MetricValue) bool {
	if mv.Num != nil {
		return *mv.Num > 0
	}
	return mv.Raw != ""
}

// Grouped runs a grouped reduction and returns results sorted descending by
// value, ties kept in first-appearance order for deterministic top-N
// displays. A request matching zero records returns an empty slice, not an
// error.
func Grouped(records []models.Record, req Request) []models.AggregationResult {
	filtered := filterByState(records, req.State)
	if len(filtered) == 0 {
		return []models.AggregationResult{}
	}

	totals := make(map[string]float64)
	var order []string

	for i := range filtered {
		rec := &filtered[i]
		key := groupKey(rec, req.GroupBy)
		if _, seen := totals[key]; !seen {
			order = append(order, key)
			totals[key] = 0
		}

		switch req.Kind {
		case Presence:
			if mv, ok := rec.Metrics[req.Metric]; ok && contributes(mv) {
				totals[key]++
			}
		default:
			if v := rec.Metric(req.Metric); v != nil {
				totals[key] += *v
			}
		}
	}

	results := make([]models.AggregationResult, 0, len(order))
	for _, key := range order {
		results = append(results, models.AggregationResult{GroupKey: key, Value: totals[key]})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Value > results[j].Value
	})
	return results
}

// MonthlyTrend averages a metric per YYYY-MM bucket for one state (or all
// states when empty). Only records with a parsed date land in a bucket; a
// bucket whose records all lack the metric reports nil, which callers must
// keep distinct from an average of zero. Buckets are sorted ascending by
// month key, which is chronological for YYYY-MM.
func MonthlyTrend(records []models.Record, state, metric string) []models.TrendPoint {
	filtered := filterByState(records, state)

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[string]*bucket)

	for i := range filtered {
		rec := &filtered[i]
		if rec.Date == nil {
			continue
		}
		key := rec.Date.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		if v := rec.Metric(metric); v != nil {
			b.sum += *v
			b.count++
		}
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)

	points := make([]models.TrendPoint, 0, len(months))
	for _, m := range months {
		b := buckets[m]
		var value *float64
		if b.count > 0 {
			avg := b.sum / float64(b.count)
			value = &avg
		}
		points = append(points, models.TrendPoint{Month: m, Value: value})
	}
	return points
}

// DualSums computes two sum metrics per group in one pass for comparison
// charts. Both series share the group order of first appearance, unsorted, so
// the two lines stay index-aligned.
func DualSums(records []models.Record, state string, dim Dimension, primary, secondary string) models.DualSeries {
	filtered := filterByState(records, state)

	type pair struct {
		a, b float64
	}
	totals := make(map[string]*pair)
	var order []string

	for i := range filtered {
		rec := &filtered[i]
		key := groupKey(rec, dim)
		p, seen := totals[key]
		if !seen {
			p = &pair{}
			totals[key] = p
			order = append(order, key)
		}
		if v := rec.Metric(primary); v != nil {
			p.a += *v
		}
		if v := rec.Metric(secondary); v != nil {
			p.b += *v
		}
	}

	series := models.DualSeries{
		Labels:    make([]string, 0, len(order)),
		Primary:   make([]float64, 0, len(order)),
		Secondary: make([]float64, 0, len(order)),
	}
	for _, key := range order {
		series.Labels = append(series.Labels, key)
		series.Primary = append(series.Primary, totals[key].a)
		series.Secondary = append(series.Secondary, totals[key].b)
	}
	return series
}

// DistinctDistricts counts the distinct non-empty districts in a slice of
// records, the num_districts figure reported with state aggregates.
func DistinctDistricts(records []models.Record) int {
	seen := make(map[string]bool)
	for i := range records {
		d := strings.ToLower(records[i].District)
		if d != "" {
			seen[d] = true
		}
	}
	return len(seen)
}

// StateRecords exposes the state filter for callers that need the raw subset
// (chat answers, per-state metric maps).
func StateRecords(records []models.Record, state string) []models.Record {
	return filterByState(records, state)
}
