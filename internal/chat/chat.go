// Package chat answers natural-language questions against the loaded dataset.
// Intents form a closed set; detection picks exactly one and the response
// carries only that intent's payload.
package chat

import (
	"fmt"
	"strings"

	"groundwater-platform/internal/aggregate"
	"groundwater-platform/internal/models"
	"groundwater-platform/internal/resolve"
)

// Intent is the closed set of recognized question categories.
type Intent string

const (
	IntentListStates     Intent = "list_states"
	IntentStateAggregate Intent = "state_aggregate"
	IntentCompareStates  Intent = "compare_states"
	IntentStateMetrics   Intent = "state_metrics"
	IntentStateOverview  Intent = "state_overview"
	IntentStateDistricts Intent = "state_districts"
	IntentStateTrend     Intent = "state_trend"
	IntentDistrictTrend  Intent = "district_trend"
	IntentNone           Intent = "none"
)

// StateComparison is one side of a compare_states answer.
type StateComparison struct {
	State        string  `json:"state"`
	Value        float64 `json:"value"`
	NumDistricts int     `json:"num_districts"`
}

// Response is the chat answer payload. Only the fields of the detected intent
// are populated.
type Response struct {
	Intent       Intent                     `json:"intent"`
	State        string                     `json:"state,omitempty"`
	District     string                     `json:"district,omitempty"`
	States       []string                   `json:"states,omitempty"`
	Field        string                     `json:"field,omitempty"`
	Value        *float64                   `json:"value,omitempty"`
	NumDistricts int                        `json:"num_districts,omitempty"`
	Metrics      map[string]float64         `json:"metrics,omitempty"`
	Comparison   []StateComparison          `json:"comparison,omitempty"`
	Districts    []models.AggregationResult `json:"districts,omitempty"`
	Trend        []models.TrendPoint        `json:"trend,omitempty"`
	Overview     *models.Overview           `json:"overview,omitempty"`
	Explanation  string                     `json:"explanation,omitempty"`
	Answer       string                     `json:"answer,omitempty"`
	SessionID    string                     `json:"session_id,omitempty"`
}

var listStatesPhrases = []string{
	"list states", "what states", "states available", "which states",
}

// Answer detects the intent of a query and computes its payload from the
// given record snapshot.
func Answer(query string, records []models.Record) Response {
	text := strings.TrimSpace(query)
	lower := strings.ToLower(text)

	for _, phrase := range listStatesPhrases {
		if strings.Contains(lower, phrase) {
			return listStates(records)
		}
	}

	states := resolve.FindStatesInText(text, records)

	if len(states) >= 2 && (strings.Contains(lower, "compare") || strings.Contains(lower, " vs ")) {
		return compareStates(records, states[:2])
	}

	if len(states) == 0 {
		return Response{
			Intent: IntentNone,
			Answer: "I couldn't find a state in your question. Try: 'Show me Tamil Nadu groundwater data'.",
		}
	}

	state := states[0]
	switch {
	case strings.Contains(lower, "trend"):
		if district := findDistrictInText(lower, records, state); district != "" {
			return districtTrend(records, state, district)
		}
		return stateTrend(records, state)
	case strings.Contains(lower, "district"):
		return stateDistricts(records, state)
	case strings.Contains(lower, "overview") || strings.Contains(lower, "summary"):
		return stateOverview(records, state)
	case strings.Contains(lower, "metric"):
		return stateMetrics(records, state)
	default:
		return stateAggregate(records, state)
	}
}

func listStates(records []models.Record) Response {
	seen := make(map[string]bool)
	var states []string
	for i := range records {
		st := records[i].State
		if st == "" {
			continue
		}
		key := strings.ToLower(st)
		if !seen[key] {
			seen[key] = true
			states = append(states, st)
		}
	}
	// First-appearance order mirrors the dataset; stable for the formatter.
	return Response{Intent: IntentListStates, States: states}
}

func stateAggregate(records []models.Record, state string) Response {
	aggs := aggregate.StateAggregate(records, state)
	if aggs == nil {
		return Response{
			Intent: IntentNone,
			Answer: fmt.Sprintf("No records found for %s.", state),
		}
	}
	value := aggs[aggregate.ColTotalAvailability]
	subset := aggregate.StateRecords(records, state)
	n := aggregate.DistinctDistricts(subset)
	return Response{
		Intent:       IntentStateAggregate,
		State:        state,
		Field:        aggregate.ColTotalAvailability,
		Value:        &value,
		NumDistricts: n,
		Explanation: fmt.Sprintf("Sum of '%s' across all districts in %s is %.2f ham.",
			aggregate.ColTotalAvailability, state, value),
	}
}

func compareStates(records []models.Record, states []string) Response {
	comparison := make([]StateComparison, 0, len(states))
	for _, st := range states {
		aggs := aggregate.StateAggregate(records, st)
		if aggs == nil {
			continue
		}
		subset := aggregate.StateRecords(records, st)
		comparison = append(comparison, StateComparison{
			State:        st,
			Value:        aggs[aggregate.ColTotalAvailability],
			NumDistricts: aggregate.DistinctDistricts(subset),
		})
	}
	return Response{
		Intent:     IntentCompareStates,
		Field:      aggregate.ColTotalAvailability,
		Comparison: comparison,
	}
}

func stateMetrics(records []models.Record, state string) Response {
	aggs := aggregate.StateAggregate(records, state)
	if aggs == nil {
		return Response{Intent: IntentNone, Answer: fmt.Sprintf("No records found for %s.", state)}
	}
	return Response{Intent: IntentStateMetrics, State: state, Metrics: aggs}
}

func stateOverview(records []models.Record, state string) Response {
	subset := aggregate.StateRecords(records, state)
	if len(subset) == 0 {
		return Response{Intent: IntentNone, Answer: fmt.Sprintf("No records found for %s.", state)}
	}
	ov := aggregate.ComputeOverview(subset)
	return Response{
		Intent:       IntentStateOverview,
		State:        state,
		Overview:     &ov,
		NumDistricts: aggregate.DistinctDistricts(subset),
	}
}

func stateDistricts(records []models.Record, state string) Response {
	results := aggregate.Grouped(records, aggregate.Request{
		State:   state,
		GroupBy: aggregate.ByDistrict,
		Metric:  aggregate.ColTotalAvailability,
		Kind:    aggregate.Sum,
	})
	if len(results) == 0 {
		return Response{Intent: IntentNone, Answer: fmt.Sprintf("No records found for %s.", state)}
	}
	return Response{
		Intent:    IntentStateDistricts,
		State:     state,
		Field:     aggregate.ColTotalAvailability,
		Districts: results,
	}
}

func stateTrend(records []models.Record, state string) Response {
	trend := aggregate.MonthlyTrend(records, state, aggregate.ColTotalAvailability)
	return Response{
		Intent: IntentStateTrend,
		State:  state,
		Field:  aggregate.ColTotalAvailability,
		Trend:  trend,
	}
}

func districtTrend(records []models.Record, state, district string) Response {
	subset := aggregate.StateRecords(records, state)
	var filtered []models.Record
	want := strings.ToLower(district)
	for i := range subset {
		if strings.ToLower(subset[i].District) == want {
			filtered = append(filtered, subset[i])
		}
	}
	trend := aggregate.MonthlyTrend(filtered, "", aggregate.ColTotalAvailability)
	return Response{
		Intent:   IntentDistrictTrend,
		State:    state,
		District: district,
		Field:    aggregate.ColTotalAvailability,
		Trend:    trend,
	}
}

// findDistrictInText looks for one of the state's district names inside the
// query, returning the dataset's casing.
func findDistrictInText(lower string, records []models.Record, state string) string {
	subset := aggregate.StateRecords(records, state)
	for i := range subset {
		d := subset[i].District
		if d == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(d)) {
			return d
		}
	}
	return ""
}
