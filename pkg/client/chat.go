package client

import (
	"fmt"
	"strings"
)

// Chat intents recognized by the formatter. The set is closed: anything else
// degrades to the verbatim answer fallback.
const (
	IntentListStates     = "list_states"
	IntentStateAggregate = "state_aggregate"
	IntentCompareStates  = "compare_states"
	IntentStateMetrics   = "state_metrics"
	IntentStateOverview  = "state_overview"
	IntentStateDistricts = "state_districts"
	IntentStateTrend     = "state_trend"
	IntentDistrictTrend  = "district_trend"
	IntentNone           = "none"
)

const fallbackAnswer = "Sorry, I couldn't extract a concise answer from that response."

// ChatResponse is the wire shape of a chat answer.
type ChatResponse struct {
	Intent       string             `json:"intent"`
	State        string             `json:"state,omitempty"`
	District     string             `json:"district,omitempty"`
	States       []string           `json:"states,omitempty"`
	Field        string             `json:"field,omitempty"`
	Value        *float64           `json:"value,omitempty"`
	NumDistricts int                `json:"num_districts,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Comparison   []ComparisonEntry  `json:"comparison,omitempty"`
	Districts    []DistrictValue    `json:"districts,omitempty"`
	Trend        []TrendPoint       `json:"trend,omitempty"`
	Overview     *Overview          `json:"overview,omitempty"`
	Explanation  string             `json:"explanation,omitempty"`
	Answer       string             `json:"answer,omitempty"`
	SessionID    string             `json:"session_id,omitempty"`
}

// ComparisonEntry is one side of a compare_states answer.
type ComparisonEntry struct {
	State        string  `json:"state"`
	Value        float64 `json:"value"`
	NumDistricts int     `json:"num_districts"`
}

// DistrictValue is one reduced district bucket.
type DistrictValue struct {
	GroupKey string  `json:"group_key"`
	Value    float64 `json:"value"`
}

// TrendPoint is one month bucket; Value nil means no data that month.
type TrendPoint struct {
	Month string   `json:"month"`
	Value *float64 `json:"value"`
}

// FormatChatResponse renders a chat answer as display text, one formatter per
// intent. Unrecognized or malformed responses fall back to any answer or
// explanation text carried in the payload, then to a generic message; raw
// JSON is never shown to the user.
func FormatChatResponse(resp *ChatResponse) string {
	switch resp.Intent {
	case IntentListStates:
		return formatListStates(resp)
	case IntentStateAggregate:
		return formatStateAggregate(resp)
	case IntentCompareStates:
		return formatCompareStates(resp)
	case IntentStateMetrics:
		return formatStateMetrics(resp)
	case IntentStateOverview:
		return formatStateOverview(resp)
	case IntentStateDistricts:
		return formatStateDistricts(resp)
	case IntentStateTrend, IntentDistrictTrend:
		return formatTrend(resp)
	default:
		return fallback(resp)
	}
}

func formatListStates(resp *ChatResponse) string {
	if len(resp.States) == 0 {
		return fallback(resp)
	}
	return fmt.Sprintf("Monitored states (%d): %s", len(resp.States), strings.Join(resp.States, ", "))
}

func formatStateAggregate(resp *ChatResponse) string {
	if resp.Explanation != "" {
		return resp.Explanation
	}
	if resp.State == "" || resp.Value == nil {
		return fallback(resp)
	}
	return fmt.Sprintf("%s: %.2f ham across %d districts.", resp.State, *resp.Value, resp.NumDistricts)
}

func formatCompareStates(resp *ChatResponse) string {
	if len(resp.Comparison) < 2 {
		return fallback(resp)
	}
	a, b := resp.Comparison[0], resp.Comparison[1]
	lead, trail := a, b
	if b.Value > a.Value {
		lead, trail = b, a
	}
	return fmt.Sprintf("%s has more groundwater availability (%.2f ham) than %s (%.2f ham).",
		lead.State, lead.Value, trail.State, trail.Value)
}

func formatStateMetrics(resp *ChatResponse) string {
	if resp.State == "" || len(resp.Metrics) == 0 {
		return fallback(resp)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Metrics for %s:", resp.State)
	for name, value := range resp.Metrics {
		fmt.Fprintf(&sb, "\n- %s: %.2f", name, value)
	}
	return sb.String()
}

func formatStateOverview(resp *ChatResponse) string {
	if resp.Overview == nil {
		return fallback(resp)
	}
	ov := resp.Overview
	return fmt.Sprintf("%s overview: %d assessment points across %d districts (%d safe, %d moderate, %d critical).",
		resp.State, ov.TotalPoints, resp.NumDistricts, ov.Safe, ov.Moderate, ov.Critical)
}

func formatStateDistricts(resp *ChatResponse) string {
	if len(resp.Districts) == 0 {
		return fallback(resp)
	}
	top := resp.Districts
	if len(top) > 5 {
		top = top[:5]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Top districts in %s by groundwater availability:", resp.State)
	for i, d := range top {
		fmt.Fprintf(&sb, "\n%d. %s: %.2f ham", i+1, d.GroupKey, d.Value)
	}
	return sb.String()
}

func formatTrend(resp *ChatResponse) string {
	if len(resp.Trend) == 0 {
		return fallback(resp)
	}
	place := resp.State
	if resp.Intent == IntentDistrictTrend && resp.District != "" {
		place = resp.District
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Trend for %s:", place)
	for _, p := range resp.Trend {
		if p.Value == nil {
			fmt.Fprintf(&sb, "\n%s: no data", p.Month)
		} else {
			fmt.Fprintf(&sb, "\n%s: %.2f", p.Month, *p.Value)
		}
	}
	return sb.String()
}

func fallback(resp *ChatResponse) string {
	if resp.Answer != "" {
		return resp.Answer
	}
	if resp.Explanation != "" {
		return resp.Explanation
	}
	return fallbackAnswer
}
