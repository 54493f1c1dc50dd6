package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }

func TestFormatChatResponse_ListStates(t *testing.T) {
	got := FormatChatResponse(&ChatResponse{
		Intent: IntentListStates,
		States: []string{"Karnataka", "Kerala"},
	})
	assert.Equal(t, "Monitored states (2): Karnataka, Kerala", got)
}

func TestFormatChatResponse_StateAggregate(t *testing.T) {
	t.Run("explanation preferred", func(t *testing.T) {
		got := FormatChatResponse(&ChatResponse{
			Intent:      IntentStateAggregate,
			Explanation: "Sum of 'X' across all districts in Karnataka is 28000.00 ham.",
		})
		assert.Equal(t, "Sum of 'X' across all districts in Karnataka is 28000.00 ham.", got)
	})

	t.Run("built from fields", func(t *testing.T) {
		got := FormatChatResponse(&ChatResponse{
			Intent:       IntentStateAggregate,
			State:        "Karnataka",
			Value:        fp(28000),
			NumDistricts: 30,
		})
		assert.Equal(t, "Karnataka: 28000.00 ham across 30 districts.", got)
	})
}

func TestFormatChatResponse_CompareStates(t *testing.T) {
	got := FormatChatResponse(&ChatResponse{
		Intent: IntentCompareStates,
		Comparison: []ComparisonEntry{
			{State: "Kerala", Value: 12000},
			{State: "Karnataka", Value: 28000},
		},
	})
	assert.Equal(t, "Karnataka has more groundwater availability (28000.00 ham) than Kerala (12000.00 ham).", got)
}

func TestFormatChatResponse_StateDistricts_TopFive(t *testing.T) {
	resp := &ChatResponse{
		Intent: IntentStateDistricts,
		State:  "Karnataka",
		Districts: []DistrictValue{
			{GroupKey: "A", Value: 6}, {GroupKey: "B", Value: 5}, {GroupKey: "C", Value: 4},
			{GroupKey: "D", Value: 3}, {GroupKey: "E", Value: 2}, {GroupKey: "F", Value: 1},
		},
	}
	got := FormatChatResponse(resp)
	assert.Contains(t, got, "1. A: 6.00 ham")
	assert.Contains(t, got, "5. E: 2.00 ham")
	assert.NotContains(t, got, "F:")
}

func TestFormatChatResponse_Trend(t *testing.T) {
	got := FormatChatResponse(&ChatResponse{
		Intent: IntentStateTrend,
		State:  "Tamil Nadu",
		Trend: []TrendPoint{
			{Month: "2024-01", Value: fp(9000)},
			{Month: "2024-02", Value: nil},
		},
	})
	assert.Contains(t, got, "Trend for Tamil Nadu:")
	assert.Contains(t, got, "2024-01: 9000.00")

	// A nil month stays visibly empty rather than rendering as zero.
	assert.Contains(t, got, "2024-02: no data")

	districtGot := FormatChatResponse(&ChatResponse{
		Intent:   IntentDistrictTrend,
		State:    "Tamil Nadu",
		District: "Salem",
		Trend:    []TrendPoint{{Month: "2024-01", Value: fp(1)}},
	})
	assert.Contains(t, districtGot, "Trend for Salem:")
}

func TestFormatChatResponse_Overview(t *testing.T) {
	got := FormatChatResponse(&ChatResponse{
		Intent:       IntentStateOverview,
		State:        "Karnataka",
		NumDistricts: 2,
		Overview:     &Overview{TotalPoints: 2, Safe: 1, Moderate: 0, Critical: 1},
	})
	assert.Equal(t, "Karnataka overview: 2 assessment points across 2 districts (1 safe, 0 moderate, 1 critical).", got)
}

func TestFormatChatResponse_Fallbacks(t *testing.T) {
	t.Run("verbatim answer", func(t *testing.T) {
		got := FormatChatResponse(&ChatResponse{Intent: IntentNone, Answer: "No state found."})
		assert.Equal(t, "No state found.", got)
	})

	t.Run("explanation when no answer", func(t *testing.T) {
		got := FormatChatResponse(&ChatResponse{Intent: "mystery", Explanation: "Something."})
		assert.Equal(t, "Something.", got)
	})

	t.Run("generic message last", func(t *testing.T) {
		got := FormatChatResponse(&ChatResponse{Intent: "mystery"})
		assert.Equal(t, fallbackAnswer, got)
	})

	t.Run("malformed payload for a known intent", func(t *testing.T) {
		got := FormatChatResponse(&ChatResponse{Intent: IntentCompareStates})
		assert.Equal(t, fallbackAnswer, got)
	})
}
