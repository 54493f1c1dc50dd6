package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundwater-platform/internal/aggregate"
	"groundwater-platform/internal/models"
)

func rec(state, district string, total float64) models.Record {
	return models.Record{
		State:    state,
		District: district,
		Metrics: map[string]models.MetricValue{
			aggregate.ColTotalAvailability: {Num: &total},
		},
	}
}

func datedRec(state, district string, total float64, date string) models.Record {
	r := rec(state, district, total)
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	r.Date = &t
	return r
}

var chatRecords = []models.Record{
	rec("Karnataka", "Mysuru", 20000),
	rec("Karnataka", "Hassan", 8000),
	rec("Kerala", "Idukki", 12000),
	datedRec("Tamil Nadu", "Salem", 9000, "2024-01-15"),
	datedRec("Tamil Nadu", "Salem", 11000, "2024-02-15"),
}

func TestAnswer_ListStates(t *testing.T) {
	resp := Answer("What states are available?", chatRecords)
	assert.Equal(t, IntentListStates, resp.Intent)
	assert.Equal(t, []string{"Karnataka", "Kerala", "Tamil Nadu"}, resp.States)
}

func TestAnswer_StateAggregateDefault(t *testing.T) {
	resp := Answer("Show me Karnataka groundwater data", chatRecords)
	assert.Equal(t, IntentStateAggregate, resp.Intent)
	assert.Equal(t, "Karnataka", resp.State)
	require.NotNil(t, resp.Value)
	assert.Equal(t, 28000.0, *resp.Value)
	assert.Equal(t, 2, resp.NumDistricts)
	assert.Contains(t, resp.Explanation, "Karnataka")
	assert.Contains(t, resp.Explanation, "28000.00 ham")
}

func TestAnswer_CompareStates(t *testing.T) {
	resp := Answer("Compare Kerala and Karnataka", chatRecords)
	assert.Equal(t, IntentCompareStates, resp.Intent)
	require.Len(t, resp.Comparison, 2)

	// Comparison order follows the mention order in the question.
	assert.Equal(t, "Kerala", resp.Comparison[0].State)
	assert.Equal(t, 12000.0, resp.Comparison[0].Value)
	assert.Equal(t, "Karnataka", resp.Comparison[1].State)
	assert.Equal(t, 28000.0, resp.Comparison[1].Value)
}

func TestAnswer_CompareNeedsKeyword(t *testing.T) {
	// Two states without a comparison keyword fall through to the first
	// state's aggregate.
	resp := Answer("Kerala and Karnataka", chatRecords)
	assert.Equal(t, IntentStateAggregate, resp.Intent)
	assert.Equal(t, "Kerala", resp.State)
}

func TestAnswer_StateDistricts(t *testing.T) {
	resp := Answer("Which districts of Karnataka have the most water?", chatRecords)
	assert.Equal(t, IntentStateDistricts, resp.Intent)
	require.Len(t, resp.Districts, 2)
	assert.Equal(t, "Mysuru", resp.Districts[0].GroupKey)
	assert.Equal(t, 20000.0, resp.Districts[0].Value)
}

func TestAnswer_StateOverview(t *testing.T) {
	resp := Answer("Give me a summary for Karnataka", chatRecords)
	assert.Equal(t, IntentStateOverview, resp.Intent)
	require.NotNil(t, resp.Overview)
	assert.Equal(t, 2, resp.Overview.TotalPoints)
	assert.Equal(t, 1, resp.Overview.Safe)
	assert.Equal(t, 1, resp.Overview.Critical)
}

func TestAnswer_StateMetrics(t *testing.T) {
	resp := Answer("Show all metrics for Kerala", chatRecords)
	assert.Equal(t, IntentStateMetrics, resp.Intent)
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, 12000.0, resp.Metrics[aggregate.ColTotalAvailability])
}

func TestAnswer_StateTrend(t *testing.T) {
	resp := Answer("Show the trend for Tamil Nadu", chatRecords)
	assert.Equal(t, IntentStateTrend, resp.Intent)
	require.Len(t, resp.Trend, 2)
	assert.Equal(t, "2024-01", resp.Trend[0].Month)
	require.NotNil(t, resp.Trend[0].Value)
	assert.Equal(t, 9000.0, *resp.Trend[0].Value)
}

func TestAnswer_DistrictTrend(t *testing.T) {
	resp := Answer("Show the trend for Salem in Tamil Nadu", chatRecords)
	assert.Equal(t, IntentDistrictTrend, resp.Intent)
	assert.Equal(t, "Tamil Nadu", resp.State)
	assert.Equal(t, "Salem", resp.District)
	require.Len(t, resp.Trend, 2)
}

func TestAnswer_NoStateFound(t *testing.T) {
	resp := Answer("How deep is the ocean?", chatRecords)
	assert.Equal(t, IntentNone, resp.Intent)
	assert.Equal(t, "I couldn't find a state in your question. Try: 'Show me Tamil Nadu groundwater data'.", resp.Answer)
}
