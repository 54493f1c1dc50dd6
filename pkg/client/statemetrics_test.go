package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStateMetrics(t *testing.T) {
	tests := []struct {
		name string
		body string
		want StateMetrics
	}{
		{
			name: "flat metrics map",
			body: `{"state":"Karnataka","metrics":{"Recharge":100.5},"num_districts":30}`,
			want: StateMetrics{State: "Karnataka", Metrics: map[string]float64{"Recharge": 100.5}, NumDistricts: 30},
		},
		{
			name: "aggregates key variant",
			body: `{"state":"Karnataka","aggregates":{"Recharge":100.5},"num_districts":30}`,
			want: StateMetrics{State: "Karnataka", Metrics: map[string]float64{"Recharge": 100.5}, NumDistricts: 30},
		},
		{
			name: "nested under result.requested",
			body: `{"state":"Kerala","result":{"requested":{"metrics":{"Recharge":7},"num_districts":14}}}`,
			want: StateMetrics{State: "Kerala", Metrics: map[string]float64{"Recharge": 7}, NumDistricts: 14},
		},
		{
			name: "nested under result.all",
			body: `{"state":"Kerala","result":{"all":{"Recharge":7,"Extraction":3}}}`,
			want: StateMetrics{State: "Kerala", Metrics: map[string]float64{"Recharge": 7, "Extraction": 3}},
		},
		{
			name: "plain result object",
			body: `{"result":{"state":"Goa","metrics":{"Recharge":1}}}`,
			want: StateMetrics{State: "Goa", Metrics: map[string]float64{"Recharge": 1}},
		},
		{
			name: "numeric top-level fields become metrics",
			body: `{"state":"Goa","Recharge":5,"Extraction":2}`,
			want: StateMetrics{State: "Goa", Metrics: map[string]float64{"Recharge": 5, "Extraction": 2}},
		},
		{
			name: "num_districts hiding in the metric map",
			body: `{"state":"Goa","metrics":{"Recharge":5,"num_districts":2}}`,
			want: StateMetrics{State: "Goa", Metrics: map[string]float64{"Recharge": 5}, NumDistricts: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeStateMetrics([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want.State, got.State)
			assert.Equal(t, tt.want.NumDistricts, got.NumDistricts)
			assert.Equal(t, tt.want.Metrics, got.Metrics)
		})
	}
}

func TestNormalizeStateMetrics_NonNumericValuesIgnored(t *testing.T) {
	got, err := NormalizeStateMetrics([]byte(`{"state":"Goa","metrics":{"Recharge":5,"note":"estimated"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Recharge": 5}, got.Metrics)
}

func TestNormalizeStateMetrics_Malformed(t *testing.T) {
	_, err := NormalizeStateMetrics([]byte(`[1,2,3]`))
	assert.Error(t, err)
}
