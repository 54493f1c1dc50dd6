package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureNames(t *testing.T) {
	tests := []struct {
		name         string
		props        map[string]any
		wantDistrict string
		wantState    string
	}{
		{
			name:         "survey style keys",
			props:        map[string]any{"ST_NM": "Karnataka", "DISTRICT": "Mysuru"},
			wantDistrict: "Mysuru",
			wantState:    "Karnataka",
		},
		{
			name:         "lowercase keys",
			props:        map[string]any{"state": "Kerala", "district": "Idukki"},
			wantDistrict: "Idukki",
			wantState:    "Kerala",
		},
		{
			name:         "alias order prefers survey keys",
			props:        map[string]any{"ST_NM": "Karnataka", "state": "wrong"},
			wantDistrict: "",
			wantState:    "Karnataka",
		},
		{
			name:         "non-string values skipped",
			props:        map[string]any{"STATE": 7, "state": "Kerala"},
			wantDistrict: "",
			wantState:    "Kerala",
		},
		{
			name:  "no recognizable keys",
			props: map[string]any{"name": "somewhere"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Feature{Properties: tt.props}
			district, state := f.Names()
			assert.Equal(t, tt.wantDistrict, district)
			assert.Equal(t, tt.wantState, state)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boundaries.geojson")
	doc := `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"ST_NM": "Karnataka", "DISTRICT": "Mysuru"},
				"geometry": {"type": "Polygon", "coordinates": [[[76.0, 12.0], [76.5, 12.0], [76.5, 12.5], [76.0, 12.0]]]}
			}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	fc, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	district, state := fc.Features[0].Names()
	assert.Equal(t, "Mysuru", district)
	assert.Equal(t, "Karnataka", state)

	// Geometry passes through byte-for-byte untouched.
	assert.Contains(t, string(fc.Features[0].Geometry), "Polygon")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("/nonexistent/boundaries.geojson")
	assert.Error(t, err)
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.geojson")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
