// Package geo loads the district/state boundary GeoJSON and extracts the
// place-name variants a feature carries, feeding map clicks into the
// resolver.
package geo

import (
	"encoding/json"
	"os"
)

// FeatureCollection is the subset of GeoJSON the platform cares about. The
// geometry is kept as raw JSON and passed through untouched.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature holds one boundary polygon and its properties.
type Feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// Property alias order mirrors the exports seen in the wild: survey-of-India
// style keys first, then generic ones.
var (
	statePropAliases    = []string{"ST_NM", "STATE", "state", "st_nm", "State"}
	districtPropAliases = []string{"DISTRICT", "DIST_NAME", "district", "District", "dist_name"}
)

// Names returns the district and state labels of a feature, empty strings
// when a variant is not present.
func (f *Feature) Names() (district, state string) {
	district = firstStringProp(f.Properties, districtPropAliases)
	state = firstStringProp(f.Properties, statePropAliases)
	return district, state
}

func firstStringProp(props map[string]any, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := props[alias]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// LoadFile reads a FeatureCollection from disk. A missing or unparseable file
// is an error for the caller to report once; the map layer then stays
// disabled rather than failing the whole application.
func LoadFile(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}
