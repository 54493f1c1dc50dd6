package client

import (
	"encoding/json"
	"fmt"
)

// StateMetrics is the canonical per-state aggregate shape every backend
// response variant is mapped into.
type StateMetrics struct {
	State        string             `json:"state"`
	Metrics      map[string]float64 `json:"metrics"`
	NumDistricts int                `json:"num_districts"`
}

// NormalizeStateMetrics maps the observed backend shapes into StateMetrics.
// The value map has been seen nested under result.requested, result.all,
// metrics/aggregates, or sitting at the top level; this is the single place
// that knowledge lives.
func NormalizeStateMetrics(data []byte) (*StateMetrics, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode state response: %w", err)
	}

	payload := raw
	if result, ok := raw["result"].(map[string]any); ok {
		if requested, ok := result["requested"].(map[string]any); ok {
			payload = requested
		} else if all, ok := result["all"].(map[string]any); ok {
			payload = all
		} else {
			payload = result
		}
	}

	sm := &StateMetrics{Metrics: make(map[string]float64)}

	// Nested metric maps take priority; otherwise numeric top-level fields
	// are the metrics.
	source := payload
	for _, key := range []string{"metrics", "aggregates"} {
		if nested, ok := payload[key].(map[string]any); ok {
			source = nested
			break
		}
	}

	for k, v := range source {
		if n, ok := v.(float64); ok {
			sm.Metrics[k] = n
		}
	}

	for _, holder := range []map[string]any{payload, raw} {
		if sm.State == "" {
			if s, ok := holder["state"].(string); ok {
				sm.State = s
			}
		}
		if sm.NumDistricts == 0 {
			if n, ok := holder["num_districts"].(float64); ok {
				sm.NumDistricts = int(n)
			}
		}
	}

	// num_districts travels inside the metric map in some shapes; it is not
	// a metric.
	if n, ok := sm.Metrics["num_districts"]; ok {
		if sm.NumDistricts == 0 {
			sm.NumDistricts = int(n)
		}
		delete(sm.Metrics, "num_districts")
	}

	return sm, nil
}
