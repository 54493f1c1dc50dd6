package models

import (
	"time"
)

// Record is one normalized row of groundwater data at state/district level.
// The metric column set is dataset-defined, not fixed; absent or unparseable
// numeric values are represented as nil pointers, never NaN.
type Record struct {
	State    string                 `json:"state" db:"state"`
	District string                 `json:"district" db:"district"`
	Metrics  map[string]MetricValue `json:"metrics"`
	Level    *float64               `json:"level,omitempty" db:"water_level_m"`
	Wells    int                    `json:"wells" db:"wells"`
	Date     *time.Time             `json:"date,omitempty" db:"recorded_on"`
}

// MetricValue keeps both the raw cell text and its numeric reading.
// Presence-style metrics (quality tags) are judged on Raw; arithmetic
// reducers use Num and treat nil as absent.
type MetricValue struct {
	Raw string   `json:"raw"`
	Num *float64 `json:"num,omitempty"`
}

// Metric returns the numeric value of a named metric column, or nil when the
// column is absent or non-numeric on this record.
func (r *Record) Metric(name string) *float64 {
	mv, ok := r.Metrics[name]
	if !ok {
		return nil
	}
	return mv.Num
}

// HasCoreFields reports whether the record carries a usable state and
// district. Rows failing this are still kept (totals stay auditable) but are
// counted as defective by the callers that care.
func (r *Record) HasCoreFields() bool {
	return r.State != "" && r.District != ""
}

// AggregationResult is one reduced bucket of a grouped aggregation.
type AggregationResult struct {
	GroupKey string  `json:"group_key"`
	Value    float64 `json:"value"`
}

// TrendPoint is one month bucket of a trend series. Value is nil when the
// bucket had no contributing records, which is distinct from a bucket that
// genuinely sums or averages to zero.
type TrendPoint struct {
	Month string   `json:"month"`
	Value *float64 `json:"value"`
}

// DualSeries holds two metric series over a shared label order, index-aligned
// so Labels[i] describes Primary[i] and Secondary[i] for every i.
type DualSeries struct {
	Labels    []string  `json:"labels"`
	Primary   []float64 `json:"primary"`
	Secondary []float64 `json:"secondary"`
}

// StateMetrics is the canonical per-state aggregate shape. Every backend
// response variant is mapped into this before any other logic touches it.
type StateMetrics struct {
	State        string             `json:"state"`
	Metrics      map[string]float64 `json:"metrics"`
	NumDistricts int                `json:"num_districts"`
}

// Overview is the dashboard's headline summary. Classification thresholds
// live in the aggregate package.
type Overview struct {
	TotalPoints     int `json:"total_points"`
	Safe            int `json:"safe"`
	Moderate        int `json:"moderate"`
	Critical        int `json:"critical"`
	MonitoredStates int `json:"monitored_states"`
}

// ValidationError classifies a row or request field that failed validation.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent.
func (e *ValidationError) IsTransient() bool {
	return false
}

// NotFoundError represents a resource that does not exist in the dataset or
// the database.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found: " + e.ID
}
