package aggregate

import (
	"strings"

	"groundwater-platform/internal/models"
)

// Aggregation columns, spelled exactly as they appear in the INGRIS CSV
// exports.
const (
	ColExtractable       = "Annual Extractable Ground water Resource (ham)_C"
	ColNetAvailability   = "Net Annual Ground Water Availability for Future Use (ham)_C"
	ColUnconfined        = "Total Ground Water Availability in Unconfined Aquifier (ham)_Fr"
	ColTotalAvailability = "Total Ground Water Availability in the area (ham)_Fresh"
)

// AggColumns are the metric columns summed into state aggregates, in display
// order.
var AggColumns = []string{
	ColExtractable,
	ColNetAvailability,
	ColUnconfined,
	ColTotalAvailability,
}

// Classification thresholds on total availability (ham) for the overview
// cards.
const (
	safeThresholdHam     = 15000.0
	moderateThresholdHam = 10000.0
)

// StateAggregate sums every aggregation column over one state's records and
// counts its distinct districts. Empty result (nil) means the state has no
// records.
func StateAggregate(records []models.Record, state string) map[string]float64 {
	subset := StateRecords(records, state)
	if len(subset) == 0 {
		return nil
	}
	aggs := make(map[string]float64, len(AggColumns))
	for _, col := range AggColumns {
		var total float64
		for i := range subset {
			if v := subset[i].Metric(col); v != nil {
				total += *v
			}
		}
		aggs[col] = total
	}
	return aggs
}

// ComputeOverview classifies every record by its total-availability reading:
// safe above 15000 ham, moderate in (10000, 15000], critical at or below
// 10000. Absent readings count as 0 and therefore as critical, matching how
// the summary cards have always been populated.
func ComputeOverview(records []models.Record) models.Overview {
	ov := models.Overview{TotalPoints: len(records)}
	states := make(map[string]bool)
	for i := range records {
		if st := strings.ToLower(records[i].State); st != "" {
			states[st] = true
		}
		var v float64
		if n := records[i].Metric(ColTotalAvailability); n != nil {
			v = *n
		}
		switch {
		case v > safeThresholdHam:
			ov.Safe++
		case v > moderateThresholdHam:
			ov.Moderate++
		default:
			ov.Critical++
		}
	}
	ov.MonitoredStates = len(states)
	return ov
}
