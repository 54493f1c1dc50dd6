package services

import (
	"context"
	"time"

	"groundwater-platform/internal/aggregate"
	"groundwater-platform/internal/dataset"
	"groundwater-platform/internal/models"
	"groundwater-platform/internal/resolve"
	"groundwater-platform/pkg/cache"
	"groundwater-platform/pkg/logging"
	"groundwater-platform/pkg/metrics"
)

// StateAggregateResponse is the /api/state/{name} payload.
type StateAggregateResponse struct {
	State        string             `json:"state"`
	Aggregates   map[string]float64 `json:"aggregates"`
	NumDistricts int                `json:"num_districts"`
}

// StateSummary is one element of the /api/states payload.
type StateSummary struct {
	State               string  `json:"state"`
	TotalGroundWaterHam float64 `json:"total_ground_water_ham"`
	NumDistricts        int     `json:"num_districts"`
}

// DistrictAggregate is one per-district row of /api/state/{name}/districts.
type DistrictAggregate struct {
	District   string             `json:"district"`
	Aggregates map[string]float64 `json:"aggregates"`
}

// QueryService answers read queries against the in-memory dataset, caching
// the expensive per-state and overview aggregations.
type QueryService struct {
	store       *dataset.Store
	cache       *cache.Cache
	stateTTL    time.Duration
	overviewTTL time.Duration
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewQueryService creates a query service over the shared dataset.
func NewQueryService(store *dataset.Store, c *cache.Cache, stateTTL, overviewTTL time.Duration, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *QueryService {
	return &QueryService{
		store:       store,
		cache:       c,
		stateTTL:    stateTTL,
		overviewTTL: overviewTTL,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// Snapshot exposes the current record set for consumers that run their own
// reductions (chat, trends).
func (s *QueryService) Snapshot() []models.Record {
	return s.store.Snapshot()
}

// States summarizes every loaded state.
func (s *QueryService) States(ctx context.Context) []StateSummary {
	const key = "states_overview"
	if v, ok := s.cache.Get(key); ok {
		s.metrics.CacheHitRatio.Set(s.cache.HitRatio())
		return v.([]StateSummary)
	}

	records := s.store.Snapshot()
	out := make([]StateSummary, 0, len(s.store.States()))
	for _, st := range s.store.States() {
		aggs := aggregate.StateAggregate(records, st)
		if aggs == nil {
			continue
		}
		subset := aggregate.StateRecords(records, st)
		out = append(out, StateSummary{
			State:               st,
			TotalGroundWaterHam: aggs[aggregate.ColTotalAvailability],
			NumDistricts:        aggregate.DistinctDistricts(subset),
		})
	}

	s.cache.Set(key, out, s.stateTTL)
	s.metrics.CacheHitRatio.Set(s.cache.HitRatio())
	return out
}

// StateAggregate sums the configured columns for one state.
func (s *QueryService) StateAggregate(ctx context.Context, state string) (*StateAggregateResponse, error) {
	key := "agg_state::" + state
	if v, ok := s.cache.Get(key); ok {
		return v.(*StateAggregateResponse), nil
	}

	timer := s.metrics.NewTimer(s.metrics.AggregationDuration)
	defer timer.ObserveDuration()

	records := s.store.Snapshot()
	aggs := aggregate.StateAggregate(records, state)
	if aggs == nil {
		return nil, &models.NotFoundError{Resource: "state", ID: state}
	}

	subset := aggregate.StateRecords(records, state)
	resp := &StateAggregateResponse{
		State:        canonicalCasing(subset, state),
		Aggregates:   aggs,
		NumDistricts: aggregate.DistinctDistricts(subset),
	}

	s.cache.Set(key, resp, s.stateTTL)
	return resp, nil
}

// StateDistricts sums the configured columns per district of one state.
func (s *QueryService) StateDistricts(ctx context.Context, state string) ([]DistrictAggregate, error) {
	key := "agg_state_districts::" + state
	if v, ok := s.cache.Get(key); ok {
		return v.([]DistrictAggregate), nil
	}

	timer := s.metrics.NewTimer(s.metrics.AggregationDuration)
	defer timer.ObserveDuration()

	records := s.store.Snapshot()
	subset := aggregate.StateRecords(records, state)
	if len(subset) == 0 {
		return nil, &models.NotFoundError{Resource: "state", ID: state}
	}

	// One grouped pass per column; group order follows the first column's
	// descending totals.
	first := aggregate.Grouped(subset, aggregate.Request{
		GroupBy: aggregate.ByDistrict,
		Metric:  aggregate.AggColumns[0],
		Kind:    aggregate.Sum,
	})

	byDistrict := make(map[string]map[string]float64, len(first))
	order := make([]string, 0, len(first))
	for _, res := range first {
		byDistrict[res.GroupKey] = map[string]float64{aggregate.AggColumns[0]: res.Value}
		order = append(order, res.GroupKey)
	}
	for _, col := range aggregate.AggColumns[1:] {
		for _, res := range aggregate.Grouped(subset, aggregate.Request{
			GroupBy: aggregate.ByDistrict,
			Metric:  col,
			Kind:    aggregate.Sum,
		}) {
			byDistrict[res.GroupKey][col] = res.Value
		}
	}

	out := make([]DistrictAggregate, 0, len(order))
	for _, d := range order {
		out = append(out, DistrictAggregate{District: d, Aggregates: byDistrict[d]})
	}

	s.cache.Set(key, out, s.stateTTL)
	return out, nil
}

// Overview computes the headline summary cards.
func (s *QueryService) Overview(ctx context.Context) models.Overview {
	const key = "overview"
	if v, ok := s.cache.Get(key); ok {
		return v.(models.Overview)
	}

	ov := aggregate.ComputeOverview(s.store.Snapshot())
	s.cache.Set(key, ov, s.overviewTTL)
	return ov
}

// Resolve maps a free-text label to a canonical state, counting tier hits.
func (s *QueryService) Resolve(ctx context.Context, candidate, suppliedState string) resolve.Resolution {
	res := resolve.Resolve(candidate, suppliedState, s.store.Snapshot())
	s.metrics.RecordResolution(string(res.Tier))
	if !res.Matched {
		s.logger.Debug(ctx, "[RESOLVE_MISS] No canonical state for label", logging.Fields{
			"candidate": candidate,
		})
	}
	return res
}

// InvalidateCache drops cached aggregates after a dataset reload.
func (s *QueryService) InvalidateCache() {
	s.cache.Invalidate()
	s.metrics.UpdateDatasetSize(s.store.Len(), s.store.Defects())
}

// canonicalCasing returns the dataset's casing for a state name; the request
// path segment may arrive lower-cased.
func canonicalCasing(subset []models.Record, requested string) string {
	for i := range subset {
		if subset[i].State != "" {
			return subset[i].State
		}
	}
	return requested
}
