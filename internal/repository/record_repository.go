package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"

	"groundwater-platform/internal/models"
	"groundwater-platform/pkg/database"
	"groundwater-platform/pkg/logging"
	"groundwater-platform/pkg/metrics"
)

// RecordRepository provides data access for persisted groundwater records.
// The API server serves from the in-memory dataset; this store backs the
// ingester CLI and offline analytics.
type RecordRepository interface {
	CreateRecordsBatch(ctx context.Context, records []models.Record, sourceFile string, startRow int) error
	GetRecords(ctx context.Context, filter RecordFilter) ([]models.Record, int, error)
	DistinctStates(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// RecordFilter defines filters for querying persisted records.
type RecordFilter struct {
	State    *string
	District *string
	Limit    int
	Offset   int
}

// recordRow is the database shape of a record; the free-form metric map is
// stored as JSONB.
type recordRow struct {
	ID         int64          `db:"id"`
	SourceFile string         `db:"source_file"`
	RowNum     int            `db:"row_num"`
	State      string         `db:"state"`
	District   string         `db:"district"`
	WaterLevel *float64       `db:"water_level_m"`
	Wells      int            `db:"wells"`
	RecordedOn *time.Time     `db:"recorded_on"`
	Metrics    types.JSONText `db:"metrics"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r *recordRow) toRecord() (models.Record, error) {
	rec := models.Record{
		State:    r.State,
		District: r.District,
		Level:    r.WaterLevel,
		Wells:    r.Wells,
		Date:     r.RecordedOn,
		Metrics:  make(map[string]models.MetricValue),
	}
	if len(r.Metrics) > 0 {
		if err := json.Unmarshal(r.Metrics, &rec.Metrics); err != nil {
			return rec, fmt.Errorf("failed to decode metrics: %w", err)
		}
	}
	return rec, nil
}

type recordRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRecordRepository creates a Postgres-backed record repository.
func NewRecordRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) RecordRepository {
	return &recordRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateRecordsBatch inserts records in one transaction. The (source_file,
// row_num) key makes re-ingesting the same export idempotent.
func (r *recordRepository) CreateRecordsBatch(ctx context.Context, records []models.Record, sourceFile string, startRow int) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(records),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO groundwater_records (
			source_file, row_num, state, district,
			water_level_m, wells, recorded_on, metrics, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_file, row_num) DO UPDATE SET
			state = EXCLUDED.state,
			district = EXCLUDED.district,
			water_level_m = EXCLUDED.water_level_m,
			wells = EXCLUDED.wells,
			recorded_on = EXCLUDED.recorded_on,
			metrics = EXCLUDED.metrics
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, rec := range records {
		metricsJSON, err := json.Marshal(rec.Metrics)
		if err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			sourceFile,
			startRow+i,
			rec.State,
			rec.District,
			rec.Level,
			rec.Wells,
			rec.Date,
			types.JSONText(metricsJSON),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(records)))
	return nil
}

// GetRecords retrieves persisted records with filtering and pagination.
func (r *recordRepository) GetRecords(ctx context.Context, filter RecordFilter) ([]models.Record, int, error) {
	query := `
		SELECT id, source_file, row_num, state, district,
		       water_level_m, wells, recorded_on, metrics, created_at
		FROM groundwater_records
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.State != nil {
		query += fmt.Sprintf(" AND lower(state) = lower($%d)", argNum)
		args = append(args, *filter.State)
		argNum++
	}
	if filter.District != nil {
		query += fmt.Sprintf(" AND lower(district) = lower($%d)", argNum)
		args = append(args, *filter.District)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	if err := r.db.GetContext(ctx, "count_records", &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	query += " ORDER BY source_file, row_num"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var rows []recordRow
	if err := r.db.SelectContext(ctx, "get_records", &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get records: %w", err)
	}

	records := make([]models.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}

	return records, totalCount, nil
}

// DistinctStates lists the distinct state names in the store.
func (r *recordRepository) DistinctStates(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT state
		FROM groundwater_records
		WHERE state <> ''
		ORDER BY state
	`

	var states []string
	if err := r.db.SelectContext(ctx, "distinct_states", &states, query); err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	return states, nil
}

// HealthCheck performs a repository health check.
func (r *recordRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
