package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"groundwater-platform/internal/normalize"
	"groundwater-platform/internal/repository"
	"groundwater-platform/pkg/logging"
	"groundwater-platform/pkg/metrics"
)

// IngestionService loads groundwater CSV exports into the Postgres store.
type IngestionService struct {
	repo    repository.RecordRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics.
type IngestionResult struct {
	TotalRows     int
	StoredRecords int
	DefectiveRows int
	Duration      time.Duration
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(repo repository.RecordRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestFile normalizes one CSV export and writes it to the store in batches.
// Rows missing core fields are stored anyway (they still count toward totals)
// but reported as defective.
func (s *IngestionService) IngestFile(ctx context.Context, path string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting CSV ingestion", logging.Fields{
		"file_path":  path,
		"batch_size": batchSize,
	})

	f, err := os.Open(path)
	if err != nil {
		s.metrics.RecordIngestionError("open_error")
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	batch, err := normalize.ReadCSV(f)
	if err != nil {
		s.metrics.RecordIngestionError("parse_error")
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	sourceFile := filepath.Base(path)
	result := &IngestionResult{
		TotalRows:     batch.TotalRows,
		DefectiveRows: batch.DefectiveRows,
	}

	for start := 0; start < len(batch.Records); start += batchSize {
		end := start + batchSize
		if end > len(batch.Records) {
			end = len(batch.Records)
		}
		if err := s.repo.CreateRecordsBatch(ctx, batch.Records[start:end], sourceFile, start); err != nil {
			s.metrics.RecordIngestionError("insert_error")
			return nil, fmt.Errorf("failed to insert batch: %w", err)
		}
		result.StoredRecords += end - start
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] CSV ingestion completed", logging.Fields{
		"file_path":      path,
		"total_rows":     result.TotalRows,
		"stored_records": result.StoredRecords,
		"defective_rows": result.DefectiveRows,
		"duration_ms":    result.Duration.Milliseconds(),
	})

	return result, nil
}
