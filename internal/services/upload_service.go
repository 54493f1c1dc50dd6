package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"groundwater-platform/internal/dataset"
	"groundwater-platform/internal/normalize"
	"groundwater-platform/pkg/logging"
	"groundwater-platform/pkg/metrics"
)

// UploadedFile describes one uploaded CSV kept on disk.
type UploadedFile struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	Rows       int       `json:"rows"`
	Defects    int       `json:"defects"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadResult summarizes one accepted upload.
type UploadResult struct {
	File          UploadedFile `json:"file"`
	Mode          string       `json:"mode"`
	TotalRecords  int          `json:"total_records"`
	DefectiveRows int          `json:"defective_rows"`
}

// UploadService accepts CSV uploads, keeps a copy on disk, and feeds the
// normalized rows into the shared dataset.
type UploadService struct {
	dir     string
	store   *dataset.Store
	query   *QueryService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu    sync.Mutex
	files []UploadedFile
}

// NewUploadService creates the upload service and its storage directory.
func NewUploadService(dir string, store *dataset.Store, query *QueryService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*UploadService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &UploadService{
		dir:     dir,
		store:   store,
		query:   query,
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// Accept normalizes an uploaded CSV and installs it into the dataset. Mode
// "replace" (the default) swaps the whole record set; "append" adds to it.
func (s *UploadService) Accept(ctx context.Context, filename string, content []byte, mode string) (*UploadResult, error) {
	batch, err := normalize.ReadCSV(bytes.NewReader(content))
	if err != nil {
		s.metrics.RecordIngestionError("upload_parse_error")
		return nil, fmt.Errorf("failed to parse uploaded csv: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+".csv")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	if mode == "append" {
		s.store.Append(batch.Records, batch.DefectiveRows)
	} else {
		mode = "replace"
		gen := s.store.BeginLoad()
		s.store.Replace(gen, batch.Records, filename, batch.DefectiveRows)
	}
	s.query.InvalidateCache()

	file := UploadedFile{
		ID:         id,
		Filename:   filename,
		SizeBytes:  int64(len(content)),
		Rows:       batch.TotalRows,
		Defects:    batch.DefectiveRows,
		UploadedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.files = append(s.files, file)
	s.mu.Unlock()

	s.logger.Info(ctx, "[UPLOAD_ACCEPTED] CSV upload installed", logging.Fields{
		"file_id":        id,
		"filename":       filename,
		"mode":           mode,
		"rows":           batch.TotalRows,
		"defective_rows": batch.DefectiveRows,
	})

	return &UploadResult{
		File:          file,
		Mode:          mode,
		TotalRecords:  s.store.Len(),
		DefectiveRows: batch.DefectiveRows,
	}, nil
}

// List returns the uploaded file inventory, newest first.
func (s *UploadService) List() []UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Files are appended in arrival order; reversing gives newest first
	// without depending on clock resolution.
	out := make([]UploadedFile, 0, len(s.files))
	for i := len(s.files) - 1; i >= 0; i-- {
		out = append(out, s.files[i])
	}
	return out
}
