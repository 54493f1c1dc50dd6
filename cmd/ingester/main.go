package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"groundwater-platform/internal/config"
	"groundwater-platform/internal/repository"
	"groundwater-platform/internal/services"
	"groundwater-platform/pkg/database"
	"groundwater-platform/pkg/logging"
	"groundwater-platform/pkg/metrics"
)

func main() {
	csvPath := flag.String("csv", "", "Path to the groundwater report CSV (defaults to the configured candidates)")
	batchSize := flag.Int("batch-size", 1000, "Number of records to insert in each batch")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("groundwater-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()

	path := *csvPath
	if path == "" {
		for _, candidate := range cfg.Data.CSVCandidates() {
			if _, statErr := os.Stat(candidate); statErr == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "No report CSV found; pass -csv or set INGRIS_CSV")
		os.Exit(1)
	}

	logger.Info(ctx, "[INGESTER_START] Starting groundwater data ingestion", logging.Fields{
		"version":    "1.0.0",
		"csv_path":   path,
		"batch_size": *batchSize,
	})

	metricsCollector := metrics.NewCollector("groundwater_ingester")

	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	recordRepo := repository.NewRecordRepository(db, logger, metricsCollector)
	ingestionService := services.NewIngestionService(recordRepo, logger, metricsCollector)

	result, err := ingestionService.IngestFile(ctx, path, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"csv_path": path,
		}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Rows:       %d\n", result.TotalRows)
	fmt.Printf("Stored Records:   %d\n", result.StoredRecords)
	fmt.Printf("Defective Rows:   %d\n", result.DefectiveRows)
	fmt.Printf("Duration:         %v\n", result.Duration)
	if result.Duration.Seconds() > 0 {
		fmt.Printf("Records/Second:   %.2f\n", float64(result.StoredRecords)/result.Duration.Seconds())
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_rows":       result.TotalRows,
		"stored_records":   result.StoredRecords,
		"defective_rows":   result.DefectiveRows,
		"duration_seconds": result.Duration.Seconds(),
	})
}
