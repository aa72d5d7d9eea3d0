// Package main provides the training pipeline entry point.
// Executes: ingestion → snapshot dataset → training → artifacts → reporting
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/artifacts"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/config"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/ingestion"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/observability"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/reporting"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/snapshot"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage/clickhouse"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage/memory"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage/migrations"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage/postgres"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/training"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (defaults used when empty)")
	transactionsCSV := flag.String("transactions", "", "Path to transactions CSV (required unless the database backend already holds the ledger)")
	donorsCSV := flag.String("donors", "", "Path to donor demographics CSV (optional)")
	artifactsDir := flag.String("artifacts-dir", "", "Model artifact directory (overrides config)")
	datasetOut := flag.String("dataset-out", "", "Write the snapshot dataset CSV to this path")
	reportOut := flag.String("report-out", "", "Write the training report Markdown to this path")
	flag.Parse()

	logger := log.New(os.Stdout, "[train] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *transactionsCSV == "" && cfg.Storage.Backend == config.BackendMemory {
		logger.Fatal("--transactions is required with the memory backend")
	}
	if *artifactsDir != "" {
		cfg.Artifacts.Dir = *artifactsDir
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling...\n", sig)
		cancel()
	}()

	stores, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if err := run(ctx, cfg, stores, *transactionsCSV, *donorsCSV, *datasetOut, *reportOut, logger); err != nil {
		logger.Fatalf("Training pipeline failed: %v", err)
	}
}

// pipelineStores groups the storage interfaces the pipeline needs.
type pipelineStores struct {
	transactions storage.TransactionStore
	donors       storage.DonorStore
	examples     storage.SnapshotExampleStore
}

// createStores wires the configured backend: in-memory, or PostgreSQL for
// the ledger and donor profiles plus ClickHouse for snapshot examples.
func createStores(ctx context.Context, cfg *config.Config) (*pipelineStores, func(), error) {
	if cfg.Storage.Backend == config.BackendMemory {
		return &pipelineStores{
			transactions: memory.NewTransactionStore(),
			donors:       memory.NewDonorStore(),
			examples:     memory.NewSnapshotExampleStore(),
		}, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &pipelineStores{
		transactions: postgres.NewTransactionStore(pool),
		donors:       postgres.NewDonorStore(pool),
	}
	cleanup := func() { pool.Close() }

	if cfg.Storage.ClickhouseDSN == "" {
		// No example warehouse configured; keep the generated dataset in memory.
		stores.examples = memory.NewSnapshotExampleStore()
		return stores, cleanup, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	stores.examples = clickhouse.NewSnapshotExampleStore(conn)
	return stores, func() {
		_ = conn.Close()
		pool.Close()
	}, nil
}

func run(ctx context.Context, cfg *config.Config, stores *pipelineStores,
	transactionsCSV, donorsCSV, datasetOut, reportOut string, logger *log.Logger) error {

	// Phase 1: Ingestion. Skipped entirely when the ledger already lives in
	// the configured database.
	if transactionsCSV != "" {
		fmt.Println("=== Ingestion ===")
		loader := ingestion.NewLoader(stores.transactions, stores.donors, logger)
		txns, err := loader.LoadTransactions(ctx, transactionsCSV)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		fmt.Printf("Transactions loaded: %d\n", len(txns))

		if donorsCSV != "" {
			donors, err := loader.LoadDonors(ctx, donorsCSV)
			if err != nil {
				return fmt.Errorf("load donors: %w", err)
			}
			fmt.Printf("Donor profiles loaded: %d\n", len(donors))
		}
	}

	// Phase 2: Snapshot dataset
	fmt.Println("\n=== Snapshot Dataset ===")
	params, err := cfg.BuilderParams()
	if err != nil {
		return err
	}
	builder := snapshot.NewBuilder(stores.transactions, stores.donors, params)

	buildStart := time.Now()
	examples, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	observability.RecordSnapshotBuild(len(examples), time.Since(buildStart).Seconds())
	fmt.Printf("Examples: %d (churn rate %.1f%%)\n", len(examples), 100*churnRate(examples))

	if err := stores.examples.InsertBulk(ctx, examples); err != nil {
		// Re-runs over an already-built dataset are fine; anything else is not.
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("store examples: %w", err)
		}
		logger.Printf("snapshot examples already stored, skipping persist")
	}
	if datasetOut != "" {
		if err := writeDatasetCSV(datasetOut, examples); err != nil {
			return err
		}
		fmt.Printf("Dataset CSV: %s\n", datasetOut)
	}

	// Phase 3: Training
	fmt.Println("\n=== Training ===")
	trainer := training.NewTrainer(cfg.Encoder(), cfg.TrainingOptions(), logger)
	result, err := trainer.Run(examples)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	fmt.Printf("Train rows: %d, test rows: %d\n", result.TrainRows, result.TestRows)
	fmt.Printf("Holdout accuracy: %.3f\n", result.Report.Accuracy)
	if result.Report.AUCValid {
		fmt.Printf("Holdout ROC AUC: %.3f\n", result.Report.ROCAUC)
	}

	// Phase 4: Artifacts
	fmt.Println("\n=== Artifacts ===")
	trainedAt := time.Now().UTC()
	bundle := &artifacts.Bundle{Model: result.Model, Schema: result.Schema, TrainedAt: trainedAt}
	if err := artifacts.Save(cfg.Artifacts.Dir, bundle); err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}
	fmt.Printf("Model + schema written to %s (fingerprint %s)\n",
		cfg.Artifacts.Dir, result.Schema.Fingerprint())

	// Phase 5: Reporting
	if reportOut != "" {
		fmt.Println("\n=== Reporting ===")
		report := &reporting.TrainingReport{
			GeneratedAt:       trainedAt,
			DatasetRows:       len(examples),
			TrainRows:         result.TrainRows,
			TestRows:          result.TestRows,
			ChurnRate:         churnRate(examples),
			Threshold:         cfg.Training.Threshold,
			SchemaFingerprint: result.Schema.Fingerprint(),
			SchemaColumns:     len(result.Schema.Columns),
			Holdout:           result.Report,
			Importances:       result.Importances,
		}
		if err := writeFile(reportOut, []byte(reporting.RenderTrainingMarkdown(report))); err != nil {
			return err
		}
		fmt.Printf("Training report: %s\n", reportOut)
	}

	return nil
}

func churnRate(examples []*domain.SnapshotExample) float64 {
	if len(examples) == 0 {
		return 0
	}
	churned := 0
	for _, e := range examples {
		if e.ChurnLabel == 1 {
			churned++
		}
	}
	return float64(churned) / float64(len(examples))
}

func writeDatasetCSV(path string, examples []*domain.SnapshotExample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := reporting.WriteDatasetCSV(f, examples); err != nil {
		f.Close()
		return fmt.Errorf("write dataset csv: %w", err)
	}
	return f.Close()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
