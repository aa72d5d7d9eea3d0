// Package main provides the batch scoring entry point: load a trained
// model, rebuild features as of a date, and write risk labels to CSV.
package main

import (
	"context"
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
	"github.com/will-brgs/EiC-HomeSweetHome/internal/predict"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/reporting"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/snapshot"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage/memory"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (defaults used when empty)")
	transactionsCSV := flag.String("transactions", "", "Path to transactions CSV (required)")
	donorsCSV := flag.String("donors", "", "Path to donor demographics CSV (optional)")
	artifactsDir := flag.String("artifacts-dir", "", "Model artifact directory (overrides config)")
	asOf := flag.String("as-of", "", "Snapshot date YYYY-MM-DD (defaults to the ledger's latest date)")
	out := flag.String("out", "predictions.csv", "Output predictions CSV path")
	flag.Parse()

	logger := log.New(os.Stdout, "[predict] ", log.LstdFlags)

	if *transactionsCSV == "" {
		logger.Fatal("--transactions is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *artifactsDir != "" {
		cfg.Artifacts.Dir = *artifactsDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling...\n", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *transactionsCSV, *donorsCSV, *asOf, *out, logger); err != nil {
		logger.Fatalf("Scoring failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, transactionsCSV, donorsCSV, asOf, out string, logger *log.Logger) error {
	bundle, err := artifacts.Load(cfg.Artifacts.Dir)
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}
	logger.Printf("Model loaded (trained %s, fingerprint %s)",
		bundle.TrainedAt.Format("2006-01-02"), bundle.Schema.Fingerprint())

	// Scoring reads the CSVs directly; no database round-trip needed.
	txStore := memory.NewTransactionStore()
	donorStore := memory.NewDonorStore()
	loader := ingestion.NewLoader(txStore, donorStore, logger)

	txns, err := loader.LoadTransactions(ctx, transactionsCSV)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	logger.Printf("Transactions loaded: %d", len(txns))
	if donorsCSV != "" {
		if _, err := loader.LoadDonors(ctx, donorsCSV); err != nil {
			return fmt.Errorf("load donors: %w", err)
		}
	}

	snapDate, err := resolveAsOf(ctx, txStore, asOf)
	if err != nil {
		return err
	}
	logger.Printf("Scoring as of %s", snapDate.Format("2006-01-02"))

	params, err := cfg.BuilderParams()
	if err != nil {
		return err
	}
	builder := snapshot.NewBuilder(txStore, donorStore, params)
	examples, err := builder.BuildAt(ctx, snapDate)
	if err != nil {
		return fmt.Errorf("build features: %w", err)
	}

	predictor, err := predict.NewPredictor(bundle.Model, bundle.Schema, cfg.Encoder(),
		predict.Options{Threshold: cfg.Training.Threshold})
	if err != nil {
		return err
	}
	preds, err := predictor.Predict(examples)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	likely := 0
	for _, p := range preds {
		if p.Risk == predict.RiskLikely {
			likely++
		}
	}
	logger.Printf("Scored %d accounts: %d likely to churn, %d unlikely",
		len(preds), likely, len(preds)-likely)

	if err := writePredictionsCSV(out, examples, preds); err != nil {
		return err
	}
	logger.Printf("Predictions written to %s", out)
	return nil
}

// resolveAsOf parses the flag, or falls back to the latest transaction date.
func resolveAsOf(ctx context.Context, txStore *memory.TransactionStore, asOf string) (time.Time, error) {
	if asOf != "" {
		d, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse --as-of: %w", err)
		}
		return d, nil
	}
	_, maxDate, err := txStore.GetDateRange(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("ledger date range: %w", err)
	}
	return maxDate, nil
}

func writePredictionsCSV(path string, examples []*domain.SnapshotExample, preds []predict.Prediction) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := reporting.WritePredictionsCSV(f, examples, preds); err != nil {
		f.Close()
		return fmt.Errorf("write predictions csv: %w", err)
	}
	return f.Close()
}
