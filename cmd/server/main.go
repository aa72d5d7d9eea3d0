// Package main provides the prediction HTTP server entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/api"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/artifacts"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/config"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/predict"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	configPath := flag.String("config", os.Getenv("CHURN_CONFIG"), "Path to YAML config file")
	artifactsDir := flag.String("artifacts-dir", os.Getenv("CHURN_ARTIFACTS_DIR"), "Model artifact directory (overrides config)")
	addr := flag.String("addr", os.Getenv("CHURN_ADDR"), "HTTP listen address (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *artifactsDir != "" {
		cfg.Artifacts.Dir = *artifactsDir
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	bundle, err := artifacts.Load(cfg.Artifacts.Dir)
	if err != nil {
		logger.Fatalf("Failed to load model artifacts from %s: %v", cfg.Artifacts.Dir, err)
	}
	logger.Printf("Model loaded (trained %s, fingerprint %s, %d columns)",
		bundle.TrainedAt.Format(time.RFC3339), bundle.Schema.Fingerprint(), len(bundle.Schema.Columns))

	predictor, err := predict.NewPredictor(bundle.Model, bundle.Schema, cfg.Encoder(),
		predict.Options{Threshold: cfg.Training.Threshold})
	if err != nil {
		logger.Fatalf("Failed to create predictor: %v", err)
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(api.Deps{
			Predictor: predictor,
			TrainedAt: bundle.TrainedAt,
			Logger:    logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Listening on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Fatalf("Shutdown error: %v", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}

	logger.Println("Shutdown complete")
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
