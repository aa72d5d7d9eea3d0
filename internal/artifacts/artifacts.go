// Package artifacts persists the outputs of a training run: the fitted
// model and the canonical feature schema, as two JSON files in an artifact
// directory. Loading restores exactly what training produced; the schema
// fingerprint ties a model file to the schema it was trained against.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/feature"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/model"
)

const (
	ModelFile  = "churn_model.json"
	SchemaFile = "feature_schema.json"
)

var (
	// ErrNotFound is returned when an artifact file is missing; the message
	// names the path that was tried.
	ErrNotFound = errors.New("artifacts: not found")
	// ErrSchemaMismatch is returned when the model and schema files do not
	// belong to the same training run.
	ErrSchemaMismatch = errors.New("artifacts: model/schema fingerprint mismatch")
)

// modelEnvelope wraps the serialized model with run metadata.
type modelEnvelope struct {
	TrainedAt         time.Time  `json:"trained_at"`
	SchemaFingerprint string     `json:"schema_fingerprint"`
	Model             *model.GBT `json:"model"`
}

// schemaEnvelope wraps the schema with its own fingerprint for integrity.
type schemaEnvelope struct {
	Fingerprint string   `json:"fingerprint"`
	Columns     []string `json:"columns"`
}

// Bundle is a trained model plus the schema it expects.
type Bundle struct {
	Model     *model.GBT
	Schema    *feature.Schema
	TrainedAt time.Time
}

// Save writes the bundle under dir, creating it if needed. Existing
// artifacts are overwritten.
func Save(dir string, b *Bundle) error {
	if b == nil || b.Model == nil || b.Schema == nil {
		return fmt.Errorf("artifacts: incomplete bundle")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	trainedAt := b.TrainedAt
	if trainedAt.IsZero() {
		trainedAt = time.Now().UTC()
	}
	fp := b.Schema.Fingerprint()

	if err := writeJSON(filepath.Join(dir, SchemaFile), schemaEnvelope{
		Fingerprint: fp,
		Columns:     b.Schema.Columns,
	}); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ModelFile), modelEnvelope{
		TrainedAt:         trainedAt,
		SchemaFingerprint: fp,
		Model:             b.Model,
	})
}

// Load reads the bundle from dir and verifies the model/schema pairing.
func Load(dir string) (*Bundle, error) {
	var se schemaEnvelope
	if err := readJSON(filepath.Join(dir, SchemaFile), &se); err != nil {
		return nil, err
	}
	var me modelEnvelope
	if err := readJSON(filepath.Join(dir, ModelFile), &me); err != nil {
		return nil, err
	}
	if me.Model == nil {
		return nil, fmt.Errorf("artifacts: %s has no model payload", ModelFile)
	}

	schema := feature.NewSchema(se.Columns)
	fp := schema.Fingerprint()
	if se.Fingerprint != "" && se.Fingerprint != fp {
		return nil, fmt.Errorf("%w: schema file fingerprint %s, computed %s", ErrSchemaMismatch, se.Fingerprint, fp)
	}
	if me.SchemaFingerprint != "" && me.SchemaFingerprint != fp {
		return nil, fmt.Errorf("%w: model expects %s, schema is %s", ErrSchemaMismatch, me.SchemaFingerprint, fp)
	}

	return &Bundle{Model: me.Model, Schema: schema, TrainedAt: me.TrainedAt}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
