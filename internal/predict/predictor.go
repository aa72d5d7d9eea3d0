// Package predict scores donors with a trained churn model. Every input is
// conformed to the model's canonical feature schema before scoring, so
// category values unseen at training time and missing columns cannot shift
// the matrix shape under the model.
package predict

import (
	"errors"
	"fmt"
	"time"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/feature"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/model"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/observability"
)

// Risk labels a probability relative to the decision threshold.
const (
	RiskLikely   = "Likely"
	RiskUnlikely = "Unlikely"
)

// ErrNoModel is returned when the predictor is constructed without artifacts.
var ErrNoModel = errors.New("predict: no model")

// Prediction is one scored donor snapshot.
type Prediction struct {
	AccountID    string    `json:"account_id"`
	SnapshotDate time.Time `json:"snapshot_date"`
	Probability  float64   `json:"probability"`
	Risk         string    `json:"risk"`
}

// Options configure scoring.
type Options struct {
	// Threshold splits probabilities into risk labels.
	Threshold float64
}

// DefaultOptions use the standard 0.5 decision threshold.
func DefaultOptions() Options {
	return Options{Threshold: 0.5}
}

// Predictor scores snapshot examples against a fixed model and schema.
type Predictor struct {
	clf       model.Classifier
	schema    *feature.Schema
	encoder   *feature.Encoder
	threshold float64
}

// NewPredictor creates a Predictor. A nil encoder uses the default feature
// lists; the model and schema are required.
func NewPredictor(clf model.Classifier, schema *feature.Schema, encoder *feature.Encoder, opts Options) (*Predictor, error) {
	if clf == nil || schema == nil {
		return nil, ErrNoModel
	}
	if encoder == nil {
		encoder = feature.NewEncoder()
	}
	threshold := opts.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultOptions().Threshold
	}
	return &Predictor{clf: clf, schema: schema, encoder: encoder, threshold: threshold}, nil
}

// Threshold returns the active decision threshold.
func (p *Predictor) Threshold() float64 { return p.threshold }

// Schema returns the canonical schema predictions conform to.
func (p *Predictor) Schema() *feature.Schema { return p.schema }

// Predict scores examples in input order.
func (p *Predictor) Predict(examples []*domain.SnapshotExample) ([]Prediction, error) {
	if len(examples) == 0 {
		return nil, nil
	}
	started := time.Now()

	matrix, err := p.encoder.Transform(feature.TableFromExamples(examples), p.schema)
	if err != nil {
		return nil, fmt.Errorf("conform features: %w", err)
	}
	probs, err := p.clf.PredictProba(matrix.Data)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	out := make([]Prediction, len(examples))
	risks := make([]string, len(examples))
	for i, e := range examples {
		risk := RiskUnlikely
		if probs[i] >= p.threshold {
			risk = RiskLikely
		}
		out[i] = Prediction{
			AccountID:    e.AccountID,
			SnapshotDate: e.SnapshotDate,
			Probability:  probs[i],
			Risk:         risk,
		}
		risks[i] = risk
	}
	observability.RecordPredictions(risks, time.Since(started).Seconds())
	return out, nil
}
