// Package model implements the churn classifier trained on encoded snapshot
// matrices. The concrete model is a gradient-boosted tree ensemble with a
// logistic loss; everything upstream depends only on the Classifier
// interface so the algorithm can be swapped without touching the trainer or
// the predictor.
package model

import "errors"

var (
	// ErrNotFitted is returned when scoring an untrained model.
	ErrNotFitted = errors.New("model: not fitted")
	// ErrBadInput is returned for empty or inconsistently shaped training data.
	ErrBadInput = errors.New("model: bad input")
)

// Classifier is a binary probabilistic classifier over dense rows.
type Classifier interface {
	// Fit trains on rows X with binary labels y (0 or 1).
	Fit(X [][]float64, y []int) error
	// PredictProba returns the positive-class probability for each row.
	// Row width must match the training width.
	PredictProba(X [][]float64) ([]float64, error)
	// FeatureImportances returns one non-negative weight per training
	// column, summing to 1 when any split was made.
	FeatureImportances() ([]float64, error)
}
