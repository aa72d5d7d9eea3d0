// Package training fits the churn classifier on a snapshot dataset and
// reports holdout performance. The canonical feature schema is derived here
// and travels with the model artifact; prediction conforms to it.
package training

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/feature"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/model"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/observability"
)

// ErrTooFewExamples is returned when the dataset cannot sustain a holdout split.
var ErrTooFewExamples = errors.New("training: too few examples")

// Options configure a training run.
type Options struct {
	// TestFraction of rows held out for evaluation, stratified by label.
	TestFraction float64
	// Threshold converts holdout probabilities to labels for the report.
	Threshold float64
	// Seed drives the split shuffle; the model carries its own seed.
	Seed int64
	// Model are the boosted-ensemble settings.
	Model model.GBTParams
}

// DefaultOptions are the production training settings.
func DefaultOptions() Options {
	return Options{
		TestFraction: 0.25,
		Threshold:    0.5,
		Seed:         42,
		Model:        model.DefaultGBTParams(),
	}
}

// FeatureImportance pairs an encoded column with its normalized weight.
type FeatureImportance struct {
	Column string  `json:"column"`
	Weight float64 `json:"weight"`
}

// Result is a completed training run: the fitted model, the schema every
// future prediction must conform to, and the holdout report.
type Result struct {
	Model       *model.GBT
	Schema      *feature.Schema
	Report      Report
	Importances []FeatureImportance
	TrainRows   int
	TestRows    int
}

// Trainer encodes, splits, fits and evaluates.
type Trainer struct {
	encoder *feature.Encoder
	opts    Options
	logger  *log.Logger
}

// NewTrainer creates a Trainer. A nil encoder uses the default feature lists.
func NewTrainer(encoder *feature.Encoder, opts Options, logger *log.Logger) *Trainer {
	if encoder == nil {
		encoder = feature.NewEncoder()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Trainer{encoder: encoder, opts: opts, logger: logger}
}

// Run trains on the full snapshot dataset.
func (t *Trainer) Run(examples []*domain.SnapshotExample) (*Result, error) {
	started := time.Now()
	res, err := t.run(examples)
	if err != nil {
		observability.RecordTrainingRun("error", time.Since(started).Seconds())
		return nil, err
	}
	observability.RecordTrainingRun("success", time.Since(started).Seconds())
	return res, nil
}

func (t *Trainer) run(examples []*domain.SnapshotExample) (*Result, error) {
	if len(examples) < 4 {
		return nil, fmt.Errorf("%w: %d", ErrTooFewExamples, len(examples))
	}

	matrix, schema, err := t.encoder.FitTransform(feature.TableFromExamples(examples))
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	y := feature.Labels(examples)

	trainIdx, testIdx, err := StratifiedSplit(y, t.opts.TestFraction, t.opts.Seed)
	if err != nil {
		return nil, err
	}
	t.logger.Printf("[training] %d examples, %d columns, %d train / %d test",
		matrix.Rows(), matrix.Cols(), len(trainIdx), len(testIdx))

	clf := model.NewGBT(t.opts.Model)
	if err := clf.Fit(selectRows(matrix.Data, trainIdx), selectLabels(y, trainIdx)); err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	var report Report
	if len(testIdx) > 0 {
		probs, err := clf.PredictProba(selectRows(matrix.Data, testIdx))
		if err != nil {
			return nil, fmt.Errorf("score holdout: %w", err)
		}
		report = Evaluate(selectLabels(y, testIdx), probs, t.opts.Threshold)
		if report.AUCValid {
			t.logger.Printf("[training] holdout accuracy=%.3f auc=%.3f", report.Accuracy, report.ROCAUC)
		} else {
			t.logger.Printf("[training] holdout accuracy=%.3f (single-class holdout, auc undefined)", report.Accuracy)
		}
	}

	importances, err := rankedImportances(clf, schema)
	if err != nil {
		return nil, err
	}

	return &Result{
		Model:       clf,
		Schema:      schema,
		Report:      report,
		Importances: importances,
		TrainRows:   len(trainIdx),
		TestRows:    len(testIdx),
	}, nil
}

// rankedImportances pairs weights with column names, heaviest first.
func rankedImportances(clf model.Classifier, schema *feature.Schema) ([]FeatureImportance, error) {
	weights, err := clf.FeatureImportances()
	if err != nil {
		return nil, fmt.Errorf("feature importances: %w", err)
	}
	out := make([]FeatureImportance, len(weights))
	for i, w := range weights {
		out[i] = FeatureImportance{Column: schema.Columns[i], Weight: w}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Weight > out[b].Weight })
	return out, nil
}
