package reporting

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/predict"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/training"
)

func strPtr(s string) *string { return &s }

func TestWriteDatasetCSV(t *testing.T) {
	examples := []*domain.SnapshotExample{
		{
			AccountID:    "A001",
			SnapshotDate: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
			FirstTxDate:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			LastTxDate:   time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
			TenureDays:   59,
			RecencyDays:  0,
			NTxnPast:     3,
			SumAmtPast:   300,
			AvgAmtPast:   100,
			StdAmtPast:   0,
			ChurnLabel:   1,
			State:        strPtr("CA"),
			Employer:     strPtr("Acme, Inc."),
		},
		{
			AccountID:    "A002",
			SnapshotDate: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
			FirstTxDate:  time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			LastTxDate:   time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDatasetCSV(&buf, examples))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Account Number", rows[0][0])
	assert.Equal(t, "churn_label", rows[0][10])

	assert.Equal(t, "A001", rows[1][0])
	assert.Equal(t, "2023-03-01", rows[1][1])
	assert.Equal(t, "59", rows[1][4])
	assert.Equal(t, "300.00", rows[1][7])
	assert.Equal(t, "1", rows[1][10])
	assert.Equal(t, "CA", rows[1][11])
	// Comma inside the cell survives quoting.
	assert.Equal(t, "Acme, Inc.", rows[1][14])

	// Missing demographics render as empty cells.
	assert.Equal(t, "", rows[2][11])
	assert.Equal(t, "", rows[2][14])
}

func TestWritePredictionsCSV(t *testing.T) {
	snap := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	examples := []*domain.SnapshotExample{
		{
			AccountID:    "A001",
			SnapshotDate: snap,
			TenureDays:   400,
			RecencyDays:  85,
			NTxnPast:     6,
			SumAmtPast:   600,
			AvgAmtPast:   100,
			StdAmtPast:   12.5,
			State:        strPtr("MO"),
			Zip:          strPtr("63122"),
			Employer:     strPtr("Acme"),
		},
		{AccountID: "A002", SnapshotDate: snap, RecencyDays: 3},
	}
	preds := []predict.Prediction{
		{AccountID: "A001", SnapshotDate: snap, Probability: 0.834512, Risk: predict.RiskLikely},
		{AccountID: "A002", SnapshotDate: snap, Probability: 0.12, Risk: predict.RiskUnlikely},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePredictionsCSV(&buf, examples, preds))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Input feature columns carry through, then score and label.
	assert.Equal(t, "Account Number", rows[0][0])
	assert.Equal(t, "recency_days", rows[0][3])
	assert.Equal(t, "churn_probability", rows[0][13])
	assert.Equal(t, "churn_risk", rows[0][14])

	assert.Equal(t, "A001", rows[1][0])
	assert.Equal(t, "85", rows[1][3])
	assert.Equal(t, "600.00", rows[1][5])
	assert.Equal(t, "MO", rows[1][8])
	assert.Equal(t, "63122", rows[1][9])
	assert.Equal(t, "0.834512", rows[1][13])
	assert.Equal(t, "Likely", rows[1][14])

	assert.Equal(t, "", rows[2][8])
	assert.Equal(t, "Unlikely", rows[2][14])
}

func TestWritePredictionsCSV_LengthMismatch(t *testing.T) {
	err := WritePredictionsCSV(&bytes.Buffer{}, []*domain.SnapshotExample{{AccountID: "A001"}}, nil)
	assert.Error(t, err)
}

func TestRenderTrainingMarkdown(t *testing.T) {
	r := &TrainingReport{
		GeneratedAt:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		DatasetRows:       120,
		TrainRows:         90,
		TestRows:          30,
		ChurnRate:         0.5,
		Threshold:         0.5,
		SchemaFingerprint: "4uQeVj5t",
		SchemaColumns:     11,
		Holdout: training.Report{
			Accuracy: 0.933,
			ROCAUC:   0.97,
			AUCValid: true,
			Retained: training.ClassMetrics{Precision: 0.9, Recall: 0.95, F1: 0.92, Support: 15},
			Churned:  training.ClassMetrics{Precision: 0.96, Recall: 0.92, F1: 0.94, Support: 15},
			N:        30,
		},
		Importances: []training.FeatureImportance{
			{Column: "recency_days", Weight: 0.6},
			{Column: "tenure_days", Weight: 0.4},
		},
	}

	md := RenderTrainingMarkdown(r)
	assert.Contains(t, md, "# Churn Model Training Report")
	assert.Contains(t, md, "| Snapshot Examples | 120 |")
	assert.Contains(t, md, "| ROC AUC | 0.970 |")
	assert.Contains(t, md, "| recency_days | 0.6000 |")
	assert.Contains(t, md, "`4uQeVj5t`")
}

func TestRenderTrainingMarkdown_NoAUC(t *testing.T) {
	r := &TrainingReport{
		GeneratedAt: time.Now(),
		Holdout:     training.Report{Accuracy: 1, AUCValid: false},
	}
	md := RenderTrainingMarkdown(r)
	assert.Contains(t, md, "n/a (single-class holdout)")
}
