package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/training"
)

// TrainingReport bundles everything worth writing down about a training run.
type TrainingReport struct {
	GeneratedAt       time.Time
	DatasetRows       int
	TrainRows         int
	TestRows          int
	ChurnRate         float64
	Threshold         float64
	SchemaFingerprint string
	SchemaColumns     int
	Holdout           training.Report
	Importances       []training.FeatureImportance
}

// RenderTrainingMarkdown renders the training report as a Markdown string.
func RenderTrainingMarkdown(r *TrainingReport) string {
	var sb strings.Builder

	sb.WriteString("# Churn Model Training Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Dataset\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Snapshot Examples | %d |\n", r.DatasetRows))
	sb.WriteString(fmt.Sprintf("| Training Rows | %d |\n", r.TrainRows))
	sb.WriteString(fmt.Sprintf("| Holdout Rows | %d |\n", r.TestRows))
	sb.WriteString(fmt.Sprintf("| Churn Rate | %.3f |\n", r.ChurnRate))
	sb.WriteString(fmt.Sprintf("| Encoded Columns | %d |\n", r.SchemaColumns))
	sb.WriteString(fmt.Sprintf("| Schema Fingerprint | `%s` |\n", r.SchemaFingerprint))
	sb.WriteString("\n")

	sb.WriteString("## Holdout Performance\n\n")
	sb.WriteString(fmt.Sprintf("Decision threshold: %.2f\n\n", r.Threshold))
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Accuracy | %.3f |\n", r.Holdout.Accuracy))
	if r.Holdout.AUCValid {
		sb.WriteString(fmt.Sprintf("| ROC AUC | %.3f |\n", r.Holdout.ROCAUC))
	} else {
		sb.WriteString("| ROC AUC | n/a (single-class holdout) |\n")
	}
	sb.WriteString("\n")

	sb.WriteString("| Class | Precision | Recall | F1 | Support |\n")
	sb.WriteString("|-------|-----------|--------|----|--------|\n")
	sb.WriteString(fmt.Sprintf("| Retained | %.3f | %.3f | %.3f | %d |\n",
		r.Holdout.Retained.Precision, r.Holdout.Retained.Recall, r.Holdout.Retained.F1, r.Holdout.Retained.Support))
	sb.WriteString(fmt.Sprintf("| Churned | %.3f | %.3f | %.3f | %d |\n",
		r.Holdout.Churned.Precision, r.Holdout.Churned.Recall, r.Holdout.Churned.F1, r.Holdout.Churned.Support))
	sb.WriteString("\n")

	if len(r.Importances) > 0 {
		sb.WriteString("## Top Features\n\n")
		sb.WriteString("| Feature | Weight |\n")
		sb.WriteString("|---------|--------|\n")
		top := r.Importances
		if len(top) > 15 {
			top = top[:15]
		}
		for _, imp := range top {
			sb.WriteString(fmt.Sprintf("| %s | %.4f |\n", imp.Column, imp.Weight))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
