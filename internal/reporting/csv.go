// Package reporting renders datasets, predictions, and training summaries
// for people and downstream tools.
package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/predict"
)

// datasetHeader is the column order of the snapshot dataset export.
var datasetHeader = []string{
	"Account Number", "snapshot_date", "first_tx_date", "last_tx_date",
	"tenure_days", "recency_days", "n_txn_past",
	"sum_amt_past", "avg_amt_past", "std_amt_past", "churn_label",
	"Primary State", "Zip", "Gender", "Employer", "Groups",
}

// WriteDatasetCSV writes the snapshot example table as CSV.
func WriteDatasetCSV(w io.Writer, examples []*domain.SnapshotExample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(datasetHeader); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}
	for _, e := range examples {
		record := []string{
			e.AccountID,
			e.SnapshotDate.Format("2006-01-02"),
			e.FirstTxDate.Format("2006-01-02"),
			e.LastTxDate.Format("2006-01-02"),
			strconv.Itoa(e.TenureDays),
			strconv.Itoa(e.RecencyDays),
			strconv.Itoa(e.NTxnPast),
			formatFloat(e.SumAmtPast),
			formatFloat(e.AvgAmtPast),
			formatFloat(e.StdAmtPast),
			strconv.Itoa(e.ChurnLabel),
			deref(e.State),
			deref(e.Zip),
			deref(e.Gender),
			deref(e.Employer),
			deref(e.Groups),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write dataset row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// predictionsHeader is the input feature table augmented with the score and
// the thresholded label.
var predictionsHeader = []string{
	"Account Number", "snapshot_date",
	"tenure_days", "recency_days", "n_txn_past",
	"sum_amt_past", "avg_amt_past", "std_amt_past",
	"Primary State", "Zip", "Gender", "Employer", "Groups",
	"churn_probability", "churn_risk",
}

// WritePredictionsCSV writes scored donors as CSV, one row per prediction.
// examples and preds are parallel: preds[i] scores examples[i].
func WritePredictionsCSV(w io.Writer, examples []*domain.SnapshotExample, preds []predict.Prediction) error {
	if len(examples) != len(preds) {
		return fmt.Errorf("predictions csv: %d examples but %d predictions", len(examples), len(preds))
	}
	cw := csv.NewWriter(w)

	if err := cw.Write(predictionsHeader); err != nil {
		return fmt.Errorf("write predictions header: %w", err)
	}
	for i, p := range preds {
		e := examples[i]
		record := []string{
			p.AccountID,
			p.SnapshotDate.Format("2006-01-02"),
			strconv.Itoa(e.TenureDays),
			strconv.Itoa(e.RecencyDays),
			strconv.Itoa(e.NTxnPast),
			formatFloat(e.SumAmtPast),
			formatFloat(e.AvgAmtPast),
			formatFloat(e.StdAmtPast),
			deref(e.State),
			deref(e.Zip),
			deref(e.Gender),
			deref(e.Employer),
			deref(e.Groups),
			strconv.FormatFloat(p.Probability, 'f', 6, 64),
			p.Risk,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write prediction row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
