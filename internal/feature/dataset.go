package feature

import (
	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
)

// TableFromExamples lays snapshot examples out as the encoder's raw input.
// Numeric history features are always present; demographic columns carry
// missing cells where the donor source had no value.
func TableFromExamples(examples []*domain.SnapshotExample) *RawTable {
	n := len(examples)
	t := NewRawTable(n)

	tenure := make([]float64, n)
	recency := make([]float64, n)
	nTxn := make([]float64, n)
	sumAmt := make([]float64, n)
	avgAmt := make([]float64, n)
	stdAmt := make([]float64, n)
	state := make([]Category, n)
	gender := make([]Category, n)
	employer := make([]Category, n)
	groups := make([]Category, n)

	for i, e := range examples {
		tenure[i] = float64(e.TenureDays)
		recency[i] = float64(e.RecencyDays)
		nTxn[i] = float64(e.NTxnPast)
		sumAmt[i] = e.SumAmtPast
		avgAmt[i] = e.AvgAmtPast
		stdAmt[i] = e.StdAmtPast
		state[i] = CatPtr(e.State)
		gender[i] = CatPtr(e.Gender)
		employer[i] = CatPtr(e.Employer)
		groups[i] = CatPtr(e.Groups)
	}

	t.SetNumeric("tenure_days", tenure)
	t.SetNumeric("recency_days", recency)
	t.SetNumeric("n_txn_past", nTxn)
	t.SetNumeric("sum_amt_past", sumAmt)
	t.SetNumeric("avg_amt_past", avgAmt)
	t.SetNumeric("std_amt_past", stdAmt)
	t.SetCategorical("Primary State", state)
	t.SetCategorical("Gender", gender)
	t.SetCategorical("Employer", employer)
	t.SetCategorical("Groups", groups)

	return t
}

// Labels extracts the churn labels in example order.
func Labels(examples []*domain.SnapshotExample) []int {
	labels := make([]int, len(examples))
	for i, e := range examples {
		labels[i] = e.ChurnLabel
	}
	return labels
}
