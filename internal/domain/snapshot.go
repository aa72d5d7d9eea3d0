package domain

import "time"

// SnapshotExample is one supervised-learning row: an account observed at a
// snapshot date. Every feature is computed from transactions dated at or
// before SnapshotDate; the label is computed from transactions strictly
// after SnapshotDate through the prediction window. No field mixes both.
type SnapshotExample struct {
	AccountID    string
	SnapshotDate time.Time
	FirstTxDate  time.Time // earliest transaction at or before SnapshotDate
	LastTxDate   time.Time // latest transaction at or before SnapshotDate

	TenureDays  int // days from FirstTxDate to SnapshotDate
	RecencyDays int // days from LastTxDate to SnapshotDate
	NTxnPast    int
	SumAmtPast  float64
	AvgAmtPast  float64
	StdAmtPast  float64 // population (ddof=0) std, 0 when NTxnPast < 2

	// ChurnLabel is 1 when no transaction falls in
	// (SnapshotDate, SnapshotDate + prediction window], else 0.
	ChurnLabel int

	// Demographics merged by account id; nil when the account is absent
	// from the donor source (left join keeps the row).
	State    *string
	Zip      *string
	Gender   *string
	Employer *string
	Groups   *string
}
