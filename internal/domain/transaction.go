package domain

import "time"

// Transaction is a single ledger row: one donation by one account.
// Records are immutable once ingested; ordering at rest is not guaranteed,
// consumers sort as needed.
type Transaction struct {
	ID        int64     // storage-assigned, 0 before insert
	AccountID string    // opaque account identifier ("Account Number")
	Date      time.Time // resolved transaction date, UTC midnight
	Amount    float64   // signed amount in dollars
	CreatedAt time.Time // storage-assigned
}
