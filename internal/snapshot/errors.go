package snapshot

import "errors"

// Builder errors. Both signal configuration/data problems the caller must
// resolve; neither is retried automatically.
var (
	// ErrInsufficientSpan is returned when the ledger does not cover enough
	// time to satisfy both the required look-back (min history) and
	// look-forward (prediction window) ranges.
	ErrInsufficientSpan = errors.New("not enough time span in ledger for the chosen min history and prediction window")

	// ErrNoExamples is returned when every snapshot candidate is filtered
	// out. Usually means min history or the recency cutoff is too strict.
	ErrNoExamples = errors.New("no snapshot examples survived filtering")
)
