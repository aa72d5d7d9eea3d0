package domain

// DonorProfile holds the static demographic attributes of one account.
// Only slowly-changing columns live here; revenue-like fields are excluded
// so the profile is safe to attach to any snapshot without leaking future
// information.
type DonorProfile struct {
	AccountID string
	State     *string // "Primary State"
	Zip       *string // "Primary ZIP Code", normalized to 5 digits
	Gender    *string
	Employer  *string
	Groups    *string
	BirthYear *float64
}
