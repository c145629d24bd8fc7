package domain

import "time"

// EmailVerification is keyed by normalized email. A new request overwrites
// the previous code and expiry rather than adding a row.
type EmailVerification struct {
	Email     string
	AccountID int64
	Code      string
	ExpiresAt time.Time
	Verified  bool
	UpdatedAt time.Time
}

func (v *EmailVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// VerifiedWithin reports whether the record was verified less than window
// ago. Once Verified is set, UpdatedAt is the moment of verification.
func (v *EmailVerification) VerifiedWithin(now time.Time, window time.Duration) bool {
	return v.Verified && now.Before(v.UpdatedAt.Add(window))
}
