package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccountState is the single lifecycle state of an account. Storing one value
// instead of independent flags keeps combinations like blocked+withdrawn
// unrepresentable.
type AccountState string

const (
	// StatePlaceholder anchors a pending email verification; it has no profile
	// and no password.
	StatePlaceholder AccountState = "placeholder"
	StateActive      AccountState = "active"
	// StateBlocked is terminal without admin intervention.
	StateBlocked AccountState = "blocked"
	// StateWithdrawn is a soft delete; signing up again with the same email
	// reactivates the row.
	StateWithdrawn AccountState = "withdrawn"
)

func ParseAccountState(s string) (AccountState, error) {
	switch st := AccountState(s); st {
	case StatePlaceholder, StateActive, StateBlocked, StateWithdrawn:
		return st, nil
	default:
		return "", fmt.Errorf("unknown account state %q", s)
	}
}

type WithdrawalReason string

const (
	WithdrawalPersonal     WithdrawalReason = "personal"
	WithdrawalPrivacy      WithdrawalReason = "privacy"
	WithdrawalLowUsage     WithdrawalReason = "low_usage"
	WithdrawalServiceIssue WithdrawalReason = "service_issue"
	WithdrawalOther        WithdrawalReason = "other"
)

func (r WithdrawalReason) Valid() bool {
	switch r {
	case WithdrawalPersonal, WithdrawalPrivacy, WithdrawalLowUsage, WithdrawalServiceIssue, WithdrawalOther:
		return true
	}
	return false
}

const (
	MinProfileImage     = 1
	MaxProfileImage     = 4
	DefaultProfileImage = MinProfileImage
)

type Profile struct {
	Name           string
	Birthday       time.Time
	IsMentor       bool
	TargetLanguage string
	ProfileImage   int
}

type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	// RefreshToken is the single live refresh token; "" means signed out.
	RefreshToken string
	Profile
	ReportCount      int
	State            AccountState
	WithdrawalReason WithdrawalReason
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsPlaceholder reports whether the row only anchors a pending verification.
// Rows written before the status column existed may be active with no name,
// so an empty name counts too.
func (a *Account) IsPlaceholder() bool {
	return a.State == StatePlaceholder || (a.State != StateWithdrawn && strings.TrimSpace(a.Name) == "")
}

// IsRealAccount is a named, non-withdrawn account that owns its email.
func (a *Account) IsRealAccount() bool {
	return a.State != StateWithdrawn && !a.IsPlaceholder()
}

// NormalizeEmail lower-cases and trims an email address. Every email is
// stored and looked up in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
