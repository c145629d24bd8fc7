package domain

//go:generate mockgen -destination=../../mocks/mock_account_repository.go -package=mocks github.com/stworldstudy/auth-service/internal/auth/domain AccountRepository,VerificationRepository,Mailer,Throttle

import "context"

// AccountRepository returns (nil, nil) from lookups that find no row.
type AccountRepository interface {
	// GetByEmail matches any state.
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// GetActiveByEmail excludes withdrawn accounts.
	GetActiveByEmail(ctx context.Context, email string) (*Account, error)
	// GetForAuth excludes withdrawn accounts and includes the password hash
	// and refresh token.
	GetForAuth(ctx context.Context, email string) (*Account, error)
	// GetByID returns active accounts only.
	GetByID(ctx context.Context, id int64) (*Account, error)
	// GetForRefresh returns id, email, name and refresh token of an active account.
	GetForRefresh(ctx context.Context, id int64) (*Account, error)

	Create(ctx context.Context, account *Account) (int64, error)
	CreatePlaceholder(ctx context.Context, email string) (int64, error)
	CompletePlaceholder(ctx context.Context, id int64, profile Profile, passwordHash string) error
	Reactivate(ctx context.Context, id int64, profile Profile, passwordHash string) error

	SetRefreshToken(ctx context.Context, id int64, token string) error
	// RotateRefreshToken replaces current with next only if current is still
	// stored. It reports whether the swap happened.
	RotateRefreshToken(ctx context.Context, id int64, current, next string) (bool, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	UpdateProfileImage(ctx context.Context, id int64, image int) error
	// UpdateProfile writes name, birthday, mentor flag and target language of
	// an active account. The profile image is left alone.
	UpdateProfile(ctx context.Context, id int64, profile Profile) error

	IncrementReportCount(ctx context.Context, id int64) (int, AccountState, error)
	SetBlocked(ctx context.Context, id int64) error
	// SetDeleted withdraws an active account and clears its refresh token. It
	// reports whether an active row was found.
	SetDeleted(ctx context.Context, id int64, reason WithdrawalReason) (bool, error)
}

type VerificationRepository interface {
	Upsert(ctx context.Context, v *EmailVerification) error
	GetByEmail(ctx context.Context, email string) (*EmailVerification, error)
	MarkVerified(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Throttle limits how often an action may happen per key.
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
}
