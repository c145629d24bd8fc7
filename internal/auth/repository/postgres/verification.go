package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stworldstudy/auth-service/internal/auth/domain"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

type VerificationRepository struct {
	db DBTX
}

func NewVerificationRepository(db DBTX) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Upsert replaces any previous code for the email and resets the verified flag.
func (r *VerificationRepository) Upsert(ctx context.Context, v *domain.EmailVerification) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO email_verifications (email, account_id, code, expires_at, verified, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, now())
		ON CONFLICT (email)
		DO UPDATE SET
			account_id = EXCLUDED.account_id,
			code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at,
			verified = FALSE,
			updated_at = now()
	`, v.Email, v.AccountID, v.Code, v.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert email verification: %w", err)
	}
	return nil
}

func (r *VerificationRepository) GetByEmail(ctx context.Context, email string) (*domain.EmailVerification, error) {
	query := `SELECT email, account_id, code, expires_at, verified, updated_at
		FROM email_verifications
		WHERE email = $1;`

	var v domain.EmailVerification
	err := r.db.QueryRow(ctx, query, email).Scan(&v.Email, &v.AccountID, &v.Code, &v.ExpiresAt, &v.Verified, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get email verification: %w", err)
	}
	return &v, nil
}

// MarkVerified flips the flag once. A second call for the same code reports
// ErrAlreadyVerified.
func (r *VerificationRepository) MarkVerified(ctx context.Context, email string) error {
	tag, err := r.db.Exec(ctx, `UPDATE email_verifications SET verified = TRUE, updated_at = now()
		WHERE email = $1 AND verified = FALSE;`, email)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrAlreadyVerified
	}
	return nil
}

func (r *VerificationRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM email_verifications WHERE email = $1;`, email)
	if err != nil {
		return fmt.Errorf("failed to delete email verification: %w", err)
	}
	return nil
}
