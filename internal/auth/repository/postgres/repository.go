package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stworldstudy/auth-service/internal/auth/domain"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository is the credential store. Every write touches only the
// columns it owns so unrelated concurrent edits are not clobbered.
type PostgresRepository struct {
	db DBTX
}

func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, password_hash, refresh_token, name, birthday, is_mentor,
		target_language, profile_image, report_count, status, withdrawal_reason, created_at, updated_at`

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM users
		WHERE email = $1
		LIMIT 1;`

	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) GetActiveByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM users
		WHERE email = $1 AND status <> 'withdrawn'
		LIMIT 1;`

	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get active account by email: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) GetForAuth(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT id, email, password_hash, refresh_token, name, status
		FROM users
		WHERE email = $1 AND status <> 'withdrawn'
		LIMIT 1;`

	var (
		a      domain.Account
		status string
	)
	err := r.db.QueryRow(ctx, query, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.RefreshToken, &a.Name, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account for auth: %w", err)
	}

	if a.State, err = domain.ParseAccountState(status); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM users
		WHERE id = $1 AND status = 'active'
		LIMIT 1;`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) GetForRefresh(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT id, email, name, refresh_token
		FROM users
		WHERE id = $1 AND status = 'active'
		LIMIT 1;`

	var a domain.Account
	err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.Email, &a.Name, &a.RefreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account for refresh: %w", err)
	}

	a.State = domain.StateActive
	return &a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *domain.Account) (int64, error) {
	query := `INSERT INTO users (email, password_hash, name, birthday, is_mentor, target_language, profile_image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active')
		RETURNING id;`

	var id int64
	err := r.db.QueryRow(ctx, query,
		account.Email, account.PasswordHash, account.Name, nullableDate(account.Birthday),
		account.IsMentor, account.TargetLanguage, account.ProfileImage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	return id, nil
}

// CreatePlaceholder inserts a placeholder row for email unless a row already
// exists, and returns the id of whichever row owns the email.
func (r *PostgresRepository) CreatePlaceholder(ctx context.Context, email string) (int64, error) {
	query := `INSERT INTO users (email, status)
		VALUES ($1, 'placeholder')
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id;`

	var id int64
	if err := r.db.QueryRow(ctx, query, email).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert placeholder account: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) CompletePlaceholder(ctx context.Context, id int64, profile domain.Profile, passwordHash string) error {
	query := `UPDATE users SET name = $2, birthday = $3, is_mentor = $4, target_language = $5,
			profile_image = $6, password_hash = $7, refresh_token = '', status = 'active', updated_at = now()
		WHERE id = $1 AND name = '' AND status IN ('placeholder', 'active');`

	tag, err := r.db.Exec(ctx, query, id, profile.Name, nullableDate(profile.Birthday), profile.IsMentor,
		profile.TargetLanguage, profile.ProfileImage, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to complete placeholder account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrEmailAlreadyInUse
	}
	return nil
}

func (r *PostgresRepository) Reactivate(ctx context.Context, id int64, profile domain.Profile, passwordHash string) error {
	query := `UPDATE users SET name = $2, birthday = $3, is_mentor = $4, target_language = $5,
			profile_image = $6, password_hash = $7, refresh_token = '', withdrawal_reason = '',
			status = 'active', updated_at = now()
		WHERE id = $1 AND status = 'withdrawn';`

	tag, err := r.db.Exec(ctx, query, id, profile.Name, nullableDate(profile.Birthday), profile.IsMentor,
		profile.TargetLanguage, profile.ProfileImage, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to reactivate account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrEmailAlreadyInUse
	}
	return nil
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id int64, token string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = $2, updated_at = now()
		WHERE id = $1 AND status = 'active';`, id, token)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, id int64, current, next string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = $3, updated_at = now()
		WHERE id = $1 AND refresh_token = $2 AND refresh_token <> '' AND status = 'active';`, id, current, next)
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1 AND status IN ('active', 'blocked');`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateProfileImage(ctx context.Context, id int64, image int) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET profile_image = $2, updated_at = now()
		WHERE id = $1 AND status = 'active';`, id, image)
	if err != nil {
		return fmt.Errorf("failed to update profile image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, profile domain.Profile) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET name = $2, birthday = $3, is_mentor = $4, target_language = $5,
			updated_at = now()
		WHERE id = $1 AND status = 'active';`,
		id, profile.Name, nullableDate(profile.Birthday), profile.IsMentor, profile.TargetLanguage)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrNotFound
	}
	return nil
}

// IncrementReportCount bumps the counter in a single statement so concurrent
// reports never lose an increment.
func (r *PostgresRepository) IncrementReportCount(ctx context.Context, id int64) (int, domain.AccountState, error) {
	var (
		count  int
		status string
	)
	err := r.db.QueryRow(ctx, `UPDATE users SET report_count = report_count + 1, updated_at = now()
		WHERE id = $1
		RETURNING report_count, status;`, id).Scan(&count, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", autherror.ErrNotFound
		}
		return 0, "", fmt.Errorf("failed to increment report count: %w", err)
	}

	state, err := domain.ParseAccountState(status)
	if err != nil {
		return 0, "", err
	}
	return count, state, nil
}

func (r *PostgresRepository) SetBlocked(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET status = 'blocked', refresh_token = '', updated_at = now()
		WHERE id = $1 AND status = 'active';`, id)
	if err != nil {
		return fmt.Errorf("failed to block account: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetDeleted(ctx context.Context, id int64, reason domain.WithdrawalReason) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users SET status = 'withdrawn', withdrawal_reason = $2, refresh_token = '', updated_at = now()
		WHERE id = $1 AND status = 'active';`, id, string(reason))
	if err != nil {
		return false, fmt.Errorf("failed to withdraw account: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a        domain.Account
		birthday *time.Time
		status   string
		reason   string
	)

	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.RefreshToken, &a.Name, &birthday, &a.IsMentor,
		&a.TargetLanguage, &a.ProfileImage, &a.ReportCount, &status, &reason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if birthday != nil {
		a.Birthday = *birthday
	}
	a.WithdrawalReason = domain.WithdrawalReason(reason)
	if a.State, err = domain.ParseAccountState(status); err != nil {
		return nil, err
	}

	return &a, nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
