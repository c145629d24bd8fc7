package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stworldstudy/auth-service/internal/auth/domain"
	repo "github.com/stworldstudy/auth-service/internal/auth/repository/postgres"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

var accountColumns = []string{
	"id", "email", "password_hash", "refresh_token", "name", "birthday", "is_mentor",
	"target_language", "profile_image", "report_count", "status", "withdrawal_reason", "created_at", "updated_at",
}

func accountRow(id int64, email, status string) []any {
	birthday := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	return []any{id, email, "hash", "stored-refresh", "Kim", &birthday, true, "ko", 2, 3, status, "", now, now}
}

// TestGetByEmail covers lookups that match any account state.
func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	email := "kim@example.com"

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash").
			WithArgs(email).
			WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(accountRow(1, email, "withdrawn")...))

		account, err := r.GetByEmail(ctx, email)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, int64(1), account.ID)
		assert.Equal(t, domain.StateWithdrawn, account.State)
		assert.Equal(t, "Kim", account.Name)
		assert.Equal(t, 1990, account.Birthday.Year())
		assert.Equal(t, 2, account.ProfileImage)
		assert.Equal(t, 3, account.ReportCount)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash").
			WithArgs(email).
			WillReturnError(pgx.ErrNoRows)

		account, err := r.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash").
			WithArgs(email).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByEmail(ctx, email)
		assert.Error(t, err)
	})

	t.Run("unknown status", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash").
			WithArgs(email).
			WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(accountRow(1, email, "deleted")...))

		_, err := r.GetByEmail(ctx, email)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	email := "kim@example.com"

	mock.ExpectQuery("status <> 'withdrawn'").
		WithArgs(email).
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(accountRow(5, email, "blocked")...))

	account, err := r.GetActiveByEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, domain.StateBlocked, account.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForAuth(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	email := "kim@example.com"
	columns := []string{"id", "email", "password_hash", "refresh_token", "name", "status"}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash, refresh_token, name, status").
			WithArgs(email).
			WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(9), email, "hash", "", "Kim", "active"))

		account, err := r.GetForAuth(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, int64(9), account.ID)
		assert.Equal(t, "hash", account.PasswordHash)
		assert.Equal(t, domain.StateActive, account.State)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, password_hash, refresh_token, name, status").
			WithArgs(email).
			WillReturnError(pgx.ErrNoRows)

		account, err := r.GetForAuth(ctx, email)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("WHERE id = .+ AND status = 'active'").
			WithArgs(int64(4)).
			WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(accountRow(4, "kim@example.com", "active")...))

		account, err := r.GetByID(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "kim@example.com", account.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("WHERE id = .+ AND status = 'active'").
			WithArgs(int64(4)).
			WillReturnError(pgx.ErrNoRows)

		account, err := r.GetByID(ctx, 4)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForRefresh(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	columns := []string{"id", "email", "name", "refresh_token"}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, name, refresh_token").
			WithArgs(int64(4)).
			WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(4), "kim@example.com", "Kim", "rt"))

		account, err := r.GetForRefresh(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "rt", account.RefreshToken)
		assert.Equal(t, domain.StateActive, account.State)
	})

	t.Run("database error", func(t *testing.T) {
		dbError := fmt.Errorf("db error")
		mock.ExpectQuery("SELECT id, email, name, refresh_token").
			WithArgs(int64(4)).
			WillReturnError(dbError)

		account, err := r.GetForRefresh(ctx, 4)
		require.Error(t, err)
		assert.ErrorIs(t, err, dbError)
		assert.Nil(t, account)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	account := &domain.Account{
		Email:        "new@example.com",
		PasswordHash: "new-hash",
		Profile: domain.Profile{
			Name:           "Lee",
			Birthday:       time.Date(1995, 5, 5, 0, 0, 0, 0, time.UTC),
			IsMentor:       true,
			TargetLanguage: "en",
			ProfileImage:   1,
		},
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(account.Email, account.PasswordHash, account.Name, account.Birthday, account.IsMentor, account.TargetLanguage, account.ProfileImage).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		id, err := r.Create(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(account.Email, account.PasswordHash, account.Name, account.Birthday, account.IsMentor, account.TargetLanguage, account.ProfileImage).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.Create(ctx, account)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePlaceholder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	mock.ExpectQuery("ON CONFLICT").
		WithArgs("kim@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := r.CreatePlaceholder(context.Background(), "kim@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletePlaceholderAndReactivate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	profile := domain.Profile{Name: "Kim", Birthday: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), TargetLanguage: "ko", ProfileImage: 1}

	t.Run("complete placeholder", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET name").
			WithArgs(int64(3), profile.Name, profile.Birthday, profile.IsMentor, profile.TargetLanguage, profile.ProfileImage, "hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.CompletePlaceholder(ctx, 3, profile, "hash"))
	})

	t.Run("placeholder already completed", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET name").
			WithArgs(int64(3), profile.Name, profile.Birthday, profile.IsMentor, profile.TargetLanguage, profile.ProfileImage, "hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := r.CompletePlaceholder(ctx, 3, profile, "hash")
		assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
	})

	t.Run("reactivate", func(t *testing.T) {
		mock.ExpectExec("status = 'withdrawn'").
			WithArgs(int64(7), profile.Name, profile.Birthday, profile.IsMentor, profile.TargetLanguage, profile.ProfileImage, "hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.Reactivate(ctx, 7, profile, "hash"))
	})

	t.Run("reactivate database error", func(t *testing.T) {
		mock.ExpectExec("status = 'withdrawn'").
			WithArgs(int64(7), profile.Name, profile.Birthday, profile.IsMentor, profile.TargetLanguage, profile.ProfileImage, "hash").
			WillReturnError(fmt.Errorf("db error"))

		assert.Error(t, r.Reactivate(ctx, 7, profile, "hash"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenWrites(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("set", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET refresh_token").
			WithArgs(int64(1), "").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.SetRefreshToken(ctx, 1, ""))
	})

	t.Run("rotate swaps matching token", func(t *testing.T) {
		mock.ExpectExec("AND refresh_token = ").
			WithArgs(int64(1), "old", "new").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := r.RotateRefreshToken(ctx, 1, "old", "new")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rotate rejects stale token", func(t *testing.T) {
		mock.ExpectExec("AND refresh_token = ").
			WithArgs(int64(1), "stale", "new").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := r.RotateRefreshToken(ctx, 1, "stale", "new")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePasswordHashAndProfileImage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs(int64(1), "new-hash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, r.UpdatePasswordHash(ctx, 1, "new-hash"))

	mock.ExpectExec("UPDATE users SET profile_image").
		WithArgs(int64(1), 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, r.UpdateProfileImage(ctx, 1, 3))

	mock.ExpectExec("UPDATE users SET profile_image").
		WithArgs(int64(2), 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, r.UpdateProfileImage(ctx, 2, 3), autherror.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	profile := domain.Profile{Name: "Lee", Birthday: time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC), IsMentor: true, TargetLanguage: "ja", ProfileImage: 4}

	t.Run("active account", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET name = [$]2, birthday = [$]3, is_mentor = [$]4, target_language = [$]5,\\s+updated_at").
			WithArgs(int64(1), "Lee", profile.Birthday, true, "ja").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.UpdateProfile(ctx, 1, profile))
	})

	t.Run("no active row", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET name").
			WithArgs(int64(2), "Lee", profile.Birthday, true, "ja").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, r.UpdateProfile(ctx, 2, profile), autherror.ErrNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET name").
			WithArgs(int64(3), "Lee", profile.Birthday, true, "ja").
			WillReturnError(fmt.Errorf("connection lost"))

		err := r.UpdateProfile(ctx, 3, profile)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update profile")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModerationTransitions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("increment report count", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users SET report_count").
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows([]string{"report_count", "status"}).AddRow(10, "active"))

		count, state, err := r.IncrementReportCount(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 10, count)
		assert.Equal(t, domain.StateActive, state)
	})

	t.Run("increment unknown account", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users SET report_count").
			WithArgs(int64(99)).
			WillReturnError(pgx.ErrNoRows)

		_, _, err := r.IncrementReportCount(ctx, 99)
		assert.ErrorIs(t, err, autherror.ErrNotFound)
	})

	t.Run("block", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET status = 'blocked'").
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.SetBlocked(ctx, 1))
	})

	t.Run("withdraw active account", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET status = 'withdrawn'").
			WithArgs(int64(1), "privacy").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := r.SetDeleted(ctx, 1, domain.WithdrawalPrivacy)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("withdraw already withdrawn account", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET status = 'withdrawn'").
			WithArgs(int64(1), "other").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := r.SetDeleted(ctx, 1, domain.WithdrawalOther)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
