package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

// PasswordHasher wraps bcrypt with a configurable cost. It keeps a hash of a
// random-looking string so that lookups that find no account can still pay
// for one comparison.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to build dummy hash: %w", err)
	}

	return &PasswordHasher{cost: cost, dummy: dummy}, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Matches reports whether password matches hash. An empty hash never
// matches but still costs one comparison.
func (h *PasswordHasher) Matches(hash, password string) bool {
	if hash == "" {
		h.CompareDummy(password)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *PasswordHasher) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}

// ChangePassword is the authenticated path. Reusing the old password is
// refused before any lookup so the rule holds for every account state.
func (s *AccountService) ChangePassword(ctx context.Context, accountID int64, oldPassword, newPassword string) error {
	if oldPassword == newPassword {
		return autherror.ErrPasswordReuse
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return s.internal("change_password", accountID, err)
	}
	if account == nil {
		return autherror.ErrNotFound
	}
	if !s.hasher.Matches(account.PasswordHash, oldPassword) {
		return autherror.ErrInvalidCredentials
	}
	if s.hasher.Matches(account.PasswordHash, newPassword) {
		return autherror.ErrPasswordReuse
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internal("change_password", accountID, err)
	}
	if err := s.accounts.UpdatePasswordHash(ctx, accountID, hashed); err != nil {
		return s.internal("change_password", accountID, err)
	}

	s.logger.Info().Int64("account_id", accountID).Msg("password changed")
	return nil
}

// RequestPasswordReset sends a fresh code to an existing account through the
// same verification record used by sign-up.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if err := s.allowSend(ctx, "request_password_reset", email); err != nil {
		return err
	}

	account, err := s.accounts.GetActiveByEmail(ctx, email)
	if err != nil {
		return s.internal("request_password_reset", 0, err)
	}
	if account == nil || !account.IsRealAccount() {
		return autherror.ErrNotFound
	}

	return s.sendCode(ctx, "request_password_reset", email, account.ID, resetSubject)
}

// ResetPassword requires a verified code on file. The consumed record is
// deleted so the same verification cannot reset twice.
func (s *AccountService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)

	if err := s.requireVerified(ctx, "reset_password", email); err != nil {
		return err
	}

	account, err := s.accounts.GetForAuth(ctx, email)
	if err != nil {
		return s.internal("reset_password", 0, err)
	}
	if account == nil || account.IsPlaceholder() {
		return autherror.ErrNotFound
	}
	if s.hasher.Matches(account.PasswordHash, newPassword) {
		return autherror.ErrPasswordReuse
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internal("reset_password", account.ID, err)
	}
	if err := s.accounts.UpdatePasswordHash(ctx, account.ID, hashed); err != nil {
		return s.internal("reset_password", account.ID, err)
	}
	if err := s.verifications.Delete(ctx, email); err != nil {
		return s.internal("reset_password", account.ID, err)
	}

	s.logger.Info().Int64("account_id", account.ID).Msg("password reset")
	return nil
}
