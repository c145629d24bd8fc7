package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"

	"github.com/stworldstudy/auth-service/internal/auth/domain"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

const (
	verificationSubject = "Verify your email address"
	resetSubject        = "Your password reset code"
	codeDigits          = 6
)

var codeUpperBound = big.NewInt(1_000_000)

// generateCode returns a zero-padded 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeUpperBound)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// RequestVerification sends a sign-up code. A placeholder row is created for
// unknown emails so the verification record has an owning account.
func (s *AccountService) RequestVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if err := s.allowSend(ctx, "request_verification", email); err != nil {
		return err
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return s.internal("request_verification", 0, err)
	}
	if existing != nil && existing.IsRealAccount() {
		return autherror.ErrEmailAlreadyInUse
	}

	var accountID int64
	if existing != nil {
		accountID = existing.ID
	} else {
		accountID, err = s.accounts.CreatePlaceholder(ctx, email)
		if err != nil {
			return s.internal("request_verification", 0, err)
		}
	}

	return s.sendCode(ctx, "request_verification", email, accountID, verificationSubject)
}

// VerifyCode marks the pending record verified. An unknown email and a wrong
// code fail the same way.
func (s *AccountService) VerifyCode(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)

	v, err := s.verifications.GetByEmail(ctx, email)
	if err != nil {
		return s.internal("verify_code", 0, err)
	}
	if v == nil || !codesEqual(v.Code, code) {
		return autherror.ErrInvalidCode
	}
	if v.Verified {
		return autherror.ErrAlreadyVerified
	}
	if v.Expired(s.now()) {
		return autherror.ErrExpiredCode
	}

	if err := s.verifications.MarkVerified(ctx, email); err != nil {
		return s.internal("verify_code", v.AccountID, err)
	}
	return nil
}

// CheckEmail fails with DuplicateEmail when a named, non-withdrawn account
// owns email.
func (s *AccountService) CheckEmail(ctx context.Context, email string) error {
	existing, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return s.internal("check_email", 0, err)
	}
	if existing != nil && existing.IsRealAccount() {
		return autherror.ErrEmailAlreadyInUse
	}
	return nil
}

func (s *AccountService) sendCode(ctx context.Context, op, email string, accountID int64, subject string) error {
	code, err := s.generateCode()
	if err != nil {
		return s.internal(op, accountID, err)
	}

	err = s.verifications.Upsert(ctx, &domain.EmailVerification{
		Email:     email,
		AccountID: accountID,
		Code:      code,
		ExpiresAt: s.now().Add(s.codeTTL),
		Verified:  false,
	})
	if err != nil {
		return s.internal(op, accountID, err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.codeTTL.Minutes()))
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		s.logger.Warn().Err(err).Str("op", op).Int64("account_id", accountID).Msg("verification email not delivered")
		return autherror.ErrDelivery
	}
	return nil
}

func (s *AccountService) allowSend(ctx context.Context, op, email string) error {
	if s.throttle == nil {
		return nil
	}
	ok, err := s.throttle.Allow(ctx, email)
	if err != nil {
		return s.internal(op, 0, err)
	}
	if !ok {
		return autherror.ErrTooManyRequests
	}
	return nil
}

// requireVerified is the gate shared by sign-up and password reset. A
// verification stays usable for one code TTL after it was confirmed.
func (s *AccountService) requireVerified(ctx context.Context, op, email string) error {
	v, err := s.verifications.GetByEmail(ctx, email)
	if err != nil {
		return s.internal(op, 0, err)
	}
	if v == nil || !v.VerifiedWithin(s.now(), s.codeTTL) {
		return autherror.ErrVerificationRequired
	}
	return nil
}

func codesEqual(stored, submitted string) bool {
	a := strings.ToUpper(strings.TrimSpace(stored))
	b := strings.ToUpper(strings.TrimSpace(submitted))
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func normalizeEmail(email string) string {
	return domain.NormalizeEmail(email)
}
