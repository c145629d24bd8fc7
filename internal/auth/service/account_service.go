package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stworldstudy/auth-service/config"
	"github.com/stworldstudy/auth-service/internal/auth/domain"
	"github.com/stworldstudy/auth-service/internal/auth/dto"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

type AccountService struct {
	accounts      domain.AccountRepository
	verifications domain.VerificationRepository
	tokens        TokenGenerator
	mailer        domain.Mailer
	throttle      domain.Throttle
	hasher        *PasswordHasher
	logger        zerolog.Logger

	codeTTL         time.Duration
	reportThreshold int

	now          func() time.Time
	generateCode func() (string, error)
}

func NewAccountService(
	accounts domain.AccountRepository,
	verifications domain.VerificationRepository,
	tokens TokenGenerator,
	mailer domain.Mailer,
	throttle domain.Throttle,
	cfg *config.Config,
	logger zerolog.Logger,
) (*AccountService, error) {
	hasher, err := NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	codeTTL := cfg.VerificationCodeTTL()
	if codeTTL <= 0 {
		codeTTL = config.DefaultVerificationCodeTTLMin * time.Minute
	}
	threshold := cfg.ReportBlockThreshold
	if threshold <= 0 {
		threshold = config.DefaultReportBlockThreshold
	}

	return &AccountService{
		accounts:        accounts,
		verifications:   verifications,
		tokens:          tokens,
		mailer:          mailer,
		throttle:        throttle,
		hasher:          hasher,
		logger:          logger.With().Str("component", "account_service").Logger(),
		codeTTL:         codeTTL,
		reportThreshold: threshold,
		now:             time.Now,
		generateCode:    generateCode,
	}, nil
}

// SignUp registers a verified email. A withdrawn account with the same email
// is reactivated with the new profile; a placeholder is completed in place.
// No tokens are issued.
func (s *AccountService) SignUp(ctx context.Context, input dto.SignUpInput) error {
	email := normalizeEmail(input.Email)

	if err := s.requireVerified(ctx, "sign_up", email); err != nil {
		return err
	}

	profile, err := profileFromInput(input)
	if err != nil {
		return err
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return s.internal("sign_up", 0, err)
	}
	if existing != nil && existing.IsRealAccount() {
		return autherror.ErrEmailAlreadyInUse
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return s.internal("sign_up", 0, err)
	}

	var accountID int64
	switch {
	case existing == nil:
		accountID, err = s.accounts.Create(ctx, &domain.Account{
			Email:        email,
			PasswordHash: hashed,
			Profile:      profile,
			State:        domain.StateActive,
		})
	case existing.State == domain.StateWithdrawn:
		accountID = existing.ID
		err = s.accounts.Reactivate(ctx, existing.ID, profile, hashed)
	default:
		accountID = existing.ID
		err = s.accounts.CompletePlaceholder(ctx, existing.ID, profile, hashed)
	}
	if err != nil {
		return s.internal("sign_up", accountID, err)
	}

	if err := s.verifications.Delete(ctx, email); err != nil {
		return s.internal("sign_up", accountID, err)
	}

	s.logger.Info().Int64("account_id", accountID).Msg("account signed up")
	return nil
}

// SignIn reports the same error for an unknown email and a wrong password.
// A blocked account is disclosed only after the password matched.
func (s *AccountService) SignIn(ctx context.Context, input dto.SignInInput) (*dto.TokenResponse, error) {
	account, err := s.accounts.GetForAuth(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, s.internal("sign_in", 0, err)
	}
	if account == nil {
		s.hasher.CompareDummy(input.Password)
		return nil, autherror.ErrInvalidCredentials
	}
	if !s.hasher.Matches(account.PasswordHash, input.Password) {
		return nil, autherror.ErrInvalidCredentials
	}
	if account.State == domain.StateBlocked {
		return nil, autherror.ErrAccountBlocked
	}
	if account.State != domain.StateActive || account.IsPlaceholder() {
		return nil, autherror.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.issuePair(account)
	if err != nil {
		return nil, s.internal("sign_in", account.ID, err)
	}
	if err := s.accounts.SetRefreshToken(ctx, account.ID, refreshToken); err != nil {
		return nil, s.internal("sign_in", account.ID, err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserName:     account.Name,
		ExpiresIn:    int(s.tokens.GetAccessTokenExpiry().Seconds()),
	}, nil
}

// Refresh rotates the refresh token. The presented token must be the one
// stored on the account; the swap is conditional on it so two concurrent
// refreshes with the same token cannot both succeed.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, autherror.ErrInvalidToken
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return nil, autherror.ErrInvalidToken
	}

	account, err := s.accounts.GetForRefresh(ctx, accountID)
	if err != nil {
		return nil, s.internal("refresh", accountID, err)
	}
	if account == nil || account.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(account.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, autherror.ErrInvalidToken
	}

	accessToken, nextRefresh, err := s.issuePair(account)
	if err != nil {
		return nil, s.internal("refresh", accountID, err)
	}

	swapped, err := s.accounts.RotateRefreshToken(ctx, accountID, refreshToken, nextRefresh)
	if err != nil {
		return nil, s.internal("refresh", accountID, err)
	}
	if !swapped {
		return nil, autherror.ErrInvalidToken
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: nextRefresh,
		ExpiresIn:    int(s.tokens.GetAccessTokenExpiry().Seconds()),
	}, nil
}

// SignOut clears the stored refresh token. Repeating it is not an error.
func (s *AccountService) SignOut(ctx context.Context, accountID int64) error {
	if err := s.accounts.SetRefreshToken(ctx, accountID, ""); err != nil {
		return s.internal("sign_out", accountID, err)
	}
	return nil
}

// Deactivate withdraws an active account and signs it out.
func (s *AccountService) Deactivate(ctx context.Context, accountID int64, reason domain.WithdrawalReason) error {
	if !reason.Valid() {
		return autherror.NewValidation(map[string]string{"withdrawalReason": "unknown withdrawal reason"})
	}

	ok, err := s.accounts.SetDeleted(ctx, accountID, reason)
	if err != nil {
		return s.internal("deactivate", accountID, err)
	}
	if !ok {
		return autherror.ErrNotFound
	}

	s.logger.Info().Int64("account_id", accountID).Str("reason", string(reason)).Msg("account withdrawn")
	return nil
}

// ReportAndMaybeBlock counts one report against the account and blocks it
// once the count reaches the threshold. It reports whether this call blocked
// the account.
func (s *AccountService) ReportAndMaybeBlock(ctx context.Context, accountID int64) (bool, error) {
	count, state, err := s.accounts.IncrementReportCount(ctx, accountID)
	if err != nil {
		return false, s.internal("report", accountID, err)
	}
	if count < s.reportThreshold || state != domain.StateActive {
		return false, nil
	}

	if err := s.accounts.SetBlocked(ctx, accountID); err != nil {
		return false, s.internal("report", accountID, err)
	}

	s.logger.Warn().Int64("account_id", accountID).Int("report_count", count).Msg("account blocked")
	return true, nil
}

func (s *AccountService) GetMyInfo(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, s.internal("get_my_info", accountID, err)
	}
	if account == nil {
		return nil, autherror.ErrNotFound
	}
	return account, nil
}

func (s *AccountService) SetProfileImage(ctx context.Context, accountID int64, image int) error {
	if image < domain.MinProfileImage || image > domain.MaxProfileImage {
		return autherror.NewValidation(map[string]string{"image": "must be between 1 and 4"})
	}
	if err := s.accounts.UpdateProfileImage(ctx, accountID, image); err != nil {
		return s.internal("set_profile_image", accountID, err)
	}
	return nil
}

// UpdateUserInfo replaces the name, birthday, mentor flag and target language
// of an active account and returns the stored result.
func (s *AccountService) UpdateUserInfo(ctx context.Context, accountID int64, input dto.UpdateUserInfoInput) (*domain.Account, error) {
	profile, err := editableProfile(input.Name, input.Birthday, input.IsMentor, input.TargetLanguage)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateProfile(ctx, accountID, profile); err != nil {
		return nil, s.internal("update_user_info", accountID, err)
	}

	return s.GetMyInfo(ctx, accountID)
}

func (s *AccountService) issuePair(account *domain.Account) (string, string, error) {
	accessToken, err := s.tokens.IssueAccessToken(account)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(account)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// internal passes classified errors through and logs everything else before
// wrapping it. Callers never see the wrapped text.
func (s *AccountService) internal(op string, accountID int64, err error) error {
	if autherror.KindOf(err) != autherror.KindInternal {
		return err
	}

	event := s.logger.Error().Err(err).Str("op", op)
	if accountID != 0 {
		event = event.Int64("account_id", accountID)
	}
	event.Msg("auth operation failed")

	return fmt.Errorf("%s: %w", op, err)
}

func profileFromInput(input dto.SignUpInput) (domain.Profile, error) {
	profile, err := editableProfile(input.Name, input.Birthday, input.IsMentor, input.TargetLanguage)
	if err != nil {
		return domain.Profile{}, err
	}

	image := input.ProfileImage
	if image == 0 {
		image = domain.DefaultProfileImage
	}
	if image < domain.MinProfileImage || image > domain.MaxProfileImage {
		return domain.Profile{}, autherror.NewValidation(map[string]string{"profileImage": "must be between 1 and 4"})
	}
	profile.ProfileImage = image

	return profile, nil
}

// editableProfile checks the fields shared by sign-up and profile edits. The
// name is stored trimmed; a blank one would read back as a placeholder.
func editableProfile(name, birthday string, isMentor bool, targetLanguage string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, autherror.NewValidation(map[string]string{"userName": "is required"})
	}

	born, err := time.Parse(dto.BirthdayLayout, birthday)
	if err != nil {
		return domain.Profile{}, autherror.NewValidation(map[string]string{"userBirth": "must be a date in YYYY-MM-DD form"})
	}

	return domain.Profile{
		Name:           name,
		Birthday:       born,
		IsMentor:       isMentor,
		TargetLanguage: strings.TrimSpace(targetLanguage),
	}, nil
}
