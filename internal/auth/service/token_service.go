package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/stworldstudy/auth-service/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stworldstudy/auth-service/internal/auth/domain"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

type TokenGenerator interface {
	IssueAccessToken(account *domain.Account) (string, error)
	IssueRefreshToken(account *domain.Account) (string, error)
	Verify(tokenString string, expected TokenType) (*JWTCustomClaims, error)
	GetAccessTokenExpiry() time.Duration
}

// JWTCustomClaims is the claim set other services read to identify the
// caller: sub, username, email and type.
type JWTCustomClaims struct {
	jwt.RegisteredClaims
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
	Type     TokenType `json:"type"`
}

// AccountID parses the subject claim.
func (c *JWTCustomClaims) AccountID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

type TokenService struct {
	secret             []byte
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}

	return &TokenService{
		secret:             []byte(secret),
		AccessTokenExpiry:  accessTTL,
		RefreshTokenExpiry: refreshTTL,
	}, nil
}

func (ts *TokenService) IssueAccessToken(account *domain.Account) (string, error) {
	now := time.Now()

	claims := JWTCustomClaims{
		Username: account.Name,
		Email:    account.Email,
		Type:     TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(account.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return ts.sign(claims)
}

// IssueRefreshToken carries only the subject and type. The random ID makes
// every issued token distinct, so a rotated token never equals its
// predecessor even within the same second.
func (ts *TokenService) IssueRefreshToken(account *domain.Account) (string, error) {
	now := time.Now()

	claims := JWTCustomClaims{
		Type: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(account.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.RefreshTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return ts.sign(claims)
}

func (ts *TokenService) sign(claims JWTCustomClaims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", claims.Type, err)
	}
	return token, nil
}

// Verify parses tokenString and checks signature, expiry and that the type
// claim equals expected. Every failure is reported as ErrInvalidToken.
func (ts *TokenService) Verify(tokenString string, expected TokenType) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil || !token.Valid {
		return nil, autherror.ErrInvalidToken
	}

	if claims.Type != expected {
		return nil, autherror.ErrInvalidToken
	}

	if _, err := claims.AccountID(); err != nil {
		return nil, autherror.ErrInvalidToken
	}

	return claims, nil
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}
