package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/stworldstudy/auth-service/internal/auth/service"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

const claimsKey = "claims"

// RequireAuth admits requests bearing a valid access token and stores its
// claims in Locals. Refresh tokens are refused.
func (h *AuthHandler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return writeError(c, autherror.ErrInvalidToken)
		}

		claims, err := h.tokens.Verify(strings.TrimSpace(token), service.TokenTypeAccess)
		if err != nil {
			return writeError(c, autherror.ErrInvalidToken)
		}
		if _, err := claims.AccountID(); err != nil {
			return writeError(c, autherror.ErrInvalidToken)
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// currentAccountID reads the subject placed by RequireAuth.
func currentAccountID(c *fiber.Ctx) (int64, error) {
	claims, ok := c.Locals(claimsKey).(*service.JWTCustomClaims)
	if !ok {
		return 0, autherror.ErrInvalidToken
	}
	id, err := claims.AccountID()
	if err != nil {
		return 0, autherror.ErrInvalidToken
	}
	return id, nil
}

// RequestLogger writes one access log line per request. Bodies and headers
// are never logged.
func RequestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Render through the app error handler so the logged status is final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := logger.Info()
		if status >= fiber.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Msg("request")

		return nil
	}
}
