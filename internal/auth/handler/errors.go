package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"github.com/stworldstudy/auth-service/internal/auth/dto"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

// StatusFor is the only place an error kind becomes an HTTP status.
func StatusFor(kind autherror.Kind) int {
	switch kind {
	case autherror.KindValidation,
		autherror.KindDuplicateEmail,
		autherror.KindVerificationRequired,
		autherror.KindAlreadyVerified,
		autherror.KindAccountBlocked,
		autherror.KindPasswordReuse:
		return fiber.StatusBadRequest
	case autherror.KindInvalidCode,
		autherror.KindExpiredCode,
		autherror.KindInvalidCredentials,
		autherror.KindInvalidToken,
		autherror.KindNotFound:
		return fiber.StatusUnauthorized
	case autherror.KindTooManyRequests:
		return fiber.StatusTooManyRequests
	case autherror.KindDelivery:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	pub := autherror.Public(err)
	status := StatusFor(pub.Kind)

	return c.Status(status).JSON(dto.ErrorResponse{
		Message:    pub.Message,
		Error:      utils.StatusMessage(status),
		StatusCode: status,
		Fields:     pub.Fields,
	})
}

// ErrorHandler renders errors that escape a route, including Fiber's own
// (unknown route, oversized body), in the same envelope as handler errors.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{
				Message:    fe.Message,
				Error:      utils.StatusMessage(fe.Code),
				StatusCode: fe.Code,
			})
		}

		if autherror.KindOf(err) == autherror.KindInternal {
			logger.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
		}
		return writeError(c, err)
	}
}
