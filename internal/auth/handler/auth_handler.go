package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stworldstudy/auth-service/internal/auth/domain"
	"github.com/stworldstudy/auth-service/internal/auth/dto"
	"github.com/stworldstudy/auth-service/internal/auth/service"
	autherror "github.com/stworldstudy/auth-service/internal/errors"
)

type AuthHandler struct {
	accounts  *service.AccountService
	tokens    service.TokenGenerator
	validator *Validator
}

func NewAuthHandler(accounts *service.AccountService, tokens service.TokenGenerator) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		tokens:    tokens,
		validator: NewValidator(),
	}
}

// bind parses the JSON body into input and validates its tags.
func (h *AuthHandler) bind(c *fiber.Ctx, input any) error {
	if err := c.BodyParser(input); err != nil {
		return autherror.NewValidation(map[string]string{"body": "invalid input"})
	}
	return h.validator.Struct(input)
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.MessageResponse{Message: msg, StatusCode: status})
}

func (h *AuthHandler) RequestVerification(c *fiber.Ctx) error {
	var input dto.EmailInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.RequestVerification(c.UserContext(), input.Email); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusOK, "verification code sent")
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var input dto.VerifyCodeInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.VerifyCode(c.UserContext(), input.Email, input.Code); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusOK, "email verified")
}

func (h *AuthHandler) CheckEmail(c *fiber.Ctx) error {
	var input dto.EmailInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.CheckEmail(c.UserContext(), input.Email); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusOK, "email is available")
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var input dto.SignUpInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.SignUp(c.UserContext(), input); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusCreated, "sign up succeeded")
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var input dto.SignInInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	tokens, err := h.accounts.SignIn(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}

	tokens.StatusCode = fiber.StatusOK
	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, autherror.ErrInvalidToken)
	}

	tokens, err := h.accounts.Refresh(c.UserContext(), input.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}

	tokens.StatusCode = fiber.StatusOK
	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	accountID, err := currentAccountID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.SignOut(c.UserContext(), accountID); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusOK, "signed out")
}

func (h *AuthHandler) UserInfo(c *fiber.Ctx) error {
	accountID, err := currentAccountID(c)
	if err != nil {
		return writeError(c, err)
	}

	account, err := h.accounts.GetMyInfo(c.UserContext(), accountID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewUserInfoResponse(account, fiber.StatusOK))
}

func (h *AuthHandler) UpdateUserInfo(c *fiber.Ctx) error {
	accountID, err := currentAccountID(c)
	if err != nil {
		return writeError(c, err)
	}

	var input dto.UpdateUserInfoInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	account, err := h.accounts.UpdateUserInfo(c.UserContext(), accountID, input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.NewUserInfoResponse(account, fiber.StatusOK))
}

func (h *AuthHandler) SetProfileImage(c *fiber.Ctx) error {
	accountID, err := currentAccountID(c)
	if err != nil {
		return writeError(c, err)
	}

	var input dto.ProfileImageInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.SetProfileImage(c.UserContext(), accountID, input.Image); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusOK, "profile image updated")
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	accountID, err := currentAccountID(c)
	if err != nil {
		return writeError(c, err)
	}

	var input dto.ChangePasswordInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.ChangePassword(c.UserContext(), accountID, input.OldPassword, input.NewPassword); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusOK, "password changed")
}

func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var input dto.EmailInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.RequestPasswordReset(c.UserContext(), input.Email); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusOK, "password reset code sent")
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input dto.ResetPasswordInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.ResetPassword(c.UserContext(), input.Email, input.NewPassword); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusOK, "password reset")
}

func (h *AuthHandler) Withdraw(c *fiber.Ctx) error {
	accountID, err := currentAccountID(c)
	if err != nil {
		return writeError(c, err)
	}

	var input dto.WithdrawInput
	if err := h.bind(c, &input); err != nil {
		return writeError(c, err)
	}

	if err := h.accounts.Deactivate(c.UserContext(), accountID, domain.WithdrawalReason(input.Reason)); err != nil {
		return writeError(c, err)
	}
	return message(c, fiber.StatusOK, "account withdrawn")
}
