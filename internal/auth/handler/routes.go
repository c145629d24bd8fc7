package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/api/v1/auth")

	auth.Post("/email/verification", h.RequestVerification)
	auth.Post("/email/verify", h.VerifyEmail)
	auth.Post("/check-email", h.CheckEmail)
	auth.Post("/signup", h.SignUp)
	auth.Post("/signin", h.SignIn)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/password/reset-request", h.RequestPasswordReset)
	auth.Post("/password/reset", h.ResetPassword)

	// Access token required
	auth.Post("/signout", h.RequireAuth(), h.SignOut)
	auth.Get("/userinfo", h.RequireAuth(), h.UserInfo)
	auth.Patch("/update-userinfo", h.RequireAuth(), h.UpdateUserInfo)
	auth.Patch("/profile-image", h.RequireAuth(), h.SetProfileImage)
	auth.Patch("/password", h.RequireAuth(), h.ChangePassword)
	auth.Delete("/account", h.RequireAuth(), h.Withdraw)
}
