package dto

import (
	"github.com/stworldstudy/auth-service/internal/auth/domain"
)

type ChangePasswordInput struct {
	OldPassword string `json:"org_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

type ResetPasswordInput struct {
	Email       string `json:"userEmail" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

type WithdrawInput struct {
	Reason string `json:"withdrawalReason" validate:"required,oneof=personal privacy low_usage service_issue other"`
}

type ProfileImageInput struct {
	Image int `json:"image" validate:"required,min=1,max=4"`
}

// UpdateUserInfoInput replaces the editable profile fields. The rules match
// SignUpInput.
type UpdateUserInfoInput struct {
	Name           string `json:"userName" validate:"required,notblank,max=50"`
	Birthday       string `json:"userBirth" validate:"required,datetime=2006-01-02"`
	IsMentor       bool   `json:"isMentor"`
	TargetLanguage string `json:"targetLanguage" validate:"required,max=10"`
}

type MessageResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

type ErrorResponse struct {
	Message    string            `json:"message"`
	Error      string            `json:"error"`
	StatusCode int               `json:"statusCode"`
	Fields     map[string]string `json:"fields,omitempty"`
}

type UserInfoResponse struct {
	Email          string `json:"userEmail"`
	Name           string `json:"userName"`
	Birthday       string `json:"userBirth,omitempty"`
	IsMentor       bool   `json:"isMentor"`
	TargetLanguage string `json:"targetLanguage"`
	ProfileImage   int    `json:"profileImage"`
	StatusCode     int    `json:"statusCode"`
}

func NewUserInfoResponse(account *domain.Account, status int) UserInfoResponse {
	resp := UserInfoResponse{
		Email:          account.Email,
		Name:           account.Name,
		IsMentor:       account.IsMentor,
		TargetLanguage: account.TargetLanguage,
		ProfileImage:   account.ProfileImage,
		StatusCode:     status,
	}
	if !account.Birthday.IsZero() {
		resp.Birthday = account.Birthday.Format(BirthdayLayout)
	}
	return resp
}
