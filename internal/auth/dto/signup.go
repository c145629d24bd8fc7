package dto

const BirthdayLayout = "2006-01-02"

type EmailInput struct {
	Email string `json:"userEmail" validate:"required,email"`
}

type VerifyCodeInput struct {
	Email string `json:"userEmail" validate:"required,email"`
	Code  string `json:"verificationCode" validate:"required,len=6"`
}

type SignUpInput struct {
	Email          string `json:"userEmail" validate:"required,email"`
	Password       string `json:"password" validate:"required,password"`
	Name           string `json:"userName" validate:"required,notblank,max=50"`
	Birthday       string `json:"userBirth" validate:"required,datetime=2006-01-02"`
	IsMentor       bool   `json:"isMentor"`
	TargetLanguage string `json:"targetLanguage" validate:"required,max=10"`
	ProfileImage   int    `json:"profileImage" validate:"omitempty,min=1,max=4"`
}
