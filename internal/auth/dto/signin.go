package dto

type SignInInput struct {
	Email    string `json:"userEmail" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenResponse is returned by sign-in and refresh. UserName is only set on
// sign-in.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserName     string `json:"userName,omitempty"`
	ExpiresIn    int    `json:"expiresIn"`
	StatusCode   int    `json:"statusCode"`
}
