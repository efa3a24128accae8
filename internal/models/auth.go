package models

// LoginRequest holds credentials for authenticating a user. Both JSON and
// form bodies are accepted.
type LoginRequest struct {
	Email     string `json:"email" form:"email" validate:"required,email"`
	Password  string `json:"password" form:"password" validate:"required"`
	IP        string `json:"-" form:"-"`
	UserAgent string `json:"-" form:"-"`
}

// TokenResponse is returned by the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"
