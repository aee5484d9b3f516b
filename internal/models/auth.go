package models

// LoginRequest is the body of POST /auth
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued access token
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}
