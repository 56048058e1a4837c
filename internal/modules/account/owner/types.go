package owner

import "time"

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=8"`
	Mail     string `json:"mail"     binding:"omitempty,email"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
}

type CreateTokenRequest struct {
	Name      string     `json:"name" binding:"required"`
	ExpiredAt *time.Time `json:"expired_at"`
}
