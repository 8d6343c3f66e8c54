package requestresponse

import "time"

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,max=72" example:"P@ssw0rd123"`
}

// SignupRequest : тело запроса на регистрацию
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=8,max=72" example:"P@ssw0rd123"`
}

// TokensResponse : пара токенов после логина, регистрации или refresh
type TokensResponse struct {
	Response struct {
		AccessToken      string    `json:"access_token" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
		RefreshToken     string    `json:"refresh_token" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
		AccessExpiresAt  time.Time `json:"access_expires_at"`
		RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	} `json:"response"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	Response struct {
		UserUUID string `json:"user_uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	} `json:"response"`
}

// RefreshTokenRequest : запрос на обновление пары токенов
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
}

// ChangePasswordRequest : смена пароля, все остальные устройства будут разлогинены
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=72"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// StatusResponse : ответ без данных
type StatusResponse struct {
	Response struct {
		OK bool `json:"ok" example:"true"`
	} `json:"response"`
}

// PingResponse : ответ публичного эндпоинта
type PingResponse struct {
	Response struct {
		Authenticated bool   `json:"authenticated"`
		UserUUID      string `json:"user_uuid,omitempty"`
	} `json:"response"`
}

type ErrorDetail struct {
	Code int    `json:"code" example:"401"`
	Text string `json:"text" example:"требуется повторный вход"`
}

// ErrorResponse : единый формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
