package requestresponse

import "auth-session-server/internal/model"

// SessionsResponse : список активных устройств
type SessionsResponse struct {
	Response []model.SessionView `json:"response"`
}

// RevokeSessionResponse : результат отзыва одной сессии
type RevokeSessionResponse struct {
	Response struct {
		SessionID string `json:"session_id" example:"0b7c1a5e-8a47-4a55-9d1a-0f0c4c1d2e3f"`
		Revoked   bool   `json:"revoked" example:"true"`
	} `json:"response"`
}

// RevokeAllSessionsResponse : сколько сессий было закрыто
type RevokeAllSessionsResponse struct {
	Response struct {
		Revoked int `json:"revoked" example:"3"`
	} `json:"response"`
}

// TokenFamilyResponse : цепочка ротаций семейства, новые записи первыми
type TokenFamilyResponse struct {
	Response []model.TokenRotationRecord `json:"response"`
}
