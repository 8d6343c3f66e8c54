package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind : тип bearer токена, зашивается в claim "type"
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Subject : данные пользователя, которые попадают в токен
type Subject struct {
	UserUUID  string
	Email     string
	SessionID string
}

// Claims : полезная нагрузка access и refresh токенов.
// TokenFamily и ParentJTI заполняются только у refresh токена,
// RefreshTokenID только у access токена.
type Claims struct {
	UserUUID       string    `json:"user_uuid"`
	Email          string    `json:"email,omitempty"`
	Type           TokenKind `json:"type"`
	SessionID      string    `json:"sid,omitempty"`
	RefreshTokenID string    `json:"refresh_token_id,omitempty"`
	TokenFamily    string    `json:"token_family,omitempty"`
	ParentJTI      string    `json:"parent_jti,omitempty"`
	jwt.RegisteredClaims
}

// IssuedToken : подписанный токен и его метаданные, нужные для записи в БД
type IssuedToken struct {
	Token       string
	JTI         string
	Kind        TokenKind
	TokenFamily string
	ParentJTI   string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TokensPair содержит пару access и refresh токенов
// swagger:model
type TokensPair struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"accessToken"`

	// Refresh токен (JWT, одноразовый)
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	RefreshToken string `json:"refreshToken"`

	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
