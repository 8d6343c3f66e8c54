package model

import "time"

// DeviceInfo : результат разбора User-Agent. Неизвестные поля остаются nil.
type DeviceInfo struct {
	DeviceType     *string `db:"device_type" json:"device_type,omitempty"`
	DeviceName     *string `db:"device_name" json:"device_name,omitempty"`
	Browser        *string `db:"browser" json:"browser,omitempty"`
	BrowserVersion *string `db:"browser_version" json:"browser_version,omitempty"`
	OS             *string `db:"os" json:"os,omitempty"`
	OSVersion      *string `db:"os_version" json:"os_version,omitempty"`
}

const (
	DeviceTypeMobile  = "mobile"
	DeviceTypeTablet  = "tablet"
	DeviceTypeDesktop = "desktop"
)

// ClientInfo : сетевые данные запроса
type ClientInfo struct {
	IPAddress string
	UserAgent string
	Country   string
	City      string
}

// UserSession : один вход с одного устройства. RefreshTokenJTI сдвигается
// при каждой ротации, строка закрывается через RevokedAt.
type UserSession struct {
	ID              string `db:"id" json:"id"`
	UserUUID        string `db:"user_uuid" json:"user_uuid"`
	RefreshTokenJTI string `db:"refresh_token_jti" json:"-"`
	TokenFamily     string `db:"token_family" json:"-"`
	DeviceInfo
	IPAddress    string     `db:"ip_address" json:"ip_address"`
	Country      *string    `db:"country" json:"country,omitempty"`
	City         *string    `db:"city" json:"city,omitempty"`
	UserAgent    string     `db:"user_agent" json:"user_agent"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastActivity time.Time  `db:"last_activity" json:"last_activity"`
	ExpiresAt    time.Time  `db:"expires_at" json:"expires_at"`
	RevokedAt    *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	RevokeReason *string    `db:"revoke_reason" json:"revoke_reason,omitempty"`
}

func (s *UserSession) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// SessionView : сессия в списке устройств пользователя
type SessionView struct {
	UserSession
	Current bool `json:"current"`
}

// CreateSessionInput : параметры новой сессии при логине
type CreateSessionInput struct {
	SessionID       string
	UserUUID        string
	RefreshTokenJTI string
	TokenFamily     string
	ExpiresAt       time.Time
	Client          ClientInfo
}
