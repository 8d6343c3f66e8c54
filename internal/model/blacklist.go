package model

import "time"

// BlacklistEntry : отозванный токен. Запись нужна только до естественного
// истечения токена, после этого её удаляет очистка.
type BlacklistEntry struct {
	JTI       string    `db:"jti" json:"jti"`
	UserUUID  string    `db:"user_uuid" json:"user_uuid"`
	TokenType TokenKind `db:"token_type" json:"token_type"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	RevokedAt time.Time `db:"revoked_at" json:"revoked_at"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
}

const (
	RevokeReasonLogout         = "logout"
	RevokeReasonPasswordChange = "password_change"
	RevokeReasonTokenReuse     = "token_reuse_detected"
	RevokeReasonUserAction     = "user_revoked"
	RevokeReasonSignOutOthers  = "sign_out_other_devices"
)
