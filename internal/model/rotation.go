package model

import "time"

// TokenRotationRecord : запись о погашении refresh токена JTI.
// ChildJTI выставляется ровно один раз, повторное погашение того же JTI
// является признаком кражи токена.
type TokenRotationRecord struct {
	JTI         string     `db:"jti" json:"jti"`
	UserUUID    string     `db:"user_uuid" json:"user_uuid"`
	TokenFamily string     `db:"token_family" json:"token_family"`
	ParentJTI   *string    `db:"parent_jti" json:"parent_jti,omitempty"`
	ChildJTI    *string    `db:"child_jti" json:"child_jti,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UsedAt      *time.Time `db:"used_at" json:"used_at,omitempty"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
}

// Redeemed : токен уже обменян на новую пару
func (r *TokenRotationRecord) Redeemed() bool {
	return r != nil && r.ChildJTI != nil && *r.ChildJTI != ""
}
