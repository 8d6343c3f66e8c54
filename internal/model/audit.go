package model

import (
	"encoding/json"
	"time"
)

type AuditEventType string

const (
	AuditLogin              AuditEventType = "login"
	AuditLoginFailed        AuditEventType = "login_failed"
	AuditSignup             AuditEventType = "signup"
	AuditSignupFailed       AuditEventType = "signup_failed"
	AuditRefresh            AuditEventType = "refresh"
	AuditRefreshFailed      AuditEventType = "refresh_failed"
	AuditLogout             AuditEventType = "logout"
	AuditUnauthorized       AuditEventType = "unauthorized_access"
	AuditRateLimitExceeded  AuditEventType = "rate_limit_exceeded"
	AuditPasswordChange     AuditEventType = "password_change"
	AuditTokenRevoked       AuditEventType = "token_revoked"
	AuditTokenReuseDetected AuditEventType = "token_reuse_detected"
	AuditSessionRevoked     AuditEventType = "session_revoked"
	AuditSuspiciousSession  AuditEventType = "suspicious_session"
)

// AuditLogEntry : append-only запись журнала безопасности
type AuditLogEntry struct {
	ID           string          `db:"id" json:"id"`
	EventType    AuditEventType  `db:"event_type" json:"event_type"`
	Success      bool            `db:"success" json:"success"`
	UserUUID     *string         `db:"user_uuid" json:"user_uuid,omitempty"`
	IPAddress    string          `db:"ip_address" json:"ip_address"`
	UserAgent    string          `db:"user_agent" json:"user_agent"`
	EventData    json.RawMessage `db:"event_data" json:"event_data,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
