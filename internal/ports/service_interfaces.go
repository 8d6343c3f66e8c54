package ports

import (
	"auth-session-server/internal/model"
	"context"
	"time"
)

// TokenCodec : подпись и проверка токенов, без хранилища
type TokenCodec interface {
	IssueAccessToken(subject model.Subject, refreshJTI string) (*model.IssuedToken, error)
	IssueRefreshToken(subject model.Subject, family, parentJTI string) (*model.IssuedToken, error)
	Verify(token string, kind model.TokenKind) (*model.Claims, error)
}

type TokenBlacklist interface {
	Add(ctx context.Context, jti, userUUID string, expiresAt time.Time, kind model.TokenKind, reason string) error
	IsBlacklisted(ctx context.Context, jti string) bool
	RevokeAllForUser(ctx context.Context, userUUID, reason string) (int, error)
	RevokeSessionsForUser(ctx context.Context, userUUID, reason, exceptSessionID string) (int, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type RotationTracker interface {
	RecordRotation(ctx context.Context, record *model.TokenRotationRecord) error
	WasUsed(ctx context.Context, jti string) (bool, error)
	FindRecord(ctx context.Context, jti string) (*model.TokenRotationRecord, error)
	GetFamily(ctx context.Context, family string) ([]model.TokenRotationRecord, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type SessionManager interface {
	CreateSession(ctx context.Context, input model.CreateSessionInput) (*model.UserSession, error)
	FindByID(ctx context.Context, id string) (*model.UserSession, error)
	FindActiveByRefreshJTI(ctx context.Context, jti string) (*model.UserSession, error)
	Rotate(ctx context.Context, sessionID, oldJTI, newJTI string, expiresAt time.Time) error
	UpdateActivity(ctx context.Context, refreshJTI string)
	ListActiveSessions(ctx context.Context, userUUID, currentSessionID string) ([]model.SessionView, error)
	RevokeSession(ctx context.Context, sessionID, reason string) (bool, error)
	RevokeAll(ctx context.Context, userUUID, reason, exceptSessionID string) (int64, error)
	CleanupExpired(ctx context.Context) (int64, error)
	EvaluateSession(ctx context.Context, session *model.UserSession) (bool, float64)
}

// AuditLog : журнал безопасности. Ни один метод не возвращает ошибку записи.
type AuditLog interface {
	Record(ctx context.Context, event model.AuditEventType, success bool, userUUID string, client model.ClientInfo, data map[string]any, errMessage string)
	LoginSucceeded(ctx context.Context, userUUID string, client model.ClientInfo, sessionID string)
	LoginFailed(ctx context.Context, userUUID, email string, client model.ClientInfo, reason string)
	SignupSucceeded(ctx context.Context, userUUID string, client model.ClientInfo)
	SignupFailed(ctx context.Context, email string, client model.ClientInfo, reason string)
	RefreshSucceeded(ctx context.Context, userUUID string, client model.ClientInfo, family string)
	RefreshFailed(ctx context.Context, userUUID string, client model.ClientInfo, reason string)
	Logout(ctx context.Context, userUUID string, client model.ClientInfo, sessionID string)
	UnauthorizedAccess(ctx context.Context, client model.ClientInfo, path, reason string)
	RateLimitExceeded(ctx context.Context, client model.ClientInfo, scope string)
	PasswordChanged(ctx context.Context, userUUID string, client model.ClientInfo, revokedSessions int)
	TokenRevoked(ctx context.Context, userUUID string, client model.ClientInfo, jti, reason string)
	TokenReuseDetected(ctx context.Context, userUUID string, client model.ClientInfo, jti, family string, revokedSessions int)
	SessionRevoked(ctx context.Context, userUUID string, client model.ClientInfo, sessionID, reason string)
	SuspiciousSession(ctx context.Context, userUUID string, client model.ClientInfo, sessionID string, score float64)
	CountFailuresByIP(ctx context.Context, ip string, windowMinutes int) (int, error)
	DetectSuspiciousActivity(ctx context.Context, userUUID string) bool
}

// AuthenticationService : операции, которые вызывают HTTP обработчики
type AuthenticationService interface {
	Signup(ctx context.Context, email, password string, client model.ClientInfo) (*model.TokensPair, error)
	Login(ctx context.Context, email, password string, client model.ClientInfo) (*model.TokensPair, error)
	Refresh(ctx context.Context, refreshToken string, client model.ClientInfo) (*model.TokensPair, error)
	Logout(ctx context.Context, identity *model.Identity, client model.ClientInfo) error
	ChangePassword(ctx context.Context, identity *model.Identity, currentPassword, newPassword string, client model.ClientInfo) (*model.TokensPair, error)
	ListSessions(ctx context.Context, identity *model.Identity) ([]model.SessionView, error)
	RevokeSession(ctx context.Context, identity *model.Identity, sessionID string, client model.ClientInfo) (bool, error)
	RevokeAllSessions(ctx context.Context, identity *model.Identity, exceptCurrent bool, client model.ClientInfo) (int, error)
	TokenFamily(ctx context.Context, identity *model.Identity, family string) ([]model.TokenRotationRecord, error)
}
