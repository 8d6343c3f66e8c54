package ports

import (
	"auth-session-server/internal/model"
	"context"
	"time"
)

// UserRepository : SQL слой пользователей. Поиск возвращает nil, nil если записи нет.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
	UpdatePassword(ctx context.Context, uuid, newPasswordHash string) error
}

// BlacklistRepository : таблица отозванных jti
type BlacklistRepository interface {
	Add(ctx context.Context, entry *model.BlacklistEntry) error
	Exists(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// BlacklistCache : Redis слой перед BlacklistRepository
type BlacklistCache interface {
	Get(ctx context.Context, jti string) (revoked bool, found bool, err error)
	SetRevoked(ctx context.Context, jti string, ttl time.Duration) error
	SetAllowed(ctx context.Context, jti string, ttl time.Duration) error
}

// RotationRepository : история погашения refresh токенов.
// Insert возвращает false, если запись для jti уже есть.
type RotationRepository interface {
	Insert(ctx context.Context, record *model.TokenRotationRecord) (bool, error)
	FindByJTI(ctx context.Context, jti string) (*model.TokenRotationRecord, error)
	ListByFamily(ctx context.Context, family string) ([]model.TokenRotationRecord, error)
	DeleteByUser(ctx context.Context, userUUID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *model.UserSession) error
	FindByID(ctx context.Context, id string) (*model.UserSession, error)
	FindActiveByRefreshJTI(ctx context.Context, jti string, now time.Time) (*model.UserSession, error)
	ListActive(ctx context.Context, userUUID string, now time.Time) ([]model.UserSession, error)
	ListSince(ctx context.Context, userUUID string, since time.Time) ([]model.UserSession, error)
	Rotate(ctx context.Context, id, oldJTI, newJTI string, expiresAt, now time.Time) (bool, error)
	TouchActivity(ctx context.Context, refreshJTI string, now time.Time) error
	Revoke(ctx context.Context, id, reason string, now time.Time) (bool, error)
	RevokeAllByUser(ctx context.Context, userUUID, reason, exceptID string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuditRepository interface {
	Insert(ctx context.Context, entry *model.AuditLogEntry) error
	CountFailuresByIP(ctx context.Context, ip string, since time.Time) (int, error)
	ListRecentByUser(ctx context.Context, userUUID string, since time.Time, limit int) ([]model.AuditLogEntry, error)
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.AuditLogEntry, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// RateLimiter : счётчик запросов в фиксированном окне
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ExternalIdentityResolver : сессия внешнего провайдера -> внутренний UUID пользователя.
// Пустая строка без ошибки означает, что сессии нет.
type ExternalIdentityResolver interface {
	ResolveSession(ctx context.Context, sessionToken string) (string, error)
}
