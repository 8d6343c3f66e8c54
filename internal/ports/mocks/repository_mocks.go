// Package mocks : ручные testify моки интерфейсов ports для тестов сервисов и обработчиков
package mocks

import (
	"auth-session-server/internal/model"
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByUUID(ctx context.Context, uuid string) (*model.User, error) {
	args := m.Called(ctx, uuid)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, uuid, newPasswordHash string) error {
	args := m.Called(ctx, uuid, newPasswordHash)
	return args.Error(0)
}

// MockBlacklistRepository
type MockBlacklistRepository struct {
	mock.Mock
}

func (m *MockBlacklistRepository) Add(ctx context.Context, entry *model.BlacklistEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockBlacklistRepository) Exists(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlacklistRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockBlacklistCache
type MockBlacklistCache struct {
	mock.Mock
}

func (m *MockBlacklistCache) Get(ctx context.Context, jti string) (bool, bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *MockBlacklistCache) SetRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *MockBlacklistCache) SetAllowed(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

// MockRotationRepository
type MockRotationRepository struct {
	mock.Mock
}

func (m *MockRotationRepository) Insert(ctx context.Context, record *model.TokenRotationRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockRotationRepository) FindByJTI(ctx context.Context, jti string) (*model.TokenRotationRecord, error) {
	args := m.Called(ctx, jti)
	if r, ok := args.Get(0).(*model.TokenRotationRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRotationRepository) ListByFamily(ctx context.Context, family string) ([]model.TokenRotationRecord, error) {
	args := m.Called(ctx, family)
	if r, ok := args.Get(0).([]model.TokenRotationRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRotationRepository) DeleteByUser(ctx context.Context, userUUID string) (int64, error) {
	args := m.Called(ctx, userUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRotationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *model.UserSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*model.UserSession, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*model.UserSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) FindActiveByRefreshJTI(ctx context.Context, jti string, now time.Time) (*model.UserSession, error) {
	args := m.Called(ctx, jti, now)
	if s, ok := args.Get(0).(*model.UserSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) ListActive(ctx context.Context, userUUID string, now time.Time) ([]model.UserSession, error) {
	args := m.Called(ctx, userUUID, now)
	if s, ok := args.Get(0).([]model.UserSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) ListSince(ctx context.Context, userUUID string, since time.Time) ([]model.UserSession, error) {
	args := m.Called(ctx, userUUID, since)
	if s, ok := args.Get(0).([]model.UserSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) Rotate(ctx context.Context, id, oldJTI, newJTI string, expiresAt, now time.Time) (bool, error) {
	args := m.Called(ctx, id, oldJTI, newJTI, expiresAt, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) TouchActivity(ctx context.Context, refreshJTI string, now time.Time) error {
	args := m.Called(ctx, refreshJTI, now)
	return args.Error(0)
}

func (m *MockSessionRepository) Revoke(ctx context.Context, id, reason string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, reason, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) RevokeAllByUser(ctx context.Context, userUUID, reason, exceptID string, now time.Time) (int64, error) {
	args := m.Called(ctx, userUUID, reason, exceptID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Insert(ctx context.Context, entry *model.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) CountFailuresByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	args := m.Called(ctx, ip, since)
	return args.Int(0), args.Error(1)
}

func (m *MockAuditRepository) ListRecentByUser(ctx context.Context, userUUID string, since time.Time, limit int) ([]model.AuditLogEntry, error) {
	args := m.Called(ctx, userUUID, since, limit)
	if e, ok := args.Get(0).([]model.AuditLogEntry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.AuditLogEntry, error) {
	args := m.Called(ctx, cutoff, limit)
	if e, ok := args.Get(0).([]model.AuditLogEntry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockRateLimiter
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

// MockExternalIdentityResolver
type MockExternalIdentityResolver struct {
	mock.Mock
}

func (m *MockExternalIdentityResolver) ResolveSession(ctx context.Context, sessionToken string) (string, error) {
	args := m.Called(ctx, sessionToken)
	return args.String(0), args.Error(1)
}

// MockObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}
