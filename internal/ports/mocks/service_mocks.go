package mocks

import (
	"auth-session-server/internal/model"
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockTokenCodec
type MockTokenCodec struct {
	mock.Mock
}

func (m *MockTokenCodec) IssueAccessToken(subject model.Subject, refreshJTI string) (*model.IssuedToken, error) {
	args := m.Called(subject, refreshJTI)
	if t, ok := args.Get(0).(*model.IssuedToken); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenCodec) IssueRefreshToken(subject model.Subject, family, parentJTI string) (*model.IssuedToken, error) {
	args := m.Called(subject, family, parentJTI)
	if t, ok := args.Get(0).(*model.IssuedToken); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenCodec) Verify(token string, kind model.TokenKind) (*model.Claims, error) {
	args := m.Called(token, kind)
	if c, ok := args.Get(0).(*model.Claims); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTokenBlacklist
type MockTokenBlacklist struct {
	mock.Mock
}

func (m *MockTokenBlacklist) Add(ctx context.Context, jti, userUUID string, expiresAt time.Time, kind model.TokenKind, reason string) error {
	args := m.Called(ctx, jti, userUUID, expiresAt, kind, reason)
	return args.Error(0)
}

func (m *MockTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) bool {
	args := m.Called(ctx, jti)
	return args.Bool(0)
}

func (m *MockTokenBlacklist) RevokeAllForUser(ctx context.Context, userUUID, reason string) (int, error) {
	args := m.Called(ctx, userUUID, reason)
	return args.Int(0), args.Error(1)
}

func (m *MockTokenBlacklist) RevokeSessionsForUser(ctx context.Context, userUUID, reason, exceptSessionID string) (int, error) {
	args := m.Called(ctx, userUUID, reason, exceptSessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockTokenBlacklist) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRotationTracker
type MockRotationTracker struct {
	mock.Mock
}

func (m *MockRotationTracker) RecordRotation(ctx context.Context, record *model.TokenRotationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRotationTracker) WasUsed(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *MockRotationTracker) FindRecord(ctx context.Context, jti string) (*model.TokenRotationRecord, error) {
	args := m.Called(ctx, jti)
	if r, ok := args.Get(0).(*model.TokenRotationRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRotationTracker) GetFamily(ctx context.Context, family string) ([]model.TokenRotationRecord, error) {
	args := m.Called(ctx, family)
	if r, ok := args.Get(0).([]model.TokenRotationRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRotationTracker) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionManager
type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) CreateSession(ctx context.Context, input model.CreateSessionInput) (*model.UserSession, error) {
	args := m.Called(ctx, input)
	if s, ok := args.Get(0).(*model.UserSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionManager) FindByID(ctx context.Context, id string) (*model.UserSession, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*model.UserSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionManager) FindActiveByRefreshJTI(ctx context.Context, jti string) (*model.UserSession, error) {
	args := m.Called(ctx, jti)
	if s, ok := args.Get(0).(*model.UserSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionManager) Rotate(ctx context.Context, sessionID, oldJTI, newJTI string, expiresAt time.Time) error {
	args := m.Called(ctx, sessionID, oldJTI, newJTI, expiresAt)
	return args.Error(0)
}

func (m *MockSessionManager) UpdateActivity(ctx context.Context, refreshJTI string) {
	m.Called(ctx, refreshJTI)
}

func (m *MockSessionManager) ListActiveSessions(ctx context.Context, userUUID, currentSessionID string) ([]model.SessionView, error) {
	args := m.Called(ctx, userUUID, currentSessionID)
	if s, ok := args.Get(0).([]model.SessionView); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionManager) RevokeSession(ctx context.Context, sessionID, reason string) (bool, error) {
	args := m.Called(ctx, sessionID, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionManager) RevokeAll(ctx context.Context, userUUID, reason, exceptSessionID string) (int64, error) {
	args := m.Called(ctx, userUUID, reason, exceptSessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionManager) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionManager) EvaluateSession(ctx context.Context, session *model.UserSession) (bool, float64) {
	args := m.Called(ctx, session)
	return args.Bool(0), args.Get(1).(float64)
}

// MockAuthenticationService
type MockAuthenticationService struct {
	mock.Mock
}

func (m *MockAuthenticationService) Signup(ctx context.Context, email, password string, client model.ClientInfo) (*model.TokensPair, error) {
	args := m.Called(ctx, email, password, client)
	if p, ok := args.Get(0).(*model.TokensPair); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) Login(ctx context.Context, email, password string, client model.ClientInfo) (*model.TokensPair, error) {
	args := m.Called(ctx, email, password, client)
	if p, ok := args.Get(0).(*model.TokensPair); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) Refresh(ctx context.Context, refreshToken string, client model.ClientInfo) (*model.TokensPair, error) {
	args := m.Called(ctx, refreshToken, client)
	if p, ok := args.Get(0).(*model.TokensPair); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) Logout(ctx context.Context, identity *model.Identity, client model.ClientInfo) error {
	args := m.Called(ctx, identity, client)
	return args.Error(0)
}

func (m *MockAuthenticationService) ChangePassword(ctx context.Context, identity *model.Identity, currentPassword, newPassword string, client model.ClientInfo) (*model.TokensPair, error) {
	args := m.Called(ctx, identity, currentPassword, newPassword, client)
	if p, ok := args.Get(0).(*model.TokensPair); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) ListSessions(ctx context.Context, identity *model.Identity) ([]model.SessionView, error) {
	args := m.Called(ctx, identity)
	if s, ok := args.Get(0).([]model.SessionView); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticationService) RevokeSession(ctx context.Context, identity *model.Identity, sessionID string, client model.ClientInfo) (bool, error) {
	args := m.Called(ctx, identity, sessionID, client)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthenticationService) RevokeAllSessions(ctx context.Context, identity *model.Identity, exceptCurrent bool, client model.ClientInfo) (int, error) {
	args := m.Called(ctx, identity, exceptCurrent, client)
	return args.Int(0), args.Error(1)
}

func (m *MockAuthenticationService) TokenFamily(ctx context.Context, identity *model.Identity, family string) ([]model.TokenRotationRecord, error) {
	args := m.Called(ctx, identity, family)
	if r, ok := args.Get(0).([]model.TokenRotationRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
