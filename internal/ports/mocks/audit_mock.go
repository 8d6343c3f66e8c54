package mocks

import (
	"auth-session-server/internal/model"
	"context"

	"github.com/stretchr/testify/mock"
)

// MockAuditLog : обёртки журнала записываются через Called под своим именем,
// так тест может проверить конкретное событие
type MockAuditLog struct {
	mock.Mock
}

func (m *MockAuditLog) Record(ctx context.Context, event model.AuditEventType, success bool, userUUID string, client model.ClientInfo, data map[string]any, errMessage string) {
	m.Called(ctx, event, success, userUUID, client, data, errMessage)
}

func (m *MockAuditLog) LoginSucceeded(ctx context.Context, userUUID string, client model.ClientInfo, sessionID string) {
	m.Called(ctx, userUUID, client, sessionID)
}

func (m *MockAuditLog) LoginFailed(ctx context.Context, userUUID, email string, client model.ClientInfo, reason string) {
	m.Called(ctx, userUUID, email, client, reason)
}

func (m *MockAuditLog) SignupSucceeded(ctx context.Context, userUUID string, client model.ClientInfo) {
	m.Called(ctx, userUUID, client)
}

func (m *MockAuditLog) SignupFailed(ctx context.Context, email string, client model.ClientInfo, reason string) {
	m.Called(ctx, email, client, reason)
}

func (m *MockAuditLog) RefreshSucceeded(ctx context.Context, userUUID string, client model.ClientInfo, family string) {
	m.Called(ctx, userUUID, client, family)
}

func (m *MockAuditLog) RefreshFailed(ctx context.Context, userUUID string, client model.ClientInfo, reason string) {
	m.Called(ctx, userUUID, client, reason)
}

func (m *MockAuditLog) Logout(ctx context.Context, userUUID string, client model.ClientInfo, sessionID string) {
	m.Called(ctx, userUUID, client, sessionID)
}

func (m *MockAuditLog) UnauthorizedAccess(ctx context.Context, client model.ClientInfo, path, reason string) {
	m.Called(ctx, client, path, reason)
}

func (m *MockAuditLog) RateLimitExceeded(ctx context.Context, client model.ClientInfo, scope string) {
	m.Called(ctx, client, scope)
}

func (m *MockAuditLog) PasswordChanged(ctx context.Context, userUUID string, client model.ClientInfo, revokedSessions int) {
	m.Called(ctx, userUUID, client, revokedSessions)
}

func (m *MockAuditLog) TokenRevoked(ctx context.Context, userUUID string, client model.ClientInfo, jti, reason string) {
	m.Called(ctx, userUUID, client, jti, reason)
}

func (m *MockAuditLog) TokenReuseDetected(ctx context.Context, userUUID string, client model.ClientInfo, jti, family string, revokedSessions int) {
	m.Called(ctx, userUUID, client, jti, family, revokedSessions)
}

func (m *MockAuditLog) SessionRevoked(ctx context.Context, userUUID string, client model.ClientInfo, sessionID, reason string) {
	m.Called(ctx, userUUID, client, sessionID, reason)
}

func (m *MockAuditLog) SuspiciousSession(ctx context.Context, userUUID string, client model.ClientInfo, sessionID string, score float64) {
	m.Called(ctx, userUUID, client, sessionID, score)
}

func (m *MockAuditLog) CountFailuresByIP(ctx context.Context, ip string, windowMinutes int) (int, error) {
	args := m.Called(ctx, ip, windowMinutes)
	return args.Int(0), args.Error(1)
}

func (m *MockAuditLog) DetectSuspiciousActivity(ctx context.Context, userUUID string) bool {
	args := m.Called(ctx, userUUID)
	return args.Bool(0)
}
