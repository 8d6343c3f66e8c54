package service

import (
	"auth-session-server/internal/metrics"
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports"
	apperrors "auth-session-server/pkg/errors"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditService пишет журнал безопасности.
// Запись никогда не возвращает ошибку: недоступный журнал не должен ломать вход.
type AuditService struct {
	repo                     ports.AuditRepository
	metrics                  *metrics.Metrics
	logger                   *zap.Logger
	suspiciousFailedLogins   int
	suspiciousLookbackEvents int
	suspiciousWindow         time.Duration
	now                      func() time.Time
}

func NewAuditService(
	repo ports.AuditRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	suspiciousFailedLogins, suspiciousLookbackEvents int,
	suspiciousWindow time.Duration,
) *AuditService {
	return &AuditService{
		repo:                     repo,
		metrics:                  m,
		logger:                   logger,
		suspiciousFailedLogins:   suspiciousFailedLogins,
		suspiciousLookbackEvents: suspiciousLookbackEvents,
		suspiciousWindow:         suspiciousWindow,
		now:                      time.Now,
	}
}

func (s *AuditService) Record(ctx context.Context, event model.AuditEventType, success bool, userUUID string, client model.ClientInfo, data map[string]any, errMessage string) {
	entry := &model.AuditLogEntry{
		ID:        uuid.NewString(),
		EventType: event,
		Success:   success,
		UserUUID:  optional(userUUID),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		EventData: json.RawMessage("{}"),
		CreatedAt: s.now(),
	}
	if errMessage != "" {
		entry.ErrorMessage = &errMessage
	}
	if len(data) > 0 {
		if raw, err := json.Marshal(data); err == nil {
			entry.EventData = raw
		} else {
			s.logger.Warn("не удалось сериализовать данные события", zap.String("event", string(event)), zap.Error(err))
		}
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("не удалось записать событие аудита",
			zap.String("event", string(event)),
			zap.Bool("success", success),
			zap.String("user_uuid", userUUID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.AuditWriteFailures.Inc()
		}
	}
}

func (s *AuditService) LoginSucceeded(ctx context.Context, userUUID string, client model.ClientInfo, sessionID string) {
	s.Record(ctx, model.AuditLogin, true, userUUID, client, map[string]any{"session_id": sessionID}, "")
}

// LoginFailed : userUUID пустой, если пользователь с таким email не найден
func (s *AuditService) LoginFailed(ctx context.Context, userUUID, email string, client model.ClientInfo, reason string) {
	s.Record(ctx, model.AuditLoginFailed, false, userUUID, client, map[string]any{"email": email}, reason)
}

func (s *AuditService) SignupSucceeded(ctx context.Context, userUUID string, client model.ClientInfo) {
	s.Record(ctx, model.AuditSignup, true, userUUID, client, nil, "")
}

func (s *AuditService) SignupFailed(ctx context.Context, email string, client model.ClientInfo, reason string) {
	s.Record(ctx, model.AuditSignupFailed, false, "", client, map[string]any{"email": email}, reason)
}

func (s *AuditService) RefreshSucceeded(ctx context.Context, userUUID string, client model.ClientInfo, family string) {
	s.Record(ctx, model.AuditRefresh, true, userUUID, client, map[string]any{"token_family": family}, "")
}

func (s *AuditService) RefreshFailed(ctx context.Context, userUUID string, client model.ClientInfo, reason string) {
	s.Record(ctx, model.AuditRefreshFailed, false, userUUID, client, nil, reason)
}

func (s *AuditService) Logout(ctx context.Context, userUUID string, client model.ClientInfo, sessionID string) {
	s.Record(ctx, model.AuditLogout, true, userUUID, client, map[string]any{"session_id": sessionID}, "")
}

func (s *AuditService) UnauthorizedAccess(ctx context.Context, client model.ClientInfo, path, reason string) {
	s.Record(ctx, model.AuditUnauthorized, false, "", client, map[string]any{"path": path}, reason)
}

func (s *AuditService) RateLimitExceeded(ctx context.Context, client model.ClientInfo, scope string) {
	s.Record(ctx, model.AuditRateLimitExceeded, false, "", client, map[string]any{"scope": scope}, "")
}

func (s *AuditService) PasswordChanged(ctx context.Context, userUUID string, client model.ClientInfo, revokedSessions int) {
	s.Record(ctx, model.AuditPasswordChange, true, userUUID, client, map[string]any{"revoked_sessions": revokedSessions}, "")
}

func (s *AuditService) TokenRevoked(ctx context.Context, userUUID string, client model.ClientInfo, jti, reason string) {
	s.Record(ctx, model.AuditTokenRevoked, true, userUUID, client, map[string]any{"jti": jti, "reason": reason}, "")
}

func (s *AuditService) TokenReuseDetected(ctx context.Context, userUUID string, client model.ClientInfo, jti, family string, revokedSessions int) {
	s.Record(ctx, model.AuditTokenReuseDetected, false, userUUID, client, map[string]any{
		"jti":              jti,
		"token_family":     family,
		"revoked_sessions": revokedSessions,
	}, "refresh токен предъявлен повторно")
}

func (s *AuditService) SessionRevoked(ctx context.Context, userUUID string, client model.ClientInfo, sessionID, reason string) {
	s.Record(ctx, model.AuditSessionRevoked, true, userUUID, client, map[string]any{"session_id": sessionID, "reason": reason}, "")
}

func (s *AuditService) SuspiciousSession(ctx context.Context, userUUID string, client model.ClientInfo, sessionID string, score float64) {
	s.Record(ctx, model.AuditSuspiciousSession, true, userUUID, client, map[string]any{"session_id": sessionID, "score": score}, "")
}

// CountFailuresByIP : неудачные входы с ip за последние windowMinutes минут
func (s *AuditService) CountFailuresByIP(ctx context.Context, ip string, windowMinutes int) (int, error) {
	since := s.now().Add(-time.Duration(windowMinutes) * time.Minute)
	count, err := s.repo.CountFailuresByIP(ctx, ip, since)
	if err != nil {
		return 0, apperrors.ErrStorage(err)
	}
	return count, nil
}

// DetectSuspiciousActivity : больше suspiciousFailedLogins неудачных входов
// среди последних suspiciousLookbackEvents событий пользователя за окно
func (s *AuditService) DetectSuspiciousActivity(ctx context.Context, userUUID string) bool {
	entries, err := s.repo.ListRecentByUser(ctx, userUUID, s.now().Add(-s.suspiciousWindow), s.suspiciousLookbackEvents)
	if err != nil {
		s.logger.Warn("не удалось прочитать журнал пользователя", zap.String("user_uuid", userUUID), zap.Error(err))
		return false
	}

	failed := 0
	for _, entry := range entries {
		if entry.EventType == model.AuditLoginFailed {
			failed++
		}
	}
	return failed > s.suspiciousFailedLogins
}
