package service

import (
	"auth-session-server/internal/metrics"
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports"
	"auth-session-server/internal/util"
	apperrors "auth-session-server/pkg/errors"
	"context"
	"time"

	"go.uber.org/zap"
)

// SuspicionScorer оценивает новую сессию на фоне недавних сессий пользователя.
// Возвращает число от 0 до 1.
type SuspicionScorer func(candidate *model.UserSession, history []model.UserSession) float64

const (
	newIPWeight      = 0.4
	newCountryWeight = 0.6
)

// DefaultSuspicionScorer : новый IP и новая страна относительно истории.
// Без истории сессия не подозрительна.
func DefaultSuspicionScorer(candidate *model.UserSession, history []model.UserSession) float64 {
	if len(history) == 0 {
		return 0
	}

	knownIP := false
	knownCountry := false
	countriesSeen := false
	for _, past := range history {
		if past.IPAddress == candidate.IPAddress {
			knownIP = true
		}
		if past.Country != nil {
			countriesSeen = true
			if candidate.Country != nil && *past.Country == *candidate.Country {
				knownCountry = true
			}
		}
	}

	score := 0.0
	if !knownIP {
		score += newIPWeight
	}
	if candidate.Country != nil && countriesSeen && !knownCountry {
		score += newCountryWeight
	}
	return score
}

type SessionService struct {
	repo      ports.SessionRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
	scorer    SuspicionScorer
	lookback  time.Duration
	threshold float64
	now       func() time.Time
}

// NewSessionService : scorer nil означает DefaultSuspicionScorer
func NewSessionService(
	repo ports.SessionRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	scorer SuspicionScorer,
	lookback time.Duration,
	threshold float64,
) *SessionService {
	if scorer == nil {
		scorer = DefaultSuspicionScorer
	}
	return &SessionService{
		repo:      repo,
		metrics:   m,
		logger:    logger,
		scorer:    scorer,
		lookback:  lookback,
		threshold: threshold,
		now:       time.Now,
	}
}

// CreateSession : одна строка на один вход с устройства
func (s *SessionService) CreateSession(ctx context.Context, input model.CreateSessionInput) (*model.UserSession, error) {
	now := s.now()
	session := &model.UserSession{
		ID:              input.SessionID,
		UserUUID:        input.UserUUID,
		RefreshTokenJTI: input.RefreshTokenJTI,
		TokenFamily:     input.TokenFamily,
		DeviceInfo:      util.ParseUserAgent(input.Client.UserAgent),
		IPAddress:       input.Client.IPAddress,
		Country:         optional(input.Client.Country),
		City:            optional(input.Client.City),
		UserAgent:       input.Client.UserAgent,
		CreatedAt:       now,
		LastActivity:    now,
		ExpiresAt:       input.ExpiresAt,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, apperrors.ErrStorage(err)
	}

	return session, nil
}

func (s *SessionService) FindByID(ctx context.Context, id string) (*model.UserSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrStorage(err)
	}
	return session, nil
}

func (s *SessionService) FindActiveByRefreshJTI(ctx context.Context, jti string) (*model.UserSession, error) {
	session, err := s.repo.FindActiveByRefreshJTI(ctx, jti, s.now())
	if err != nil {
		return nil, apperrors.ErrStorage(err)
	}
	return session, nil
}

// Rotate сдвигает вершину сессии. Если сессию уже закрыли или её вершина
// ушла вперёд, возвращается ErrTokenInvalid.
func (s *SessionService) Rotate(ctx context.Context, sessionID, oldJTI, newJTI string, expiresAt time.Time) error {
	rotated, err := s.repo.Rotate(ctx, sessionID, oldJTI, newJTI, expiresAt, s.now())
	if err != nil {
		return apperrors.ErrStorage(err)
	}
	if !rotated {
		return apperrors.ErrTokenInvalid
	}
	return nil
}

// UpdateActivity : best-effort, ошибка только в лог
func (s *SessionService) UpdateActivity(ctx context.Context, refreshJTI string) {
	if refreshJTI == "" {
		return
	}
	if err := s.repo.TouchActivity(ctx, refreshJTI, s.now()); err != nil {
		s.logger.Debug("не удалось обновить активность сессии", zap.Error(err))
	}
}

// ListActiveSessions : активные сессии, свежие первыми, текущая помечена
func (s *SessionService) ListActiveSessions(ctx context.Context, userUUID, currentSessionID string) ([]model.SessionView, error) {
	sessions, err := s.repo.ListActive(ctx, userUUID, s.now())
	if err != nil {
		return nil, apperrors.ErrStorage(err)
	}

	views := make([]model.SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, model.SessionView{
			UserSession: session,
			Current:     currentSessionID != "" && session.ID == currentSessionID,
		})
	}
	return views, nil
}

// RevokeSession : true при первом отзыве, false если сессия уже закрыта
func (s *SessionService) RevokeSession(ctx context.Context, sessionID, reason string) (bool, error) {
	revoked, err := s.repo.Revoke(ctx, sessionID, reason, s.now())
	if err != nil {
		return false, apperrors.ErrStorage(err)
	}
	if revoked && s.metrics != nil {
		s.metrics.RevokedSessions.WithLabelValues(reason).Inc()
	}
	return revoked, nil
}

// RevokeAll : exceptSessionID сохраняет одну сессию, например текущую.
// Закрывает только строки, refresh jti в blacklist не попадают: для выхода
// со всех устройств есть BlacklistService.RevokeSessionsForUser
func (s *SessionService) RevokeAll(ctx context.Context, userUUID, reason, exceptSessionID string) (int64, error) {
	revoked, err := s.repo.RevokeAllByUser(ctx, userUUID, reason, exceptSessionID, s.now())
	if err != nil {
		return 0, apperrors.ErrStorage(err)
	}
	if revoked > 0 && s.metrics != nil {
		s.metrics.RevokedSessions.WithLabelValues(reason).Add(float64(revoked))
	}
	return revoked, nil
}

func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, apperrors.ErrStorage(err)
	}
	return deleted, nil
}

// EvaluateSession сравнивает сессию с историей пользователя за lookback.
// Ошибка чтения истории не считается подозрением.
func (s *SessionService) EvaluateSession(ctx context.Context, session *model.UserSession) (bool, float64) {
	history, err := s.repo.ListSince(ctx, session.UserUUID, s.now().Add(-s.lookback))
	if err != nil {
		s.logger.Warn("не удалось получить историю сессий", zap.String("user_uuid", session.UserUUID), zap.Error(err))
		return false, 0
	}

	others := make([]model.UserSession, 0, len(history))
	for _, past := range history {
		if past.ID != session.ID {
			others = append(others, past)
		}
	}

	score := s.scorer(session, others)
	return score >= s.threshold, score
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
