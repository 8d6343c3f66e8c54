package service

import (
	"auth-session-server/internal/metrics"
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports"
	apperrors "auth-session-server/pkg/errors"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BlacklistService : отозванные jti поверх Postgres с необязательным Redis кэшем
type BlacklistService struct {
	repo         ports.BlacklistRepository
	cache        ports.BlacklistCache
	sessions     ports.SessionRepository
	rotations    ports.RotationRepository
	metrics      *metrics.Metrics
	logger       *zap.Logger
	cacheTTL     time.Duration
	checkTimeout time.Duration
	now          func() time.Time
}

// NewBlacklistService : cache может быть nil, тогда каждая проверка идёт в БД
func NewBlacklistService(
	repo ports.BlacklistRepository,
	cache ports.BlacklistCache,
	sessions ports.SessionRepository,
	rotations ports.RotationRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	cacheTTL, checkTimeout time.Duration,
) *BlacklistService {
	return &BlacklistService{
		repo:         repo,
		cache:        cache,
		sessions:     sessions,
		rotations:    rotations,
		metrics:      m,
		logger:       logger,
		cacheTTL:     cacheTTL,
		checkTimeout: checkTimeout,
		now:          time.Now,
	}
}

// Add отзывает jti. Повторный вызов для того же jti ничего не меняет.
// Ошибку хранилища возвращает, решение о fail-soft принимает вызывающий.
func (s *BlacklistService) Add(ctx context.Context, jti, userUUID string, expiresAt time.Time, kind model.TokenKind, reason string) error {
	now := s.now()
	entry := &model.BlacklistEntry{
		JTI:       jti,
		UserUUID:  userUUID,
		TokenType: kind,
		ExpiresAt: expiresAt,
		RevokedAt: now,
	}
	if reason != "" {
		entry.Reason = &reason
	}

	if err := s.repo.Add(ctx, entry); err != nil {
		return apperrors.ErrStorage(err)
	}

	if s.cache != nil {
		if err := s.cache.SetRevoked(ctx, jti, expiresAt.Sub(now)); err != nil {
			s.logger.Warn("не удалось записать отзыв в кэш", zap.String("jti", jti), zap.Error(err))
		}
	}

	return nil
}

// IsBlacklisted при ошибке или таймауте хранилища возвращает false.
// Основная защита здесь короткий TTL access токена, а не эта проверка.
func (s *BlacklistService) IsBlacklisted(ctx context.Context, jti string) bool {
	if s.cache != nil {
		revoked, found, err := s.cache.Get(ctx, jti)
		switch {
		case err != nil:
			s.cacheResult("error")
		case found:
			s.cacheResult("hit")
			return revoked
		default:
			s.cacheResult("miss")
		}
	}

	checkCtx := ctx
	if s.checkTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, s.checkTimeout)
		defer cancel()
	}

	exists, err := s.repo.Exists(checkCtx, jti)
	if err != nil {
		s.logger.Warn("blacklist недоступен, проверка пропущена", zap.String("jti", jti), zap.Error(err))
		if s.metrics != nil {
			s.metrics.BlacklistFailOpen.Inc()
		}
		return false
	}

	if s.cache != nil {
		var cacheErr error
		if exists {
			cacheErr = s.cache.SetRevoked(ctx, jti, s.cacheTTL)
		} else {
			cacheErr = s.cache.SetAllowed(ctx, jti, s.cacheTTL)
		}
		if cacheErr != nil {
			s.logger.Debug("не удалось обновить кэш blacklist", zap.Error(cacheErr))
		}
	}

	return exists
}

// RevokeAllForUser закрывает все активные сессии пользователя и удаляет
// историю его ротаций. Возвращает число полностью закрытых сессий и
// объединённую ошибку остальных.
func (s *BlacklistService) RevokeAllForUser(ctx context.Context, userUUID, reason string) (int, error) {
	revoked, err := s.RevokeSessionsForUser(ctx, userUUID, reason, "")

	if _, purgeErr := s.rotations.DeleteByUser(ctx, userUUID); purgeErr != nil {
		err = errors.Join(err, fmt.Errorf("история ротаций: %w", apperrors.ErrStorage(purgeErr)))
	}

	return revoked, err
}

// RevokeSessionsForUser закрывает активные сессии пользователя, кроме exceptSessionID.
// Для каждой сессии сначала отзывается refresh jti, потом закрывается строка:
// при сбое посередине остаётся лишняя запись в blacklist, но не живая сессия.
// Сессия, чей jti не попал в blacklist, остаётся открытой и попадает в ошибку.
func (s *BlacklistService) RevokeSessionsForUser(ctx context.Context, userUUID, reason, exceptSessionID string) (int, error) {
	now := s.now()

	sessions, err := s.sessions.ListActive(ctx, userUUID, now)
	if err != nil {
		return 0, apperrors.ErrStorage(err)
	}

	var (
		revoked int
		errs    []error
	)
	for _, session := range sessions {
		if exceptSessionID != "" && session.ID == exceptSessionID {
			continue
		}

		if err := s.Add(ctx, session.RefreshTokenJTI, userUUID, session.ExpiresAt, model.TokenKindRefresh, reason); err != nil {
			errs = append(errs, fmt.Errorf("сессия %s: %w", session.ID, err))
			continue
		}

		if _, err := s.sessions.Revoke(ctx, session.ID, reason, now); err != nil {
			errs = append(errs, fmt.Errorf("сессия %s: %w", session.ID, apperrors.ErrStorage(err)))
			continue
		}
		revoked++
	}

	if s.metrics != nil && revoked > 0 {
		s.metrics.RevokedSessions.WithLabelValues(reason).Add(float64(revoked))
	}

	s.logger.Info("отозваны сессии пользователя",
		zap.String("user_uuid", userUUID),
		zap.String("reason", reason),
		zap.String("except", exceptSessionID),
		zap.Int("revoked", revoked),
		zap.Int("failed", len(errs)),
	)

	return revoked, errors.Join(errs...)
}

func (s *BlacklistService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, apperrors.ErrStorage(err)
	}
	return deleted, nil
}

func (s *BlacklistService) cacheResult(result string) {
	if s.metrics != nil {
		s.metrics.BlacklistCacheResults.WithLabelValues(result).Inc()
	}
}
