package service

import (
	"auth-session-server/internal/metrics"
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredCleaner : сервис, который умеет удалять свои истёкшие записи
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

type AuditArchiver interface {
	ArchiveOnce(ctx context.Context) (int64, error)
}

// CleanupService периодически удаляет истёкшие записи blacklist,
// истории ротаций и сессий. Архиватор необязателен.
type CleanupService struct {
	cleaners map[string]ExpiredCleaner
	archiver AuditArchiver
	metrics  *metrics.Metrics
	logger   *zap.Logger
	interval time.Duration
}

func NewCleanupService(
	blacklist, rotations, sessions ExpiredCleaner,
	archiver AuditArchiver,
	m *metrics.Metrics,
	logger *zap.Logger,
	interval time.Duration,
) *CleanupService {
	return &CleanupService{
		cleaners: map[string]ExpiredCleaner{
			"token_blacklist": blacklist,
			"token_rotations": rotations,
			"user_sessions":   sessions,
		},
		archiver: archiver,
		metrics:  m,
		logger:   logger,
		interval: interval,
	}
}

// Run блокируется до отмены ctx
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("фоновая очистка запущена", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("фоновая очистка остановлена")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce : ошибка одной таблицы не мешает остальным
func (s *CleanupService) RunOnce(ctx context.Context) map[string]int64 {
	results := make(map[string]int64, len(s.cleaners)+1)

	for table, cleaner := range s.cleaners {
		if cleaner == nil {
			continue
		}
		deleted, err := cleaner.CleanupExpired(ctx)
		if err != nil {
			s.logger.Warn("ошибка очистки", zap.String("table", table), zap.Error(err))
			continue
		}
		s.record(results, table, deleted)
	}

	if s.archiver != nil {
		archived, err := s.archiver.ArchiveOnce(ctx)
		if err != nil {
			s.logger.Warn("ошибка архивации журнала аудита", zap.Error(err))
		} else {
			s.record(results, "auth_audit_log", archived)
		}
	}

	return results
}

func (s *CleanupService) record(results map[string]int64, table string, deleted int64) {
	results[table] = deleted
	if s.metrics != nil && deleted > 0 {
		s.metrics.CleanupDeleted.WithLabelValues(table).Add(float64(deleted))
	}
}
