package service

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports"
	apperrors "auth-session-server/pkg/errors"
	"context"
	"time"

	"go.uber.org/zap"
)

// RotationService : учёт погашенных refresh токенов.
// Каждый refresh токен обменивается на новую пару ровно один раз.
type RotationService struct {
	repo   ports.RotationRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewRotationService(repo ports.RotationRepository, logger *zap.Logger) *RotationService {
	return &RotationService{repo: repo, logger: logger, now: time.Now}
}

// RecordRotation пишет запись о погашении record.JTI.
// Запись не перезаписывается: если jti уже погашен, в том числе параллельным
// запросом, возвращается ErrTokenReused.
func (s *RotationService) RecordRotation(ctx context.Context, record *model.TokenRotationRecord) error {
	now := s.now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UsedAt == nil {
		record.UsedAt = &now
	}

	inserted, err := s.repo.Insert(ctx, record)
	if err != nil {
		return apperrors.ErrStorage(err)
	}
	if !inserted {
		s.logger.Warn("refresh токен уже погашен",
			zap.String("jti", record.JTI),
			zap.String("token_family", record.TokenFamily),
		)
		return apperrors.ErrTokenReused
	}

	return nil
}

// WasUsed : true, если для jti есть запись с потомком.
// Неизвестный jti даёт false. Ошибку хранилища вызывающий обязан считать отказом.
func (s *RotationService) WasUsed(ctx context.Context, jti string) (bool, error) {
	record, err := s.repo.FindByJTI(ctx, jti)
	if err != nil {
		return false, apperrors.ErrStorage(err)
	}
	return record.Redeemed(), nil
}

func (s *RotationService) FindRecord(ctx context.Context, jti string) (*model.TokenRotationRecord, error) {
	record, err := s.repo.FindByJTI(ctx, jti)
	if err != nil {
		return nil, apperrors.ErrStorage(err)
	}
	return record, nil
}

// GetFamily : вся цепочка семейства, новые записи первыми
func (s *RotationService) GetFamily(ctx context.Context, family string) ([]model.TokenRotationRecord, error) {
	records, err := s.repo.ListByFamily(ctx, family)
	if err != nil {
		return nil, apperrors.ErrStorage(err)
	}
	return records, nil
}

func (s *RotationService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, apperrors.ErrStorage(err)
	}
	return deleted, nil
}
