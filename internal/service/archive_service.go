package service

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports"
	apperrors "auth-session-server/pkg/errors"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditArchiveService переносит старые записи журнала в S3 и удаляет их из БД.
// Удаляются только те записи, которые попали в успешно загруженный архив.
type AuditArchiveService struct {
	repo      ports.AuditRepository
	storage   ports.ObjectStorage
	logger    *zap.Logger
	retention time.Duration
	batchSize int
	now       func() time.Time
}

func NewAuditArchiveService(repo ports.AuditRepository, storage ports.ObjectStorage, logger *zap.Logger, retentionDays, batchSize int) *AuditArchiveService {
	return &AuditArchiveService{
		repo:      repo,
		storage:   storage,
		logger:    logger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// ArchiveOnce обрабатывает одну пачку. Возвращает число удалённых записей.
func (s *AuditArchiveService) ArchiveOnce(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	entries, err := s.repo.ListBefore(ctx, now.Add(-s.retention), s.batchSize)
	if err != nil {
		return 0, apperrors.ErrStorage(err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	body, ids, err := encodeJSONLines(entries)
	if err != nil {
		return 0, err
	}

	key := archiveKey(now)
	if err := s.storage.PutObject(ctx, key, body, "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("загрузка архива %s: %w", key, err)
	}

	deleted, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, apperrors.ErrStorage(err)
	}

	s.logger.Info("журнал аудита заархивирован",
		zap.String("key", key),
		zap.Int("entries", len(entries)),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

func encodeJSONLines(entries []model.AuditLogEntry) ([]byte, []string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	ids := make([]string, 0, len(entries))

	for i := range entries {
		if err := encoder.Encode(&entries[i]); err != nil {
			return nil, nil, fmt.Errorf("сериализация записи %s: %w", entries[i].ID, err)
		}
		ids = append(ids, entries[i].ID)
	}

	return buf.Bytes(), ids, nil
}

func archiveKey(now time.Time) string {
	return fmt.Sprintf("audit/%s/%s.jsonl", now.Format("2006/01/02"), uuid.NewString())
}
