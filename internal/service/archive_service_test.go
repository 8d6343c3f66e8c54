package service_test

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports/mocks"
	"auth-session-server/internal/service"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func oldEntries() []model.AuditLogEntry {
	created := time.Now().AddDate(0, 0, -120)
	return []model.AuditLogEntry{
		{ID: "a-1", EventType: model.AuditLogin, Success: true, IPAddress: "10.0.0.1", EventData: json.RawMessage(`{"session_id":"s-1"}`), CreatedAt: created},
		{ID: "a-2", EventType: model.AuditLoginFailed, IPAddress: "10.0.0.2", EventData: json.RawMessage(`{}`), CreatedAt: created},
	}
}

func TestAuditArchiveService_ArchiveOnce(t *testing.T) {
	repo := new(mocks.MockAuditRepository)
	storage := new(mocks.MockObjectStorage)
	svc := service.NewAuditArchiveService(repo, storage, zap.NewNop(), 90, 500)

	repo.On("ListBefore", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		age := time.Since(cutoff)
		return age > 89*24*time.Hour && age < 91*24*time.Hour
	}), 500).Return(oldEntries(), nil)

	var uploaded []byte
	storage.On("PutObject", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "audit/") && strings.HasSuffix(key, ".jsonl")
	}), mock.Anything, "application/x-ndjson").
		Run(func(args mock.Arguments) { uploaded = args.Get(2).([]byte) }).
		Return(nil)
	repo.On("DeleteByIDs", mock.Anything, []string{"a-1", "a-2"}).Return(int64(2), nil)

	deleted, err := svc.ArchiveOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	scanner := bufio.NewScanner(bytes.NewReader(uploaded))
	var ids []string
	for scanner.Scan() {
		var entry model.AuditLogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		ids = append(ids, entry.ID)
	}
	assert.Equal(t, []string{"a-1", "a-2"}, ids)

	repo.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestAuditArchiveService_UploadFailureKeepsRows(t *testing.T) {
	repo := new(mocks.MockAuditRepository)
	storage := new(mocks.MockObjectStorage)
	svc := service.NewAuditArchiveService(repo, storage, zap.NewNop(), 90, 500)

	repo.On("ListBefore", mock.Anything, mock.Anything, 500).Return(oldEntries(), nil)
	storage.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("s3 unavailable"))

	deleted, err := svc.ArchiveOnce(context.Background())

	assert.Error(t, err)
	assert.Zero(t, deleted)
	repo.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
}

func TestAuditArchiveService_NothingToArchive(t *testing.T) {
	repo := new(mocks.MockAuditRepository)
	storage := new(mocks.MockObjectStorage)
	svc := service.NewAuditArchiveService(repo, storage, zap.NewNop(), 90, 500)

	repo.On("ListBefore", mock.Anything, mock.Anything, 500).Return([]model.AuditLogEntry{}, nil)

	deleted, err := svc.ArchiveOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, deleted)
	storage.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
