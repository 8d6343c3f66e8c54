package service_test

import (
	"auth-session-server/internal/model"
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var errStoreDown = errors.New("store down")

// memoryStore : общие in-memory таблицы для сценарных тестов
type memoryStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	blacklist map[string]model.BlacklistEntry
	rotations map[string]model.TokenRotationRecord
	sessions  map[string]*model.UserSession
	audit     []model.AuditLogEntry

	failBlacklistAdd    bool
	failBlacklistExists bool
	failRotationFind    bool
	failAuditInsert     bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:     make(map[string]*model.User),
		blacklist: make(map[string]model.BlacklistEntry),
		rotations: make(map[string]model.TokenRotationRecord),
		sessions:  make(map[string]*model.UserSession),
	}
}

func (s *memoryStore) auditEvents(event model.AuditEventType) []model.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.AuditLogEntry
	for _, entry := range s.audit {
		if entry.EventType == event {
			out = append(out, entry)
		}
	}
	return out
}

func (s *memoryStore) activeSessions(userUUID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, session := range s.sessions {
		if session.UserUUID == userUUID && session.IsActive(time.Now()) {
			count++
		}
	}
	return count
}

// memoryUsers
type memoryUsers struct{ *memoryStore }

func (r memoryUsers) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	copied.CreatedAt = time.Now()
	r.users[user.UUID] = &copied
	return &copied, nil
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r memoryUsers) FindByUUID(_ context.Context, uuid string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[uuid]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, nil
}

func (r memoryUsers) UpdatePassword(_ context.Context, uuid, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[uuid]; ok {
		user.PasswordHash = hash
	}
	return nil
}

// memoryBlacklist
type memoryBlacklist struct{ *memoryStore }

func (r memoryBlacklist) Add(_ context.Context, entry *model.BlacklistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failBlacklistAdd {
		return errStoreDown
	}
	if _, exists := r.blacklist[entry.JTI]; !exists {
		r.blacklist[entry.JTI] = *entry
	}
	return nil
}

func (r memoryBlacklist) Exists(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failBlacklistExists {
		return false, errStoreDown
	}
	_, exists := r.blacklist[jti]
	return exists, nil
}

func (r memoryBlacklist) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for jti, entry := range r.blacklist {
		if entry.ExpiresAt.Before(now) {
			delete(r.blacklist, jti)
			deleted++
		}
	}
	return deleted, nil
}

// memoryRotations : jti как первичный ключ
type memoryRotations struct{ *memoryStore }

func (r memoryRotations) Insert(_ context.Context, record *model.TokenRotationRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rotations[record.JTI]; exists {
		return false, nil
	}
	r.rotations[record.JTI] = *record
	return true, nil
}

func (r memoryRotations) FindByJTI(_ context.Context, jti string) (*model.TokenRotationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failRotationFind {
		return nil, errStoreDown
	}
	if record, ok := r.rotations[jti]; ok {
		return &record, nil
	}
	return nil, nil
}

func (r memoryRotations) ListByFamily(_ context.Context, family string) ([]model.TokenRotationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var records []model.TokenRotationRecord
	for _, record := range r.rotations {
		if record.TokenFamily == family {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	return records, nil
}

func (r memoryRotations) DeleteByUser(_ context.Context, userUUID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for jti, record := range r.rotations {
		if record.UserUUID == userUUID {
			delete(r.rotations, jti)
			deleted++
		}
	}
	return deleted, nil
}

func (r memoryRotations) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for jti, record := range r.rotations {
		if record.ExpiresAt.Before(now) {
			delete(r.rotations, jti)
			deleted++
		}
	}
	return deleted, nil
}

// memorySessions
type memorySessions struct{ *memoryStore }

func (r memorySessions) Create(_ context.Context, session *model.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r memorySessions) FindByID(_ context.Context, id string) (*model.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, nil
}

func (r memorySessions) FindActiveByRefreshJTI(_ context.Context, jti string, now time.Time) (*model.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.sessions {
		if session.RefreshTokenJTI == jti && session.IsActive(now) {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (r memorySessions) ListActive(_ context.Context, userUUID string, now time.Time) ([]model.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sessions []model.UserSession
	for _, session := range r.sessions {
		if session.UserUUID == userUUID && session.IsActive(now) {
			sessions = append(sessions, *session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].LastActivity.After(sessions[j].LastActivity) })
	return sessions, nil
}

func (r memorySessions) ListSince(_ context.Context, userUUID string, since time.Time) ([]model.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sessions []model.UserSession
	for _, session := range r.sessions {
		if session.UserUUID == userUUID && !session.CreatedAt.Before(since) {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

func (r memorySessions) Rotate(_ context.Context, id, oldJTI, newJTI string, expiresAt, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.RefreshTokenJTI != oldJTI || session.RevokedAt != nil {
		return false, nil
	}
	session.RefreshTokenJTI = newJTI
	session.ExpiresAt = expiresAt
	session.LastActivity = now
	return true, nil
}

func (r memorySessions) TouchActivity(_ context.Context, refreshJTI string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.sessions {
		if session.RefreshTokenJTI == refreshJTI {
			session.LastActivity = now
		}
	}
	return nil
}

func (r memorySessions) Revoke(_ context.Context, id, reason string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.RevokedAt != nil {
		return false, nil
	}
	session.RevokedAt = &now
	session.RevokeReason = &reason
	return true, nil
}

func (r memorySessions) RevokeAllByUser(_ context.Context, userUUID, reason, exceptID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var revoked int64
	for id, session := range r.sessions {
		if session.UserUUID != userUUID || session.RevokedAt != nil || id == exceptID {
			continue
		}
		session.RevokedAt = &now
		session.RevokeReason = &reason
		revoked++
	}
	return revoked, nil
}

func (r memorySessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, session := range r.sessions {
		if session.ExpiresAt.Before(now) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// memoryAudit
type memoryAudit struct{ *memoryStore }

func (r memoryAudit) Insert(_ context.Context, entry *model.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAuditInsert {
		return errStoreDown
	}
	r.audit = append(r.audit, *entry)
	return nil
}

func (r memoryAudit) CountFailuresByIP(_ context.Context, ip string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, entry := range r.audit {
		if entry.IPAddress == ip && entry.EventType == model.AuditLoginFailed && !entry.Success && !entry.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r memoryAudit) ListRecentByUser(_ context.Context, userUUID string, since time.Time, limit int) ([]model.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []model.AuditLogEntry
	for i := len(r.audit) - 1; i >= 0 && len(entries) < limit; i-- {
		entry := r.audit[i]
		if entry.UserUUID != nil && *entry.UserUUID == userUUID && !entry.CreatedAt.Before(since) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r memoryAudit) ListBefore(_ context.Context, cutoff time.Time, limit int) ([]model.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []model.AuditLogEntry
	for _, entry := range r.audit {
		if entry.CreatedAt.Before(cutoff) && len(entries) < limit {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r memoryAudit) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}

	kept := r.audit[:0]
	var deleted int64
	for _, entry := range r.audit {
		if _, ok := remove[entry.ID]; ok {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	r.audit = kept
	return deleted, nil
}
