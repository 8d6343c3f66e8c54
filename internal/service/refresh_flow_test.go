package service_test

import (
	"auth-session-server/internal/model"
	apperrors "auth-session-server/pkg/errors"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresh_RotatesOnce(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()

	first := h.signup(t, "rider@example.com")
	second, err := h.auth.Refresh(ctx, first.RefreshToken, iphone)
	require.NoError(t, err)

	r1, err := h.codec.Verify(first.RefreshToken, model.TokenKindRefresh)
	require.NoError(t, err)
	r2, err := h.codec.Verify(second.RefreshToken, model.TokenKindRefresh)
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Equal(t, r1.TokenFamily, r2.TokenFamily)
	assert.Equal(t, r1.ID, r2.ParentJTI)
	assert.Equal(t, r1.SessionID, r2.SessionID)

	used, err := h.rotations.WasUsed(ctx, r1.ID)
	require.NoError(t, err)
	assert.True(t, used)

	used, err = h.rotations.WasUsed(ctx, r2.ID)
	require.NoError(t, err)
	assert.False(t, used)

	session, err := h.sessions.FindByID(ctx, r1.SessionID)
	require.NoError(t, err)
	assert.Equal(t, r2.ID, session.RefreshTokenJTI)
}

// Повторное предъявление R1 после ротации отзывает все сессии,
// после этого и R2 больше не принимается
func TestRefresh_ReuseRevokesFleet(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()

	phone := h.signup(t, "rider@example.com")
	_, err := h.auth.Login(ctx, "rider@example.com", testPassword, laptop)
	require.NoError(t, err)

	userUUID := h.identity(t, phone).UserUUID
	require.Equal(t, 2, h.store.activeSessions(userUUID))

	rotated, err := h.auth.Refresh(ctx, phone.RefreshToken, iphone)
	require.NoError(t, err)

	_, err = h.auth.Refresh(ctx, phone.RefreshToken, iphone)
	assert.True(t, errors.Is(err, apperrors.ErrTokenReused))
	assert.Equal(t, 0, h.store.activeSessions(userUUID))

	_, err = h.auth.Refresh(ctx, rotated.RefreshToken, iphone)
	assert.True(t, apperrors.IsAuthFailure(err))

	reuse := h.store.auditEvents(model.AuditTokenReuseDetected)
	require.Len(t, reuse, 1)
	assert.Contains(t, string(reuse[0].EventData), `"revoked_sessions":2`)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ReuseDetected))
}

func TestRefresh_ConcurrentRedemption(t *testing.T) {
	h := newAuthHarness(t)
	pair := h.signup(t, "rider@example.com")

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.auth.Refresh(context.Background(), pair.RefreshToken, iphone)
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, success, 1)

	_, err := h.auth.Refresh(context.Background(), pair.RefreshToken, iphone)
	assert.True(t, apperrors.IsAuthFailure(err))
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	h := newAuthHarness(t)
	pair := h.signup(t, "rider@example.com")

	_, err := h.auth.Refresh(context.Background(), pair.AccessToken, iphone)
	assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
	assert.NotEmpty(t, h.store.auditEvents(model.AuditRefreshFailed))
}

func TestRefresh_RotationStoreDownFailsClosed(t *testing.T) {
	h := newAuthHarness(t)
	pair := h.signup(t, "rider@example.com")
	h.store.failRotationFind = true

	_, err := h.auth.Refresh(context.Background(), pair.RefreshToken, iphone)
	assert.True(t, errors.Is(err, apperrors.ErrStorageUnavailable))
}

func TestRefresh_AfterLogoutRejected(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	pair := h.signup(t, "rider@example.com")

	require.NoError(t, h.auth.Logout(ctx, h.identity(t, pair), iphone))

	_, err := h.auth.Refresh(ctx, pair.RefreshToken, iphone)
	assert.True(t, errors.Is(err, apperrors.ErrTokenRevoked))
}

func TestLogout_FailSoft(t *testing.T) {
	h := newAuthHarness(t)
	pair := h.signup(t, "rider@example.com")
	h.store.failBlacklistAdd = true
	h.store.failAuditInsert = true

	err := h.auth.Logout(context.Background(), h.identity(t, pair), iphone)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.AuditWriteFailures))
}

func TestLogout_RevokesAccessToken(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	pair := h.signup(t, "rider@example.com")
	identity := h.identity(t, pair)

	require.NoError(t, h.auth.Logout(ctx, identity, iphone))

	assert.True(t, h.blacklist.IsBlacklisted(ctx, identity.TokenJTI))
	assert.Equal(t, 0, h.store.activeSessions(identity.UserUUID))
}

func TestChangePassword_RevokesOtherSessions(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()

	phone := h.signup(t, "rider@example.com")
	laptopPair, err := h.auth.Login(ctx, "rider@example.com", testPassword, laptop)
	require.NoError(t, err)

	fresh, err := h.auth.ChangePassword(ctx, h.identity(t, phone), testPassword, "N3w!password", iphone)
	require.NoError(t, err)

	_, err = h.auth.Refresh(ctx, laptopPair.RefreshToken, laptop)
	assert.True(t, apperrors.IsAuthFailure(err))

	_, err = h.auth.Refresh(ctx, fresh.RefreshToken, iphone)
	assert.NoError(t, err)

	_, err = h.auth.Login(ctx, "rider@example.com", testPassword, laptop)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
	_, err = h.auth.Login(ctx, "rider@example.com", "N3w!password", laptop)
	assert.NoError(t, err)
}

func TestRevokeAllSessions_ExceptCurrent(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()

	phone := h.signup(t, "rider@example.com")
	laptopPair, err := h.auth.Login(ctx, "rider@example.com", testPassword, laptop)
	require.NoError(t, err)

	identity := h.identity(t, phone)
	revoked, err := h.auth.RevokeAllSessions(ctx, identity, true, iphone)
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)

	views, err := h.auth.ListSessions(ctx, identity)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Current)

	_, err = h.auth.Refresh(ctx, laptopPair.RefreshToken, laptop)
	assert.True(t, apperrors.IsAuthFailure(err))
}

// Без blacklist сессии не закрываются и вызывающий видит ошибку
func TestRevokeAllSessions_BlacklistDownKeepsSessions(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()

	phone := h.signup(t, "rider@example.com")
	laptopPair, err := h.auth.Login(ctx, "rider@example.com", testPassword, laptop)
	require.NoError(t, err)
	identity := h.identity(t, phone)

	h.store.mu.Lock()
	h.store.failBlacklistAdd = true
	h.store.mu.Unlock()

	revoked, err := h.auth.RevokeAllSessions(ctx, identity, true, iphone)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	assert.Zero(t, revoked)
	assert.Equal(t, 2, h.store.activeSessions(identity.UserUUID))

	entries := h.store.auditEvents(model.AuditSessionRevoked)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)

	h.store.mu.Lock()
	h.store.failBlacklistAdd = false
	h.store.mu.Unlock()

	_, err = h.auth.Refresh(ctx, laptopPair.RefreshToken, laptop)
	assert.NoError(t, err)
}

func TestTokenFamily_OwnerOnly(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()

	pair := h.signup(t, "rider@example.com")
	_, err := h.auth.Refresh(ctx, pair.RefreshToken, iphone)
	require.NoError(t, err)

	claims, err := h.codec.Verify(pair.RefreshToken, model.TokenKindRefresh)
	require.NoError(t, err)

	records, err := h.auth.TokenFamily(ctx, h.identity(t, pair), claims.TokenFamily)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, claims.ID, records[0].JTI)

	stranger := h.signup(t, "stranger@example.com")
	_, err = h.auth.TokenFamily(ctx, h.identity(t, stranger), claims.TokenFamily)
	assert.True(t, errors.Is(err, apperrors.ErrSessionNotFound))
}
