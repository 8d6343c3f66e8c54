package service_test

import (
	"auth-session-server/config"
	"auth-session-server/internal/metrics"
	"auth-session-server/internal/model"
	"auth-session-server/internal/security"
	"auth-session-server/internal/service"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "Str0ng!pass"

type authHarness struct {
	store     *memoryStore
	metrics   *metrics.Metrics
	codec     *security.JWTService
	blacklist *service.BlacklistService
	rotations *service.RotationService
	sessions  *service.SessionService
	audit     *service.AuditService
	auth      *service.AuthenticationService
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()

	codec, err := security.NewJWTService(&config.JWTConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  "15m",
		RefreshTokenTTL: "720h",
		Issuer:          "auth-session-server",
		Audience:        "web",
	})
	require.NoError(t, err)

	store := newMemoryStore()
	m := metrics.NewNop()
	logger := zap.NewNop()

	h := &authHarness{store: store, metrics: m, codec: codec}
	h.blacklist = service.NewBlacklistService(memoryBlacklist{store}, nil, memorySessions{store}, memoryRotations{store}, m, logger, 0, 100*time.Millisecond)
	h.rotations = service.NewRotationService(memoryRotations{store}, logger)
	h.sessions = service.NewSessionService(memorySessions{store}, m, logger, nil, 720*time.Hour, 0.7)
	h.audit = service.NewAuditService(memoryAudit{store}, m, logger, 5, 10, time.Hour)
	h.auth = service.NewAuthenticationService(
		memoryUsers{store}, codec, h.blacklist, h.rotations, h.sessions, h.audit, nil, m, logger,
		service.AuthSettings{
			FailureWindowMinutes: 15,
			MaxFailuresPerIP:     10,
			ReuseRevokeRetries:   3,
		},
	)
	return h
}

var (
	iphone = model.ClientInfo{
		IPAddress: "10.0.0.1",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
		Country:   "DE",
	}
	laptop = model.ClientInfo{
		IPAddress: "10.0.0.2",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Country:   "DE",
	}
)

func (h *authHarness) signup(t *testing.T, email string) *model.TokensPair {
	t.Helper()

	pair, err := h.auth.Signup(context.Background(), email, testPassword, iphone)
	require.NoError(t, err)
	return pair
}

func (h *authHarness) identity(t *testing.T, pair *model.TokensPair) *model.Identity {
	t.Helper()

	claims, err := h.codec.Verify(pair.AccessToken, model.TokenKindAccess)
	require.NoError(t, err)
	return &model.Identity{
		UserUUID:       claims.UserUUID,
		Email:          claims.Email,
		TokenJTI:       claims.ID,
		SessionID:      claims.SessionID,
		RefreshTokenID: claims.RefreshTokenID,
		ExpiresAt:      claims.ExpiresAt.Time,
	}
}
