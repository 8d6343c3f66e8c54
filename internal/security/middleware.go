package security

import (
	"auth-session-server/internal/metrics"
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports"
	"auth-session-server/internal/util"
	apperrors "auth-session-server/pkg/errors"
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"

	// ReauthMessage : единственный текст отказа, причина клиенту не раскрывается
	ReauthMessage = "требуется повторный вход"
)

const (
	// одновременных фоновых обновлений last_activity, лишние пропускаются
	maxPendingTouches = 64
	touchTimeout      = 2 * time.Second
)

const (
	modeRequired = "required"
	modeOptional = "optional"
	modeDual     = "dual"
)

// AuthMiddleware собирает проверку токена, blacklist и внешнюю сессию
// в три режима аутентификации запроса
type AuthMiddleware struct {
	codec      ports.TokenCodec
	blacklist  ports.TokenBlacklist
	sessions   ports.SessionManager
	external   ports.ExternalIdentityResolver
	audit      ports.AuditLog
	metrics    *metrics.Metrics
	cookieName string
	logger     *zap.Logger
	touchSlots chan struct{}
}

func NewAuthMiddleware(
	codec ports.TokenCodec,
	blacklist ports.TokenBlacklist,
	sessions ports.SessionManager,
	external ports.ExternalIdentityResolver,
	audit ports.AuditLog,
	m *metrics.Metrics,
	cookieName string,
	logger *zap.Logger,
) *AuthMiddleware {
	return &AuthMiddleware{
		codec:      codec,
		blacklist:  blacklist,
		sessions:   sessions,
		external:   external,
		audit:      audit,
		metrics:    m,
		cookieName: cookieName,
		logger:     logger,
		touchSlots: make(chan struct{}, maxPendingTouches),
	}
}

// RequireAuth пропускает только запросы с валидным неотозванным access токеном
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.authenticateBearer(r)
		if err != nil {
			a.reject(w, r, modeRequired, err)
			return
		}

		if identity.RefreshTokenID != "" && a.sessions != nil {
			a.touchActivity(r.Context(), identity.RefreshTokenID)
		}

		a.observe(modeRequired, "authenticated")
		next.ServeHTTP(w, withIdentity(r, identity))
	})
}

// touchActivity обновляет активность сессии в фоне. Горутин не больше
// maxPendingTouches, каждая ограничена touchTimeout.
func (a *AuthMiddleware) touchActivity(ctx context.Context, refreshJTI string) {
	select {
	case a.touchSlots <- struct{}{}:
	default:
		a.logger.Debug("обновление активности пропущено, очередь заполнена", zap.String("refresh_jti", refreshJTI))
		return
	}

	go func() {
		defer func() { <-a.touchSlots }()

		touchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), touchTimeout)
		defer cancel()
		a.sessions.UpdateActivity(touchCtx, refreshJTI)
	}()
}

// OptionalAuth : без токена или с плохим токеном запрос идёт дальше анонимно
func (a *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.authenticateBearer(r)
		if err != nil {
			if !errors.Is(err, apperrors.ErrTokenMissing) {
				a.logger.Debug("токен отклонён, запрос продолжается анонимно", zap.Error(err))
			}
			a.observe(modeOptional, "anonymous")
			next.ServeHTTP(w, r)
			return
		}

		a.observe(modeOptional, "authenticated")
		next.ServeHTTP(w, withIdentity(r, identity))
	})
}

// DualAuth принимает собственный bearer токен или сессию внешнего провайдера.
// Если bearer передан, он обязан быть валидным, к cookie в этом случае не переходим.
func (a *AuthMiddleware) DualAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.authenticateBearer(r)
		if err == nil {
			a.observe(modeDual, "bearer")
			next.ServeHTTP(w, withIdentity(r, identity))
			return
		}
		if !errors.Is(err, apperrors.ErrTokenMissing) {
			a.reject(w, r, modeDual, err)
			return
		}

		identity, err = a.authenticateExternal(r)
		if err != nil {
			a.reject(w, r, modeDual, err)
			return
		}

		a.observe(modeDual, "external")
		next.ServeHTTP(w, withIdentity(r, identity))
	})
}

func (a *AuthMiddleware) authenticateBearer(r *http.Request) (*model.Identity, error) {
	token, ok := ExtractBearer(r.Header.Get("Authorization"))
	if !ok {
		return nil, apperrors.ErrTokenMissing
	}

	claims, err := a.codec.Verify(token, model.TokenKindAccess)
	if err != nil {
		return nil, apperrors.ErrTokenInvalid
	}

	if a.blacklist.IsBlacklisted(r.Context(), claims.ID) {
		return nil, apperrors.ErrTokenRevoked
	}

	identity := &model.Identity{
		UserUUID:       claims.UserUUID,
		Email:          claims.Email,
		TokenJTI:       claims.ID,
		SessionID:      claims.SessionID,
		RefreshTokenID: claims.RefreshTokenID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

func (a *AuthMiddleware) authenticateExternal(r *http.Request) (*model.Identity, error) {
	if a.external == nil || a.cookieName == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	cookie, err := r.Cookie(a.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	userUUID, err := a.external.ResolveSession(r.Context(), cookie.Value)
	if err != nil {
		a.logger.Warn("не удалось проверить внешнюю сессию", zap.Error(err))
		return nil, apperrors.ErrUnauthenticated
	}
	if userUUID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	return &model.Identity{UserUUID: userUUID}, nil
}

// reject : аудит с настоящей причиной, клиенту одинаковый 401
func (a *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, mode string, reason error) {
	a.observe(mode, "rejected")
	a.audit.UnauthorizedAccess(r.Context(), util.ClientInfoFromRequest(r), r.URL.Path, reason.Error())

	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	util.HandleError(w, ReauthMessage, http.StatusUnauthorized)
}

func (a *AuthMiddleware) observe(mode, outcome string) {
	if a.metrics != nil {
		a.metrics.AuthDecisions.WithLabelValues(mode, outcome).Inc()
	}
}

func withIdentity(r *http.Request, identity *model.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), IdentityContextKey, identity))
}

// IdentityFromContext : nil, если запрос анонимный
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*model.Identity)
	return identity
}

// ContextWithIdentity нужен обработчикам и тестам, которые собирают контекст без middleware
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

