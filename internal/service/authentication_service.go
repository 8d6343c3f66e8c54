package service

import (
	"auth-session-server/internal/metrics"
	"auth-session-server/internal/model"
	"auth-session-server/internal/ports"
	"auth-session-server/internal/security"
	apperrors "auth-session-server/pkg/errors"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthSettings : лимиты входа и поведение при повторном погашении токена
type AuthSettings struct {
	LoginRateLimit       int
	LoginRateWindow      time.Duration
	FailureWindowMinutes int
	MaxFailuresPerIP     int
	ReuseRevokeRetries   int
}

type AuthenticationService struct {
	users     ports.UserRepository
	codec     ports.TokenCodec
	blacklist ports.TokenBlacklist
	rotations ports.RotationTracker
	sessions  ports.SessionManager
	audit     ports.AuditLog
	limiter   ports.RateLimiter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	settings  AuthSettings
}

// NewAuthenticationService : limiter может быть nil, тогда остаётся только
// ограничение по числу неудач в журнале аудита
func NewAuthenticationService(
	users ports.UserRepository,
	codec ports.TokenCodec,
	blacklist ports.TokenBlacklist,
	rotations ports.RotationTracker,
	sessions ports.SessionManager,
	audit ports.AuditLog,
	limiter ports.RateLimiter,
	m *metrics.Metrics,
	logger *zap.Logger,
	settings AuthSettings,
) *AuthenticationService {
	return &AuthenticationService{
		users:     users,
		codec:     codec,
		blacklist: blacklist,
		rotations: rotations,
		sessions:  sessions,
		audit:     audit,
		limiter:   limiter,
		metrics:   m,
		logger:    logger,
		settings:  settings,
	}
}

// Signup регистрирует пользователя и сразу открывает для него сессию
func (s *AuthenticationService) Signup(ctx context.Context, email, password string, client model.ClientInfo) (*model.TokensPair, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		s.audit.SignupFailed(ctx, email, client, err.Error())
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, &model.User{
		UUID:         uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		s.audit.SignupFailed(ctx, email, client, err.Error())
		if errors.Is(err, apperrors.ErrEmailTaken) {
			return nil, err
		}
		return nil, apperrors.ErrStorage(err)
	}

	pair, session, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.audit.SignupSucceeded(ctx, user.UUID, client)
	s.audit.LoginSucceeded(ctx, user.UUID, client, session.ID)
	return pair, nil
}

// Login проверяет пароль и открывает новую сессию устройства.
//
// Перед проверкой пароля действуют два ограничения по IP:
//  1. Счётчик запросов в Redis (фиксированное окно). Недоступный Redis не блокирует вход.
//  2. Число неудачных входов с этого IP в журнале аудита за FailureWindowMinutes.
//
// После входа новая сессия сравнивается с историей пользователя,
// подозрительная сессия не блокируется, а попадает в журнал.
func (s *AuthenticationService) Login(ctx context.Context, email, password string, client model.ClientInfo) (*model.TokensPair, error) {
	email = normalizeEmail(email)

	if err := s.checkLoginRate(ctx, client); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.ErrStorage(err)
	}
	if user == nil {
		s.audit.LoginFailed(ctx, "", email, client, "пользователь не найден")
		return nil, apperrors.ErrInvalidCredentials
	}

	if !security.CheckPassword(user.PasswordHash, password) {
		s.audit.LoginFailed(ctx, user.UUID, email, client, "неверный пароль")
		if s.audit.DetectSuspiciousActivity(ctx, user.UUID) {
			s.logger.Warn("серия неудачных входов", zap.String("user_uuid", user.UUID), zap.String("ip", client.IPAddress))
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	pair, session, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	if suspicious, score := s.sessions.EvaluateSession(ctx, session); suspicious {
		s.audit.SuspiciousSession(ctx, user.UUID, client, session.ID, score)
	}

	s.audit.LoginSucceeded(ctx, user.UUID, client, session.ID)
	return pair, nil
}

// Refresh обменивает refresh токен на новую пару.
//
// Порядок проверок:
//  1. Подпись, срок, издатель и тип токена.
//  2. Blacklist (при недоступности хранилища проверка пропускается).
//  3. Запись о погашении: если токен уже обменивали, это повторное
//     предъявление, все сессии пользователя отзываются, запрос отклоняется.
//  4. Активная сессия, у которой этот токен сейчас вершина цепочки.
//     Токен без сессии считается невалидным.
//  5. Выпуск новой пары, запись о погашении, сдвиг вершины сессии.
//
// Ошибка хранилища на шагах 3 и 5 отклоняет запрос: без записи о погашении
// тот же токен можно было бы обменять ещё раз.
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken string, client model.ClientInfo) (*model.TokensPair, error) {
	claims, err := s.codec.Verify(refreshToken, model.TokenKindRefresh)
	if err != nil {
		return nil, s.rejectRefresh(ctx, "", client, "invalid", apperrors.ErrTokenInvalid)
	}

	if s.blacklist.IsBlacklisted(ctx, claims.ID) {
		return nil, s.rejectRefresh(ctx, claims.UserUUID, client, "revoked", apperrors.ErrTokenRevoked)
	}

	used, err := s.rotations.WasUsed(ctx, claims.ID)
	if err != nil {
		return nil, s.rejectRefresh(ctx, claims.UserUUID, client, "storage", err)
	}
	if used {
		s.handleReuseAttack(ctx, claims, client)
		return nil, apperrors.ErrTokenReused
	}

	session, err := s.sessions.FindActiveByRefreshJTI(ctx, claims.ID)
	if err != nil {
		return nil, s.rejectRefresh(ctx, claims.UserUUID, client, "storage", err)
	}
	if session == nil || session.UserUUID != claims.UserUUID {
		return nil, s.rejectRefresh(ctx, claims.UserUUID, client, "no_session", apperrors.ErrTokenInvalid)
	}

	subject := model.Subject{UserUUID: claims.UserUUID, Email: claims.Email, SessionID: session.ID}
	newRefresh, pair, err := s.issuePair(subject, claims.TokenFamily, claims.ID)
	if err != nil {
		return nil, s.rejectRefresh(ctx, claims.UserUUID, client, "issue", err)
	}

	record := &model.TokenRotationRecord{
		JTI:         claims.ID,
		UserUUID:    claims.UserUUID,
		TokenFamily: claims.TokenFamily,
		ParentJTI:   optional(claims.ParentJTI),
		ChildJTI:    &newRefresh.JTI,
		ExpiresAt:   claims.ExpiresAt.Time,
	}
	if err := s.rotations.RecordRotation(ctx, record); err != nil {
		if errors.Is(err, apperrors.ErrTokenReused) {
			// параллельный запрос успел погасить тот же токен
			s.handleReuseAttack(ctx, claims, client)
			return nil, apperrors.ErrTokenReused
		}
		return nil, s.rejectRefresh(ctx, claims.UserUUID, client, "storage", err)
	}

	if err := s.sessions.Rotate(ctx, session.ID, claims.ID, newRefresh.JTI, newRefresh.ExpiresAt); err != nil {
		return nil, s.rejectRefresh(ctx, claims.UserUUID, client, "session_rotate", err)
	}

	s.refreshOutcome("success")
	s.audit.RefreshSucceeded(ctx, claims.UserUUID, client, claims.TokenFamily)
	return pair, nil
}

// handleReuseAttack отзывает все сессии пользователя. Работает на контексте
// без отмены: клиент, отключившийся после отказа, не должен прервать отзыв.
func (s *AuthenticationService) handleReuseAttack(ctx context.Context, claims *model.Claims, client model.ClientInfo) {
	ctx = context.WithoutCancel(ctx)

	attempts := s.settings.ReuseRevokeRetries
	if attempts < 1 {
		attempts = 1
	}

	var (
		revoked int
		err     error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		var n int
		n, err = s.blacklist.RevokeAllForUser(ctx, claims.UserUUID, model.RevokeReasonTokenReuse)
		revoked += n
		if err == nil {
			break
		}
		s.logger.Warn("отзыв сессий после повторного предъявления не завершён",
			zap.String("user_uuid", claims.UserUUID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	if err != nil {
		s.logger.Error("не удалось отозвать все сессии после повторного предъявления",
			zap.String("user_uuid", claims.UserUUID),
			zap.String("token_family", claims.TokenFamily),
			zap.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.ReuseDetected.Inc()
	}
	s.refreshOutcome("reuse")
	s.logger.Warn("повторное предъявление refresh токена",
		zap.String("user_uuid", claims.UserUUID),
		zap.String("jti", claims.ID),
		zap.String("token_family", claims.TokenFamily),
		zap.Int("revoked_sessions", revoked),
	)
	s.audit.TokenReuseDetected(ctx, claims.UserUUID, client, claims.ID, claims.TokenFamily, revoked)
}

// Logout закрывает текущую сессию. Ошибки хранилища только логируются:
// выход пользователя не должен падать из-за недоступной БД.
func (s *AuthenticationService) Logout(ctx context.Context, identity *model.Identity, client model.ClientInfo) error {
	if identity == nil {
		return apperrors.ErrUnauthenticated
	}

	if identity.TokenJTI != "" {
		if err := s.blacklist.Add(ctx, identity.TokenJTI, identity.UserUUID, identity.ExpiresAt, model.TokenKindAccess, model.RevokeReasonLogout); err != nil {
			s.logger.Warn("не удалось отозвать access токен при выходе", zap.String("jti", identity.TokenJTI), zap.Error(err))
		}
	}

	if identity.SessionID != "" {
		s.closeSession(ctx, identity)
	}

	s.audit.Logout(ctx, identity.UserUUID, client, identity.SessionID)
	return nil
}

func (s *AuthenticationService) closeSession(ctx context.Context, identity *model.Identity) {
	session, err := s.sessions.FindByID(ctx, identity.SessionID)
	if err != nil {
		s.logger.Warn("не удалось найти сессию при выходе", zap.String("session_id", identity.SessionID), zap.Error(err))
		return
	}
	if session == nil || session.UserUUID != identity.UserUUID {
		return
	}

	if err := s.blacklist.Add(ctx, session.RefreshTokenJTI, session.UserUUID, session.ExpiresAt, model.TokenKindRefresh, model.RevokeReasonLogout); err != nil {
		s.logger.Warn("не удалось отозвать refresh токен при выходе", zap.String("session_id", session.ID), zap.Error(err))
	}
	if _, err := s.sessions.RevokeSession(ctx, session.ID, model.RevokeReasonLogout); err != nil {
		s.logger.Warn("не удалось закрыть сессию при выходе", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// ChangePassword меняет пароль, закрывает все сессии пользователя
// и выдаёт вызывающему новую пару в новой сессии
func (s *AuthenticationService) ChangePassword(ctx context.Context, identity *model.Identity, currentPassword, newPassword string, client model.ClientInfo) (*model.TokensPair, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUUID(ctx, identity.UserUUID)
	if err != nil {
		return nil, apperrors.ErrStorage(err)
	}
	if user == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	if !security.CheckPassword(user.PasswordHash, currentPassword) {
		s.audit.Record(ctx, model.AuditPasswordChange, false, user.UUID, client, nil, "неверный текущий пароль")
		return nil, apperrors.ErrInvalidCredentials
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, user.UUID, hash); err != nil {
		return nil, apperrors.ErrStorage(err)
	}

	revoked, err := s.blacklist.RevokeAllForUser(ctx, user.UUID, model.RevokeReasonPasswordChange)
	if err != nil {
		s.logger.Error("не все сессии закрыты после смены пароля", zap.String("user_uuid", user.UUID), zap.Error(err))
	}
	if identity.TokenJTI != "" {
		if err := s.blacklist.Add(ctx, identity.TokenJTI, user.UUID, identity.ExpiresAt, model.TokenKindAccess, model.RevokeReasonPasswordChange); err != nil {
			s.logger.Warn("не удалось отозвать текущий access токен", zap.Error(err))
		}
	}

	pair, _, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.audit.PasswordChanged(ctx, user.UUID, client, revoked)
	return pair, nil
}

func (s *AuthenticationService) ListSessions(ctx context.Context, identity *model.Identity) ([]model.SessionView, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return s.sessions.ListActiveSessions(ctx, identity.UserUUID, identity.SessionID)
}

// RevokeSession : выход с одного устройства. Чужая или несуществующая
// сессия даёт ErrSessionNotFound, повторный отзыв возвращает false.
func (s *AuthenticationService) RevokeSession(ctx context.Context, identity *model.Identity, sessionID string, client model.ClientInfo) (bool, error) {
	if identity == nil {
		return false, apperrors.ErrUnauthenticated
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if session == nil || session.UserUUID != identity.UserUUID {
		return false, apperrors.ErrSessionNotFound
	}

	if session.RevokedAt == nil {
		if err := s.blacklist.Add(ctx, session.RefreshTokenJTI, session.UserUUID, session.ExpiresAt, model.TokenKindRefresh, model.RevokeReasonUserAction); err != nil {
			return false, err
		}
	}

	revoked, err := s.sessions.RevokeSession(ctx, session.ID, model.RevokeReasonUserAction)
	if err != nil {
		return false, err
	}
	if revoked {
		s.audit.SessionRevoked(ctx, identity.UserUUID, client, session.ID, model.RevokeReasonUserAction)
	}
	return revoked, nil
}

// RevokeAllSessions закрывает все сессии пользователя, при exceptCurrent
// кроме той, из которой пришёл запрос. Сессии, чей refresh токен не удалось
// отозвать, остаются открытыми: вызывающий получает их число и ошибку.
func (s *AuthenticationService) RevokeAllSessions(ctx context.Context, identity *model.Identity, exceptCurrent bool, client model.ClientInfo) (int, error) {
	if identity == nil {
		return 0, apperrors.ErrUnauthenticated
	}

	reason := model.RevokeReasonUserAction
	except := ""
	if exceptCurrent {
		reason = model.RevokeReasonSignOutOthers
		except = identity.SessionID
	}

	revoked, revokeErr := s.blacklist.RevokeSessionsForUser(ctx, identity.UserUUID, reason, except)

	if !exceptCurrent && identity.TokenJTI != "" {
		if err := s.blacklist.Add(ctx, identity.TokenJTI, identity.UserUUID, identity.ExpiresAt, model.TokenKindAccess, reason); err != nil {
			s.logger.Warn("не удалось отозвать текущий access токен", zap.Error(err))
		}
	}

	errorMessage := ""
	if revokeErr != nil {
		errorMessage = revokeErr.Error()
	}
	s.audit.Record(ctx, model.AuditSessionRevoked, revokeErr == nil, identity.UserUUID, client, map[string]any{
		"reason":           reason,
		"revoked_sessions": revoked,
		"except_current":   exceptCurrent,
	}, errorMessage)

	if revokeErr != nil {
		s.logger.Warn("часть сессий не закрыта", zap.Int("revoked", revoked), zap.Error(revokeErr))
		return revoked, revokeErr
	}
	return revoked, nil
}

// TokenFamily : история ротаций семейства, только для его владельца
func (s *AuthenticationService) TokenFamily(ctx context.Context, identity *model.Identity, family string) ([]model.TokenRotationRecord, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	records, err := s.rotations.GetFamily(ctx, family)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.UserUUID != identity.UserUUID {
			return nil, apperrors.ErrSessionNotFound
		}
	}
	return records, nil
}

// startSession выпускает пару токенов нового семейства и сохраняет сессию
func (s *AuthenticationService) startSession(ctx context.Context, user *model.User, client model.ClientInfo) (*model.TokensPair, *model.UserSession, error) {
	subject := model.Subject{UserUUID: user.UUID, Email: user.Email, SessionID: uuid.NewString()}

	refresh, pair, err := s.issuePair(subject, "", "")
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessions.CreateSession(ctx, model.CreateSessionInput{
		SessionID:       subject.SessionID,
		UserUUID:        user.UUID,
		RefreshTokenJTI: refresh.JTI,
		TokenFamily:     refresh.TokenFamily,
		ExpiresAt:       refresh.ExpiresAt,
		Client:          client,
	})
	if err != nil {
		return nil, nil, err
	}

	return pair, session, nil
}

func (s *AuthenticationService) issuePair(subject model.Subject, family, parentJTI string) (*model.IssuedToken, *model.TokensPair, error) {
	refresh, err := s.codec.IssueRefreshToken(subject, family, parentJTI)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка выпуска refresh токена: %w", err)
	}

	access, err := s.codec.IssueAccessToken(subject, refresh.JTI)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка выпуска access токена: %w", err)
	}

	return refresh, &model.TokensPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (s *AuthenticationService) checkLoginRate(ctx context.Context, client model.ClientInfo) error {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "login:"+client.IPAddress, s.settings.LoginRateLimit, s.settings.LoginRateWindow)
		if err != nil {
			s.logger.Warn("rate limiter недоступен, вход разрешён", zap.Error(err))
		} else if !allowed {
			s.audit.RateLimitExceeded(ctx, client, "login")
			return apperrors.ErrRateLimited
		}
	}

	if s.settings.MaxFailuresPerIP > 0 {
		failures, err := s.audit.CountFailuresByIP(ctx, client.IPAddress, s.settings.FailureWindowMinutes)
		if err != nil {
			s.logger.Warn("не удалось посчитать неудачные входы", zap.Error(err))
		} else if failures >= s.settings.MaxFailuresPerIP {
			s.audit.RateLimitExceeded(ctx, client, "login_failures")
			return apperrors.ErrRateLimited
		}
	}

	return nil
}

func (s *AuthenticationService) rejectRefresh(ctx context.Context, userUUID string, client model.ClientInfo, outcome string, err error) error {
	s.refreshOutcome(outcome)
	s.audit.RefreshFailed(ctx, userUUID, client, err.Error())
	return err
}

func (s *AuthenticationService) refreshOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RefreshOutcomes.WithLabelValues(outcome).Inc()
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	return validatePassword(password)
}
