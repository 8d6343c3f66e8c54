package security

import (
	"auth-session-server/config"
	"auth-session-server/internal/model"
	apperrors "auth-session-server/pkg/errors"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// JWTService подписывает и проверяет access и refresh токены.
// Состояния не хранит, отзыв и ротацию ведут сервисы поверх него.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
	now           func() time.Time
}

func NewJWTService(cfg *config.JWTConfig) (*JWTService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("секреты подписи токенов не заданы")
	}

	accessTTL, err := config.Duration(cfg.AccessTokenTTL, 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("ttl access токена: %w", err)
	}
	refreshTTL, err := config.Duration(cfg.RefreshTokenTTL, 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("ttl refresh токена: %w", err)
	}

	return &JWTService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		now:           time.Now,
	}, nil
}

// IssueAccessToken : refreshJTI связывает access токен с refresh токеном той же пары
func (service *JWTService) IssueAccessToken(subject model.Subject, refreshJTI string) (*model.IssuedToken, error) {
	claims := service.baseClaims(subject, model.TokenKindAccess, service.accessTTL)
	claims.RefreshTokenID = refreshJTI

	return service.sign(claims, service.accessSecret)
}

// IssueRefreshToken : пустой parentJTI открывает новое семейство,
// иначе токен продолжает семейство family
func (service *JWTService) IssueRefreshToken(subject model.Subject, family, parentJTI string) (*model.IssuedToken, error) {
	if parentJTI == "" {
		family = uuid.NewString()
	} else if family == "" {
		return nil, fmt.Errorf("%w: семейство обязательно при ротации", apperrors.ErrInvalidArgument)
	}

	claims := service.baseClaims(subject, model.TokenKindRefresh, service.refreshTTL)
	claims.TokenFamily = family
	claims.ParentJTI = parentJTI

	return service.sign(claims, service.refreshSecret)
}

// Verify проверяет подпись, срок, издателя, аудиторию и тип токена.
// Любая причина отказа превращается в ErrTokenInvalid, подробности только в логе.
func (service *JWTService) Verify(tokenStr string, kind model.TokenKind) (*model.Claims, error) {
	secret := service.accessSecret
	if kind == model.TokenKindRefresh {
		secret = service.refreshSecret
	}

	claims := &model.Claims{}
	jwtToken, err := jwt.ParseWithClaims(tokenStr, claims,
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithAudience(service.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)
	if err != nil || !jwtToken.Valid {
		zap.L().Debug("невалидный токен", zap.String("kind", string(kind)), zap.Error(err))
		return nil, apperrors.ErrTokenInvalid
	}

	if claims.Type != kind || claims.ID == "" || claims.UserUUID == "" {
		zap.L().Debug("токен не того типа или без обязательных полей", zap.String("kind", string(kind)))
		return nil, apperrors.ErrTokenInvalid
	}
	if kind == model.TokenKindRefresh && claims.TokenFamily == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	return claims, nil
}

func (service *JWTService) baseClaims(subject model.Subject, kind model.TokenKind, ttl time.Duration) *model.Claims {
	now := service.now()
	return &model.Claims{
		UserUUID:  subject.UserUUID,
		Email:     subject.Email,
		Type:      kind,
		SessionID: subject.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    service.issuer,
			Subject:   subject.UserUUID,
			Audience:  jwt.ClaimStrings{service.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (service *JWTService) sign(claims *model.Claims, secret []byte) (*model.IssuedToken, error) {
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := jwtToken.SignedString(secret)
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return &model.IssuedToken{
		Token:       signed,
		JTI:         claims.ID,
		Kind:        claims.Type,
		TokenFamily: claims.TokenFamily,
		ParentJTI:   claims.ParentJTI,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// ExtractBearer : токен из заголовка Authorization
func ExtractBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хэширования пароля: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
