package handler

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/model/requestresponse"
	"auth-session-server/internal/ports"
	"auth-session-server/internal/security"
	"auth-session-server/internal/util"
	"net/http"

	"go.uber.org/zap"
)

type AuthenticationHandler struct {
	service ports.AuthenticationService
	logger  *zap.Logger
}

func NewAuthenticationHandler(service ports.AuthenticationService, logger *zap.Logger) *AuthenticationHandler {
	return &AuthenticationHandler{service: service, logger: logger}
}

// Signup godoc
// @Summary Регистрация пользователя
// @Description Создаёт пользователя и сразу открывает для него сессию
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.SignupRequest true "Тело запроса"
// @Success 201 {object} requestresponse.TokensResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный email или слабый пароль"
// @Failure 409 {object} requestresponse.ErrorResponse "Email уже зарегистрирован"
// @Failure 503 {object} requestresponse.ErrorResponse "Хранилище недоступно"
// @Router /api/auth/signup [post]
func (h *AuthenticationHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.SignupRequest
	if err := decodeRequest(w, r, &req); err != nil {
		return
	}

	pair, err := h.service.Signup(r.Context(), req.Email, req.Password, util.ClientInfoFromRequest(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokensResponse(pair))
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Проверяет email и пароль, открывает новую сессию устройства
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса" example({"email": "user@example.com", "password": "P@ssw0rd123"})
// @Success 200 {object} requestresponse.TokensResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный email или пароль"
// @Failure 429 {object} requestresponse.ErrorResponse "Слишком много попыток с этого IP"
// @Failure 503 {object} requestresponse.ErrorResponse "Хранилище недоступно"
// @Router /api/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		return
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password, util.ClientInfoFromRequest(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensResponse(pair))
}

// RefreshToken godoc
// @Summary Обновление токенов
// @Description Обменивает refresh токен на новую пару. Каждый refresh токен принимается один раз,
// @Description повторное предъявление закрывает все сессии пользователя.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 200 {object} requestresponse.TokensResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Неверный JSON"
// @Failure 401 {object} requestresponse.ErrorResponse "Требуется повторный вход"
// @Failure 503 {object} requestresponse.ErrorResponse "Хранилище недоступно"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RefreshTokenRequest
	if err := decodeRequest(w, r, &req); err != nil {
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken, util.ClientInfoFromRequest(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensResponse(pair))
}

// Logout godoc
// @Summary Выход с текущего устройства
// @Description Отзывает текущий access токен и закрывает сессию
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.StatusResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), identity, util.ClientInfoFromRequest(r)); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var resp requestresponse.StatusResponse
	resp.Response.OK = true
	writeJSON(w, http.StatusOK, resp)
}

// ChangePassword godoc
// @Summary Смена пароля
// @Description Меняет пароль, закрывает все сессии и выдаёт новую пару для текущего устройства
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.ChangePasswordRequest true "Тело запроса"
// @Success 200 {object} requestresponse.TokensResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Слабый новый пароль"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный текущий пароль"
// @Security ApiKeyAuth
// @Router /api/auth/password [put]
func (h *AuthenticationHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req requestresponse.ChangePasswordRequest
	if err := decodeRequest(w, r, &req); err != nil {
		return
	}

	pair, err := h.service.ChangePassword(r.Context(), identity, req.CurrentPassword, req.NewPassword, util.ClientInfoFromRequest(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensResponse(pair))
}

// GetCurrentUser godoc
// @Summary UUID текущего пользователя
// @Description Принимает bearer токен или cookie сессии внешнего провайдера
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var resp requestresponse.CurrentUserResponse
	resp.Response.UserUUID = identity.UserUUID
	writeJSON(w, http.StatusOK, resp)
}

// Ping godoc
// @Summary Публичная проверка
// @Description Доступна анонимно, для вошедшего пользователя возвращает его UUID
// @Tags Public
// @Produce json
// @Success 200 {object} requestresponse.PingResponse
// @Router /api/public/ping [get]
func (h *AuthenticationHandler) Ping(w http.ResponseWriter, r *http.Request) {
	var resp requestresponse.PingResponse
	if identity := security.IdentityFromContext(r.Context()); identity != nil {
		resp.Response.Authenticated = true
		resp.Response.UserUUID = identity.UserUUID
	}
	writeJSON(w, http.StatusOK, resp)
}

func tokensResponse(pair *model.TokensPair) requestresponse.TokensResponse {
	var resp requestresponse.TokensResponse
	resp.Response.AccessToken = pair.AccessToken
	resp.Response.RefreshToken = pair.RefreshToken
	resp.Response.AccessExpiresAt = pair.AccessExpiresAt
	resp.Response.RefreshExpiresAt = pair.RefreshExpiresAt
	return resp
}
