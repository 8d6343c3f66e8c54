package handler

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/model/requestresponse"
	"auth-session-server/internal/ports"
	"auth-session-server/internal/util"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SessionHandler : управление устройствами пользователя
type SessionHandler struct {
	service ports.AuthenticationService
	logger  *zap.Logger
}

func NewSessionHandler(service ports.AuthenticationService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: logger}
}

// ListSessions godoc
// @Summary Активные сессии
// @Description Список устройств пользователя, свежие первыми. Текущая сессия помечена current.
// @Tags Sessions
// @Produce json
// @Success 200 {object} requestresponse.SessionsResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/sessions [get]
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	views, err := h.service.ListSessions(r.Context(), identity)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if views == nil {
		views = []model.SessionView{}
	}

	writeJSON(w, http.StatusOK, requestresponse.SessionsResponse{Response: views})
}

// RevokeSession godoc
// @Summary Выход с одного устройства
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} requestresponse.RevokeSessionResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse "Сессия не найдена"
// @Security ApiKeyAuth
// @Router /api/auth/sessions/{id} [delete]
func (h *SessionHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		sendErrorResponse(w, http.StatusBadRequest, "id сессии не указан")
		return
	}

	revoked, err := h.service.RevokeSession(r.Context(), identity, sessionID, util.ClientInfoFromRequest(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var resp requestresponse.RevokeSessionResponse
	resp.Response.SessionID = sessionID
	resp.Response.Revoked = revoked
	writeJSON(w, http.StatusOK, resp)
}

// RevokeAllSessions godoc
// @Summary Выход со всех устройств
// @Description При except_current=true текущая сессия остаётся открытой
// @Tags Sessions
// @Produce json
// @Param except_current query bool false "Не закрывать текущую сессию"
// @Success 200 {object} requestresponse.RevokeAllSessionsResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 503 {object} requestresponse.ErrorResponse "Часть сессий не закрыта, blacklist недоступен"
// @Security ApiKeyAuth
// @Router /api/auth/sessions [delete]
func (h *SessionHandler) RevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	exceptCurrent := false
	if raw := r.URL.Query().Get("except_current"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			sendErrorResponse(w, http.StatusBadRequest, "except_current должен быть true или false")
			return
		}
		exceptCurrent = parsed
	}

	revoked, err := h.service.RevokeAllSessions(r.Context(), identity, exceptCurrent, util.ClientInfoFromRequest(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	var resp requestresponse.RevokeAllSessionsResponse
	resp.Response.Revoked = revoked
	writeJSON(w, http.StatusOK, resp)
}

// TokenFamily godoc
// @Summary История ротаций семейства токенов
// @Tags Sessions
// @Produce json
// @Param family path string true "ID семейства"
// @Success 200 {object} requestresponse.TokenFamilyResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/families/{family} [get]
func (h *SessionHandler) TokenFamily(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	records, err := h.service.TokenFamily(r.Context(), identity, chi.URLParam(r, "family"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if records == nil {
		records = []model.TokenRotationRecord{}
	}

	writeJSON(w, http.StatusOK, requestresponse.TokenFamilyResponse{Response: records})
}
