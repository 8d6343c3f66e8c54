package handler

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/model/requestresponse"
	"auth-session-server/internal/security"
	"auth-session-server/internal/util"
	apperrors "auth-session-server/pkg/errors"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("ошибка кодирования ответа", zap.Error(err))
	}
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code: statusCode,
			Text: message,
		},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return err
	}
	return nil
}

// writeServiceError переводит ошибку сервиса в HTTP ответ.
// Все отказы аутентификации выглядят для клиента одинаково, как и в middleware.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if apperrors.IsAuthFailure(err) {
		util.HandleError(w, security.ReauthMessage, http.StatusUnauthorized)
		return
	}

	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidArgument:
		sendErrorResponse(w, http.StatusBadRequest, err.Error())
	case apperrors.CodeNotFound:
		sendErrorResponse(w, http.StatusNotFound, "сессия не найдена")
	case apperrors.CodeAlreadyExists:
		sendErrorResponse(w, http.StatusConflict, "email уже зарегистрирован")
	case apperrors.CodeResourceExhausted:
		w.Header().Set("Retry-After", "60")
		sendErrorResponse(w, http.StatusTooManyRequests, "слишком много попыток, повторите позже")
	case apperrors.CodeUnavailable:
		logger.Error("хранилище недоступно", zap.Error(err))
		sendErrorResponse(w, http.StatusServiceUnavailable, "сервис временно недоступен")
	default:
		logger.Error("внутренняя ошибка", zap.Error(err))
		sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
	}
}

// requireIdentity : обработчик за RequireAuth всегда получает identity,
// отсутствие значит ошибку сборки роутера
func requireIdentity(w http.ResponseWriter, r *http.Request) (*model.Identity, bool) {
	identity := security.IdentityFromContext(r.Context())
	if identity == nil {
		util.HandleError(w, security.ReauthMessage, http.StatusUnauthorized)
		return nil, false
	}
	return identity, true
}
