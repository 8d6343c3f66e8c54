package errors

import "fmt"

var (
	// Таксономия ошибок аутентификации. Клиенту все варианты с кодом
	// UNAUTHENTICATED отдаются одинаково, различие остаётся в логах и аудите.
	ErrTokenMissing       = Unauthorized("токен не передан")
	ErrTokenInvalid       = Unauthorized("токен недействителен")
	ErrTokenRevoked       = Unauthorized("токен отозван")
	ErrTokenReused        = Unauthorized("повторное предъявление refresh токена")
	ErrUnauthenticated    = Unauthorized("требуется аутентификация")
	ErrInvalidCredentials = Unauthorized("неверный email или пароль")

	ErrSessionNotFound    = NotFound("сессия не найдена")
	ErrStorageUnavailable = Unavailable("хранилище недоступно")
	ErrRateLimited        = Exhausted("превышен лимит попыток")
	ErrEmailTaken         = AlreadyExists("email уже зарегистрирован")
	ErrInvalidArgument    = InvalidArg("некорректный аргумент")
)

// ErrStorage оборачивает ошибку хранилища так, что срабатывают и
// errors.Is(err, ErrStorageUnavailable), и errors.Is(err, cause)
func ErrStorage(cause error) error {
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, cause)
}
