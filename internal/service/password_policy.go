package service

import (
	apperrors "auth-session-server/pkg/errors"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var fieldValidator = validator.New()

const minPasswordLength = 8

// validatePassword : минимум 8 символов, буквы в обоих регистрах, цифра и спецсимвол
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return invalidArgument("пароль должен содержать минимум %d символов", minPasswordLength)
	}

	var upperCount, lowerCount, digitCount, specialCount int

	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upperCount++
		case unicode.IsLower(c):
			lowerCount++
		case unicode.IsDigit(c):
			digitCount++
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			specialCount++
		}
	}

	if upperCount == 0 || lowerCount == 0 {
		return invalidArgument("пароль должен содержать буквы в разных регистрах")
	}
	if digitCount < 1 {
		return invalidArgument("пароль должен содержать хотя бы одну цифру")
	}
	if specialCount < 1 {
		return invalidArgument("пароль должен содержать хотя бы один специальный символ")
	}

	return nil
}

func validateEmail(email string) error {
	if err := fieldValidator.Var(email, "required,email,max=254"); err != nil {
		return invalidArgument("некорректный email")
	}
	return nil
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
