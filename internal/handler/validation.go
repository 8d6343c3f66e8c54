package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// в ошибках поле называется так же, как в JSON
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// decodeRequest читает JSON и проверяет теги validate, при ошибке сам отвечает 400
func decodeRequest(w http.ResponseWriter, r *http.Request, target any) error {
	if err := decodeJSON(w, r, target); err != nil {
		return err
	}

	if err := requestValidator().Struct(target); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, validationMessage(err))
		return err
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "некорректный запрос"
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return strings.Join(messages, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s обязателен", fe.Field())
	case "email":
		return fmt.Sprintf("%s: некорректный email", fe.Field())
	case "min":
		return fmt.Sprintf("%s: минимум %s символов", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: максимум %s символов", fe.Field(), fe.Param())
	case "nefield":
		return fmt.Sprintf("%s не должен совпадать с текущим", fe.Field())
	default:
		return fmt.Sprintf("%s: некорректное значение", fe.Field())
	}
}
