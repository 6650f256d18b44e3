// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков и сопоставления ошибок
// движка с HTTP-статусами.
package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Response описывает стандартную структуру JSON-ответа сервера.
// Status — "OK" или "Error". Redirect заполняется при отказе в доступе
// и указывает, куда направить пользователя дальше.
type Response struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status    string `json:"status" example:"Error"`
	Error     string `json:"error" example:"invalid request body"`
	Redirect  string `json:"redirect,omitempty" example:"/subscribe"`
	Retryable bool   `json:"retryable,omitempty"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// Denied возвращает отказ с адресом следующего шага.
func Denied(reason, redirect string) ErrorResponse {
	return ErrorResponse{
		Status:   StatusError,
		Error:    reason,
		Redirect: redirect,
	}
}

// ValidationError формирует ответ на основе ошибок валидации.
// Каждое нарушение превращается в читаемый текст, нарушения объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// StatusFor сопоставляет ошибку движка HTTP-статусу и сообщению для клиента.
// Конкретная причина (models.Reason) попадает в ответ как есть. Внутренние
// ошибки хранилища наружу не раскрываются.
func StatusFor(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Status: StatusError}

	switch {
	case errors.Is(err, models.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		resp.Error = models.ErrUnavailable.Error()
		resp.Retryable = true
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, models.ErrUnauthenticated):
		resp.Error = message(err, models.ErrUnauthenticated)
		return http.StatusUnauthorized, resp
	case errors.Is(err, models.ErrPermissionDenied):
		resp.Error = message(err, models.ErrPermissionDenied)
		return http.StatusForbidden, resp
	case errors.Is(err, models.ErrInvalidArgument):
		resp.Error = message(err, models.ErrInvalidArgument)
		return http.StatusBadRequest, resp
	case errors.Is(err, models.ErrNotFound):
		resp.Error = message(err, models.ErrNotFound)
		return http.StatusNotFound, resp
	case errors.Is(err, models.ErrInvalidState):
		resp.Error = message(err, models.ErrInvalidState)
		resp.Retryable = errors.Is(err, models.ErrConcurrentWrite)
		return http.StatusConflict, resp
	default:
		resp.Error = models.ErrInternal.Error()
		return http.StatusInternalServerError, resp
	}
}

func message(err, class error) string {
	var reason *models.Reason
	if errors.As(err, &reason) {
		return reason.Msg
	}
	return class.Error()
}

// RenderError пишет ошибку движка с подходящим статусом.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := StatusFor(err)
	w.WriteHeader(status)
	render.JSON(w, r, resp)
}
