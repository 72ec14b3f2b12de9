package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind определяет категорию ошибки бизнес-логики
type Kind string

const (
	KindValidation Kind = "validation" // Некорректные входные данные
	KindNotFound   Kind = "not_found"  // Сущность не найдена
	KindForbidden  Kind = "forbidden"  // Нет прав на операцию
	KindConflict   Kind = "conflict"   // Нарушение перехода состояния
	KindDependency Kind = "dependency" // Ошибка внешнего сервиса или БД
)

// Error представляет типизированную ошибку операции.
// Все операции ядра возвращают либо результат, либо ошибку этого типа,
// хендлеры сами отображают Kind в HTTP статус.
type Error struct {
	Kind    Kind
	Message string
	// CurrentStatus заполняется для конфликтов состояния, чтобы клиент
	// видел фактический статус и мог скорректировать повторный запрос
	CurrentStatus string
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation создает ошибку валидации входных данных
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound создает ошибку отсутствия сущности
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Forbidden создает ошибку доступа
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Conflict создает ошибку нарушения перехода состояния
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// ConflictStatus создает конфликт с указанием текущего статуса сущности
func ConflictStatus(message, currentStatus string) *Error {
	return &Error{Kind: KindConflict, Message: message, CurrentStatus: currentStatus}
}

// Dependency создает ошибку внешней зависимости
func Dependency(message string, err error) *Error {
	return &Error{Kind: KindDependency, Message: message, Err: err}
}

// HTTPStatus возвращает HTTP статус для категории ошибки
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsKind проверяет, относится ли ошибка к указанной категории
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == kind
}
