package commons

import "github.com/exportdesk/debt-ledger/internal/domain"

// Response is the envelope every service method and HTTP handler speaks. Kind
// is set on failures so clients can branch on a stable machine-readable
// category instead of matching message text.
type Response[T any] struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Kind    domain.Kind `json:"kind,omitempty"`
	Data    *T          `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](kind domain.Kind, message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Kind:    kind,
		Errors:  errors,
	}
}

// FromError builds the failure envelope for a tagged error.
func FromError[T any](err error) Response[T] {
	return ErrorResponse[T](domain.KindOf(err), domain.MessageOf(err))
}
