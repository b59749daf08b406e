package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gosuda/taskhub/internal/access"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/server/middleware"
)

// Envelope wraps every successful response body.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type Response[T any] struct {
	Body Envelope[T]
}

func ok[T any](data T) *Response[T] {
	return &Response[T]{Body: Envelope[T]{Success: true, Data: data}}
}

// MessageOutput carries a body with no data, e.g. after a delete.
type MessageOutput struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
}

func done(message string) *MessageOutput {
	out := &MessageOutput{}
	out.Body.Success = true
	out.Body.Message = message
	return out
}

// List is the data of every collection response.
type List[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func listOf[T any](items []T, page domain.Page) *Response[List[T]] {
	page = page.Normalize()
	if items == nil {
		items = []T{}
	}
	return ok(List[T]{Items: items, Total: len(items), Limit: page.Limit, Offset: page.Offset})
}

// PageParams are the paging query parameters shared by list operations.
type PageParams struct {
	Limit  int `query:"limit" minimum:"0" maximum:"200" doc:"Page size (default 50)"`
	Offset int `query:"offset" minimum:"0" doc:"Number of items to skip"`
}

func (p PageParams) page() domain.Page {
	return domain.Page{Limit: p.Limit, Offset: p.Offset}
}

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	status  int
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func (e *ErrorEnvelope) Error() string             { return e.Message }
func (e *ErrorEnvelope) GetStatus() int            { return e.status }
func (e *ErrorEnvelope) ContentType(string) string { return "application/json" }

// newError replaces huma's problem+json errors with the envelope. Request
// validation failures are reported as 400 like every other validation error.
func newError(status int, message string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	out := &ErrorEnvelope{status: status, Message: message}
	for _, err := range errs {
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
		}
	}
	return out
}

func init() {
	huma.NewError = newError
}

// callerFrom returns the authenticated caller placed in ctx by middleware.Auth.
func callerFrom(ctx context.Context) (access.Caller, error) {
	c, found := middleware.CallerFromContext(ctx)
	if !found {
		return access.Caller{}, huma.Error401Unauthorized("authentication required")
	}
	return c, nil
}

// toAPIError maps domain errors to HTTP errors. NotFound always carries the
// fixed notFound message so absent and foreign resources look the same.
func toAPIError(ctx context.Context, err error, notFound string) error {
	var limit *domain.LimitError
	switch {
	case errors.As(err, &limit):
		return huma.Error403Forbidden(limit.Error())
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(notFound)
	case errors.Is(err, domain.ErrValidation):
		return huma.Error400BadRequest(clientMessage(err, domain.ErrValidation, "invalid request"))
	case errors.Is(err, domain.ErrUnauthenticated):
		return huma.Error401Unauthorized(clientMessage(err, domain.ErrUnauthenticated, "authentication required"))
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden(clientMessage(err, domain.ErrForbidden, "forbidden"))
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(clientMessage(err, domain.ErrConflict, "conflict"))
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("api: unexpected error")
		return huma.Error500InternalServerError("internal server error")
	}
}

// clientMessage strips operation prefixes ("projects.Create: ") and the
// sentinel suffix from err, leaving the human-readable reason.
func clientMessage(err, sentinel error, fallback string) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	parts := strings.Split(msg, ": ")
	for len(parts) > 0 && !strings.Contains(parts[0], " ") {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ": ")
}

// optionalID parses an optional uuid query parameter.
func optionalID(name, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, huma.Error400BadRequest(name + " must be a UUID")
	}
	return id, nil
}
