package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jwt-pizza/pizza-service/internal/core/domain"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// statusMapping pairs a domain error with its HTTP rendering. An empty msg
// means the error text itself is safe to show.
type statusMapping struct {
	target error
	code   int
	msg    string
}

// Order matters: ErrPersistence wraps driver errors and must win over
// anything it may also wrap.
var statusMappings = []statusMapping{
	{domain.ErrPersistence, http.StatusInternalServerError, ""},
	{domain.ErrNotFound, http.StatusUnauthorized, domain.ErrNotFound.Error()},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrRevoked, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrConflict, http.StatusConflict, domain.ErrConflict.Error()},
	{domain.ErrInvalidInput, http.StatusBadRequest, ""},
	{domain.ErrForbidden, http.StatusForbidden, domain.ErrForbidden.Error()},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests, domain.ErrTooManyAttempts.Error()},
}

// NewHTTPErrorHandler renders handler errors as {"error": "..."}. Store
// failures and unknown errors are logged and answered with a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("unhandled error")
			msg = "internal server error"
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range statusMappings {
		if errors.Is(err, m.target) {
			if m.msg == "" {
				return m.code, err.Error()
			}
			return m.code, m.msg
		}
	}
	return http.StatusInternalServerError, ""
}
