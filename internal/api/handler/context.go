package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jwt-pizza/pizza-service/internal/api/middleware"
	"github.com/jwt-pizza/pizza-service/internal/core/domain"
)

// currentIdentity returns the caller attached by the Authenticate middleware.
// Route guards normally reject anonymous calls first; this is the fallback
// for handlers mounted without one.
func currentIdentity(c echo.Context) (*domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return identity, nil
}
