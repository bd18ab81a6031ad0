package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jwt-pizza/pizza-service/internal/api/metrics"
	"github.com/jwt-pizza/pizza-service/internal/api/middleware"
	"github.com/jwt-pizza/pizza-service/internal/core/domain"
	"github.com/jwt-pizza/pizza-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required,notblank,max=255"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,max=72"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a diner account and opens its first session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Name, email and password"
// @Success      200   {object}  ports.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.ResultFailure).Inc()
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.ResultFailure).Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.ResultSuccess).Inc()
	metrics.SessionsOpenedTotal.Inc()
	return c.JSON(http.StatusOK, res)
}

// Login authenticates by email and password and opens a new session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  ports.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/auth [put]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.ResultFailure).Inc()
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		result := metrics.ResultFailure
		if errors.Is(err, domain.ErrTooManyAttempts) {
			result = metrics.ResultThrottled
		}
		metrics.AuthAttemptsTotal.WithLabelValues("login", result).Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.ResultSuccess).Inc()
	metrics.SessionsOpenedTotal.Inc()
	return c.JSON(http.StatusOK, res)
}

// Logout closes the session of the presented bearer token. Repeating it with
// the same token still succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/auth [delete]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := middleware.BearerToken(c)
	if token == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		return err
	}

	metrics.SessionsClosedTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "logout successful"})
}

// UpdateUser changes the email and/or password of a user.
//
// @Summary      Update user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      int                true  "User id"
// @Param        body    body      updateUserRequest  true  "New email and/or password"
// @Success      200     {object}  domain.User
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Failure      409     {object}  map[string]string
// @Router       /api/auth/{userId} [put]
func (h *AuthHandler) UpdateUser(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user id"})
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.UpdateUser(c.Request().Context(), *identity, userID, req.Email, req.Password)
	if errors.Is(err, domain.ErrNotFound) {
		// the caller is authenticated; ErrNotFound here is the target user
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
