package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-api/internal/api/metrics"
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account. Self-registered accounts always get
// the USER role.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Param        body  body  registerRequest  true  "User registration details"
// @Success      201
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Failure      503   {object}  ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		countAuth("register", err)
		return err
	}

	_, err := h.authService.Register(c.Request().Context(), toRegisterInput(req))
	countAuth("register", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

// Login authenticates a user and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		countAuth("login", err)
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	countAuth("login", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLoginResponse(res))
}

// Me returns the identity behind the presented token.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(user))
}

func countAuth(operation string, err error) {
	metrics.AuthAttemptsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return domain.Code(err)
}

// bindAndValidate decodes the request body into req and runs the validator
// registered on the Echo instance.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Invalid("malformed request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
