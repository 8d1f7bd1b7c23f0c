package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

type AuthHandler struct {
	identity ports.IdentityService
	email    ports.EmailWorkflow
	password ports.PasswordWorkflow
	linkPolicy
}

func NewAuthHandler(identity ports.IdentityService, email ports.EmailWorkflow, password ports.PasswordWorkflow, exposeLinks bool) *AuthHandler {
	return &AuthHandler{
		identity:   identity,
		email:      email,
		password:   password,
		linkPolicy: linkPolicy{exposeLinks: exposeLinks},
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password" validate:"required,min=8"`
}

type authResponse struct {
	Token        string           `json:"token,omitempty"`
	User         *domain.User     `json:"user,omitempty"`
	Confirmation *outcomeResponse `json:"confirmation,omitempty"`
}

// Register creates a new account and mails an email-confirmation link.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, out, err := h.identity.Register(c.Request().Context(), req.Email, req.Name, req.Password)
	if err != nil {
		return err
	}

	confirmation := h.outcome(out)
	return c.JSON(http.StatusCreated, authResponse{User: user, Confirmation: &confirmation})
}

// Login authenticates a user and returns a session JWT.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.identity.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /v1/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ConfirmEmail follows the link mailed at registration.
//
// @Summary      Confirm an email address
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "Email verification token"
// @Success      200    {object}  domain.User
// @Failure      401    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Failure      410    {object}  map[string]string
// @Router       /auth/confirm-email [get]
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	token, err := tokenParam(c)
	if err != nil {
		return err
	}

	user, err := h.email.Confirm(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ResendConfirmation mails a fresh email-confirmation link.
//
// @Summary      Resend the confirmation email
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object}  outcomeResponse
// @Failure      409  {object}  map[string]string
// @Router       /v1/me/confirm-email [post]
func (h *AuthHandler) ResendConfirmation(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	out, err := h.email.Resend(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, h.outcome(out))
}

// ForgotPassword mails a password-reset link.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      202   {object}  outcomeResponse
// @Failure      404   {object}  map[string]string
// @Router       /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.password.RequestReset(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, h.outcome(out))
}

// ResetPassword sets a new password. The token may come from the body or
// from the query string of the mailed link.
//
// @Summary      Reset a password
// @Tags         auth
// @Accept       json
// @Param        token  query  string                false  "Password reset token"
// @Param        body   body   resetPasswordRequest  true   "New password"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      410  {object}  map[string]string
// @Router       /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Token == "" {
		req.Token = c.QueryParam("token")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	if err := h.password.Reset(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
