package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// SupportHandler exposes and rotates the support contact address.
type SupportHandler struct {
	support ports.SupportWorkflow
	linkPolicy
}

func NewSupportHandler(support ports.SupportWorkflow, exposeLinks bool) *SupportHandler {
	return &SupportHandler{support: support, linkPolicy: linkPolicy{exposeLinks: exposeLinks}}
}

type rotateSupportRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type supportResponse struct {
	SupportEmail string `json:"support_email,omitempty"`
	Configured   bool   `json:"configured"`
}

// Get returns the confirmed support address. A pending rotation reads as unset.
//
// @Summary      Support contact
// @Tags         support
// @Produce      json
// @Success      200  {object}  supportResponse
// @Router       /support [get]
func (h *SupportHandler) Get(c echo.Context) error {
	addr, ok, err := h.support.SupportAddress(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, supportResponse{SupportEmail: addr, Configured: ok})
}

// Rotate stages a new support address and mails it a confirmation link.
//
// @Summary      Rotate the support address
// @Tags         support
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      rotateSupportRequest  true  "New address"
// @Success      202   {object}  outcomeResponse
// @Failure      403   {object}  map[string]string
// @Router       /v1/support [post]
func (h *SupportHandler) Rotate(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req rotateSupportRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.support.RequestRotation(c.Request().Context(), user, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, h.outcome(out))
}

// Confirm activates the pending support address.
//
// @Summary      Confirm the support address
// @Tags         support
// @Produce      json
// @Param        token  query     string  true  "Support verification token"
// @Success      200    {object}  supportResponse
// @Failure      401    {object}  map[string]string
// @Failure      410    {object}  map[string]string
// @Router       /support/confirm [get]
func (h *SupportHandler) Confirm(c echo.Context) error {
	token, err := tokenParam(c)
	if err != nil {
		return err
	}
	settings, err := h.support.Confirm(c.Request().Context(), token)
	if err != nil {
		return err
	}
	addr, ok := settings.Support()
	return c.JSON(http.StatusOK, supportResponse{SupportEmail: addr, Configured: ok})
}
