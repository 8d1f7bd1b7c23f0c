package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// RoleHandler requests and confirms role grants and revocations.
type RoleHandler struct {
	roles ports.RoleWorkflow
	linkPolicy
}

func NewRoleHandler(roles ports.RoleWorkflow, exposeLinks bool) *RoleHandler {
	return &RoleHandler{roles: roles, linkPolicy: linkPolicy{exposeLinks: exposeLinks}}
}

// roleParams reads the target user, role and direction from the route.
func roleParams(c echo.Context) (targetID string, role domain.Role, grant bool, err error) {
	role = domain.Role(c.Param("role"))
	if !role.Valid() {
		return "", "", false, domain.ErrInvalidRole
	}
	switch c.Param("action") {
	case "grant":
		grant = true
	case "revoke":
	default:
		return "", "", false, echo.NewHTTPError(http.StatusNotFound, "unknown role action")
	}
	return c.Param("id"), role, grant, nil
}

// Request starts a role change. The acting admin receives a confirmation
// link; with no admins present a user may grant themselves admin directly.
//
// @Summary      Request a role change
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Target user ID"
// @Param        role    path      string  true  "admin or author"
// @Param        action  path      string  true  "grant or revoke"
// @Success      202     {object}  outcomeResponse
// @Failure      403     {object}  map[string]string
// @Failure      422     {object}  map[string]string
// @Router       /v1/users/{id}/roles/{role}/{action} [post]
func (h *RoleHandler) Request(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, role, grant, err := roleParams(c)
	if err != nil {
		return err
	}

	out, err := h.roles.RequestChange(c.Request().Context(), user, targetID, role, grant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, h.outcome(out))
}

// Confirm applies a role change by its emailed token.
//
// @Summary      Confirm a role change
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Target user ID"
// @Param        role    path      string  true  "admin or author"
// @Param        action  path      string  true  "grant or revoke"
// @Param        token   query     string  true  "Role change token"
// @Success      200     {object}  outcomeResponse
// @Failure      401     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Failure      410     {object}  map[string]string
// @Router       /v1/users/{id}/roles/{role}/{action}/confirm [get]
func (h *RoleHandler) Confirm(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, role, grant, err := roleParams(c)
	if err != nil {
		return err
	}
	token, err := tokenParam(c)
	if err != nil {
		return err
	}

	out, err := h.roles.ConfirmChange(c.Request().Context(), user, targetID, role, grant, token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.outcome(out))
}
