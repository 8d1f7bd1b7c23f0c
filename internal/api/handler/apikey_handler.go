package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// APIKeyHandler manages the caller's API key and lets admins block keys.
type APIKeyHandler struct {
	keys ports.APIKeyService
}

func NewAPIKeyHandler(keys ports.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

type issuedKeyResponse struct {
	// Key is shown once; only its hash is stored.
	Key    string         `json:"key"`
	APIKey *domain.APIKey `json:"api_key"`
}

// Issue creates the caller's API key.
//
// @Summary      Issue an API key
// @Tags         api-keys
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  issuedKeyResponse
// @Failure      409  {object}  map[string]string
// @Router       /v1/me/api-key [post]
func (h *APIKeyHandler) Issue(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	plain, key, err := h.keys.Issue(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, issuedKeyResponse{Key: plain, APIKey: key})
}

// Get returns the caller's API key metadata and usage counters.
//
// @Summary      Get the caller's API key
// @Tags         api-keys
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.APIKey
// @Failure      404  {object}  map[string]string
// @Router       /v1/me/api-key [get]
func (h *APIKeyHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	key, err := h.keys.Get(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, key)
}

// Revoke deletes the caller's API key.
//
// @Summary      Revoke the caller's API key
// @Tags         api-keys
// @Security     BearerAuth
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/me/api-key [delete]
func (h *APIKeyHandler) Revoke(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.keys.Revoke(c.Request().Context(), user); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Block suspends a user's API key.
//
// @Summary      Block an API key
// @Tags         api-keys
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Owner user ID"
// @Success      200  {object}  outcomeResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id}/api-key/block [post]
func (h *APIKeyHandler) Block(c echo.Context) error {
	return h.setBlocked(c, true)
}

// Unblock reinstates a user's API key.
//
// @Summary      Unblock an API key
// @Tags         api-keys
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Owner user ID"
// @Success      200  {object}  outcomeResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id}/api-key/unblock [post]
func (h *APIKeyHandler) Unblock(c echo.Context) error {
	return h.setBlocked(c, false)
}

func (h *APIKeyHandler) setBlocked(c echo.Context, blocked bool) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	out, err := h.keys.SetBlocked(c.Request().Context(), user, c.Param("id"), blocked)
	if err != nil {
		return err
	}
	// Block notifications carry no capability link.
	return c.JSON(http.StatusOK, linkPolicy{}.outcome(out))
}
