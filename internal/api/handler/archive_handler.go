package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// ArchiveHandler serves archived post snapshots.
type ArchiveHandler struct {
	archive ports.ArchiveEngine
}

func NewArchiveHandler(archive ports.ArchiveEngine) *ArchiveHandler {
	return &ArchiveHandler{archive: archive}
}

type restoreResponse struct {
	Post     *domain.Post `json:"post"`
	Comments int          `json:"comments"`
	Replies  int          `json:"replies"`
}

// List returns the archives the caller may restore. Administrators see all.
//
// @Summary      List archived posts
// @Tags         archive
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.ArchivedAggregate
// @Router       /v1/archives [get]
func (h *ArchiveHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	all, err := h.archive.List(c.Request().Context())
	if err != nil {
		return err
	}
	visible := make([]*domain.ArchivedAggregate, 0, len(all))
	for _, a := range all {
		if domain.CanRestore(user, a) {
			visible = append(visible, a)
		}
	}
	return c.JSON(http.StatusOK, visible)
}

// Get returns one archived snapshot.
//
// @Summary      Get an archived post
// @Tags         archive
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Archive ID"
// @Success      200  {object}  domain.ArchivedAggregate
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/archives/{id} [get]
func (h *ArchiveHandler) Get(c echo.Context) error {
	archived, err := h.owned(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, archived)
}

// Restore rebuilds the live post, comments and replies from a snapshot.
//
// @Summary      Restore an archived post
// @Tags         archive
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Archive ID"
// @Success      200  {object}  restoreResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      423  {object}  map[string]string
// @Router       /v1/archives/{id}/restore [post]
func (h *ArchiveHandler) Restore(c echo.Context) error {
	archived, err := h.owned(c)
	if err != nil {
		return err
	}

	agg, err := h.archive.Restore(c.Request().Context(), archived.ID)
	if err != nil {
		return err
	}
	comments, replies := agg.Counts()
	return c.JSON(http.StatusOK, restoreResponse{Post: agg.Post, Comments: comments, Replies: replies})
}

// Purge permanently drops an archived snapshot.
//
// @Summary      Purge an archived post
// @Tags         archive
// @Security     BearerAuth
// @Param        id  path  string  true  "Archive ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/archives/{id} [delete]
func (h *ArchiveHandler) Purge(c echo.Context) error {
	if err := h.archive.Purge(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ArchiveHandler) owned(c echo.Context) (*domain.ArchivedAggregate, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	archived, err := h.archive.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !domain.CanRestore(user, archived) {
		return nil, domain.ErrUnauthorized
	}
	return archived, nil
}
