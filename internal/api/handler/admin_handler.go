package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

type AdminHandler struct {
	scrubber ports.Scrubber
}

func NewAdminHandler(scrubber ports.Scrubber) *AdminHandler {
	return &AdminHandler{scrubber: scrubber}
}

type scrubResponse struct {
	Removed ports.ScrubReport `json:"removed"`
	Total   int               `json:"total"`
}

// Scrub removes every record whose owner no longer resolves.
//
// @Summary      Run the consistency scrubber
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  scrubResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/admin/scrub [post]
func (h *AdminHandler) Scrub(c echo.Context) error {
	report, err := h.scrubber.Scrub(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, scrubResponse{Removed: report, Total: report.Total()})
}
