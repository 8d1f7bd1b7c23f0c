package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// DeletionHandler serves self-service deletion requests and admin-initiated
// account deletion.
type DeletionHandler struct {
	deletion ports.DeletionWorkflow
	linkPolicy
}

func NewDeletionHandler(deletion ports.DeletionWorkflow, exposeLinks bool) *DeletionHandler {
	return &DeletionHandler{deletion: deletion, linkPolicy: linkPolicy{exposeLinks: exposeLinks}}
}

type deletionRequest struct {
	Reason      string `json:"reason" validate:"required,max=200"`
	Explanation string `json:"explanation" validate:"max=2000"`
}

type deletionResponse struct {
	Report  *domain.DeletionReport `json:"report,omitempty"`
	Outcome outcomeResponse        `json:"outcome"`
}

// RequestDeletion files a deletion report for the caller. Administrators,
// and everyone while no administrator exists, are deleted immediately.
//
// @Summary      Request account deletion
// @Tags         deletion
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      deletionRequest  true  "Reason"
// @Success      202   {object}  deletionResponse
// @Failure      409   {object}  map[string]string
// @Router       /v1/me/deletion-request [post]
func (h *DeletionHandler) RequestDeletion(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req deletionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	report, out, err := h.deletion.RequestDeletion(c.Request().Context(), user, req.Reason, req.Explanation)
	if err != nil {
		return err
	}
	if report != nil && !h.exposeLinks {
		redacted := *report
		redacted.ApproveLink, redacted.RejectLink = "", ""
		report = &redacted
	}
	return c.JSON(http.StatusAccepted, deletionResponse{Report: report, Outcome: h.outcome(out)})
}

// Pending lists unresolved deletion reports.
//
// @Summary      List pending deletion requests
// @Tags         deletion
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.DeletionReport
// @Failure      403  {object}  map[string]string
// @Router       /v1/deletion-requests [get]
func (h *DeletionHandler) Pending(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	reports, err := h.deletion.PendingReports(c.Request().Context(), user)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []*domain.DeletionReport{}
	}
	return c.JSON(http.StatusOK, reports)
}

// Approve deletes the reporting account.
//
// @Summary      Approve a deletion request
// @Tags         deletion
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Report ID"
// @Param        token  query     string  true  "Deletion request token"
// @Success      200    {object}  outcomeResponse
// @Failure      401    {object}  map[string]string
// @Failure      410    {object}  map[string]string
// @Router       /v1/deletion-requests/{id}/approve [get]
func (h *DeletionHandler) Approve(c echo.Context) error {
	return h.review(c, h.deletion.Approve)
}

// Reject closes the report and tells its owner.
//
// @Summary      Reject a deletion request
// @Tags         deletion
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Report ID"
// @Param        token  query     string  true  "Deletion request token"
// @Success      200    {object}  outcomeResponse
// @Failure      401    {object}  map[string]string
// @Failure      410    {object}  map[string]string
// @Router       /v1/deletion-requests/{id}/reject [get]
func (h *DeletionHandler) Reject(c echo.Context) error {
	return h.review(c, h.deletion.Reject)
}

type reviewFunc func(ctx context.Context, actor *domain.User, reportID, token string) (ports.Outcome, error)

func (h *DeletionHandler) review(c echo.Context, decide reviewFunc) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	token, err := tokenParam(c)
	if err != nil {
		return err
	}

	out, err := decide(c.Request().Context(), user, c.Param("id"), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.outcome(out))
}

// RequestUserDeletion mails the acting admin a link that deletes the target.
//
// @Summary      Request deletion of a user
// @Tags         deletion
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Target user ID"
// @Success      202  {object}  outcomeResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id}/delete [post]
func (h *DeletionHandler) RequestUserDeletion(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	out, err := h.deletion.RequestUserDeletion(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, h.outcome(out))
}

// ConfirmUserDeletion deletes the target by the emailed token.
//
// @Summary      Confirm deletion of a user
// @Tags         deletion
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Target user ID"
// @Param        token  query     string  true  "Delete authorisation token"
// @Success      200    {object}  outcomeResponse
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      410    {object}  map[string]string
// @Router       /v1/users/{id}/delete/confirm [get]
func (h *DeletionHandler) ConfirmUserDeletion(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	token, err := tokenParam(c)
	if err != nil {
		return err
	}
	out, err := h.deletion.ConfirmUserDeletion(c.Request().Context(), user, c.Param("id"), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.outcome(out))
}
