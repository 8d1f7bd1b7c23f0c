package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/api/middleware"
	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// currentUser returns the identity loaded by the auth middleware. A missing
// identity means the route was registered without it, so the request is
// refused rather than served anonymously.
func currentUser(c echo.Context) (*domain.User, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return u, nil
}

// outcomeResponse reports a workflow step. NotifyError is set when the change
// was committed but its notification could not be delivered.
type outcomeResponse struct {
	Applied     bool   `json:"applied"`
	Link        string `json:"link,omitempty"`
	NotifyError string `json:"notify_error,omitempty"`
}

// linkPolicy decides whether capability links are echoed back to the caller.
// Links are only exposed outside production, where no mail server may exist.
type linkPolicy struct {
	exposeLinks bool
}

func (p linkPolicy) outcome(o ports.Outcome) outcomeResponse {
	resp := outcomeResponse{Applied: o.Applied}
	if p.exposeLinks {
		resp.Link = o.Link
	}
	if o.NotifyErr != nil {
		resp.NotifyError = o.NotifyErr.Error()
	}
	return resp
}

// bindAndValidate decodes the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// tokenParam reads a capability token from the query string, as embedded in
// emailed links.
func tokenParam(c echo.Context) (string, error) {
	token := c.QueryParam("token")
	if token == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}
	return token, nil
}
