package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

// Require lets the request through only when the loaded user satisfies allow.
// It must run after LoadUser or APIKey.
func Require(allow func(*domain.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			if u == nil || !allow(u) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireAdmin restricts a route to administrators.
func RequireAdmin() echo.MiddlewareFunc {
	return Require(func(u *domain.User) bool { return u.Admin })
}

// RequireStaff restricts a route to administrators and authors.
func RequireStaff() echo.MiddlewareFunc {
	return Require((*domain.User).IsStaff)
}

// RequireConfirmed restricts a route to users who confirmed their email.
func RequireConfirmed() echo.MiddlewareFunc {
	return Require(func(u *domain.User) bool { return u.ConfirmedEmail })
}
