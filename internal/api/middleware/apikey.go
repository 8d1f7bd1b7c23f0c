package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

const APIKeyHeader = "X-API-Key"

// APIKeyAuthenticator resolves an API key and records its use.
type APIKeyAuthenticator interface {
	Authenticate(ctx context.Context, plain, endpoint string) (*domain.User, error)
}

// APIKey authenticates the request by the X-API-Key header. Usage is counted
// against the matched route path.
func APIKey(auth APIKeyAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(APIKeyHeader)
			if key == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing api key")
			}

			u, err := auth.Authenticate(c.Request().Context(), key, c.Path())
			switch {
			case errors.Is(err, domain.ErrUnauthorized):
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			case err != nil:
				return err
			}
			c.Set(UserKey, u)

			return next(c)
		}
	}
}
