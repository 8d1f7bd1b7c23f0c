package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

// Context keys set by the authentication middlewares.
const (
	UserIDKey = "user_id"
	UserKey   = "user"
)

// Auth validates the session JWT and injects its subject into context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, _ := claims["user_id"].(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}
			c.Set(UserIDKey, userID)

			return next(c)
		}
	}
}

// UserLoader resolves the identity behind a session.
type UserLoader interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

// LoadUser resolves the session subject set by Auth. A session whose user
// has since been deleted is rejected.
func LoadUser(users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := c.Get(UserIDKey).(string)
			if id == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			u, err := users.Get(c.Request().Context(), id)
			if errors.Is(err, domain.ErrUserNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "session user no longer exists")
			}
			if err != nil {
				return err
			}
			c.Set(UserKey, u)

			return next(c)
		}
	}
}

// CurrentUser returns the identity placed on the context by LoadUser or
// APIKey, or nil when the request is anonymous.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(UserKey).(*domain.User)
	return u
}
