package middleware

import (
	"net/http"
	"strings"

	"sandhai/internal/repository"
	"sandhai/internal/utils"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware authenticates requests by bearer token. The token's
// subject is the user's email; the account must still exist.
type AuthMiddleware struct {
	JWT   *utils.JWTManager
	Users repository.UserRepository
}

func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.JWT == nil || m.Users == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		token := extractBearerToken(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		claims, err := m.JWT.ParseAccessToken(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		user, err := m.Users.FindByEmail(c.Request().Context(), claims.Email())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if user == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		SetCurrentUser(c, user)
		return next(c)
	}
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
