package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"sandhai/internal/service"

	"github.com/labstack/echo/v4"
)

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"detail": err.Error()})
}

func writeServiceError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrGoogleOnlyAccount),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrMissingEmail):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidGoogleToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotProductOwner):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrProductNotFound):
		status = http.StatusNotFound
	}
	return writeError(c, status, err)
}
