package handler

import (
	"errors"
	"net/http"
	"strings"

	"sandhai/api/middleware"
	"sandhai/internal/dto"
	"sandhai/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		Service:  svc,
		Validate: validate,
	}
}

// Signup creates the account. No token: the caller must log in and pass
// OTP verification before getting one.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req dto.SignupRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	user, err := h.Service.Signup(c.Request().Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.SignupResponse{
		Message: "Account created successfully. Please login to continue.",
		Email:   user.Email,
	})
}

// Login accepts OAuth2-style form credentials and, on success, emails a
// one-time code instead of returning a token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	result, err := h.Service.Login(c.Request().Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: stringPtr(c.RealIP()),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.LoginResponse{
		Message:     result.Message,
		Email:       result.Email,
		RequiresOTP: result.RequiresOTP,
	})
}

func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req dto.OTPVerifyRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	result, err := h.Service.VerifyOTP(c.Request().Context(), req.Email, req.OTPCode)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		User:        dto.UserResponseFromEntity(result.User),
	})
}

func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req dto.OTPResendRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	result, err := h.Service.ResendOTP(c.Request().Context(), req.Email)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.LoginResponse{
		Message:     result.Message,
		Email:       result.Email,
		RequiresOTP: result.RequiresOTP,
	})
}

// GoogleAuth exchanges a verified Google ID token for an access token
// directly, with no OTP step.
func (h *AuthHandler) GoogleAuth(c echo.Context) error {
	var req dto.GoogleAuthRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	result, err := h.Service.LoginWithGoogle(c.Request().Context(), req.Credential, stringPtr(c.RealIP()))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		User:        dto.UserResponseFromEntity(result.User),
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
