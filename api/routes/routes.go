package routes

import (
	"net/http"

	"sandhai/api/handler"
	"sandhai/api/middleware"

	"github.com/labstack/echo/v4"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Products       *handler.ProductHandler
	Templates      *handler.TemplateHandler
	AuthMiddleware middleware.AuthMiddleware
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	templateHandler *handler.TemplateHandler,
	authMiddleware middleware.AuthMiddleware,
) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Products:       productHandler,
		Templates:      templateHandler,
		AuthMiddleware: authMiddleware,
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "Sandhai Marketplace API",
			"version": "1.0.0",
			"status":  "running",
		})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	e.POST("/api/auth/signup", r.Auth.Signup)
	e.POST("/api/auth/login", r.Auth.Login)
	e.POST("/api/auth/verify-otp", r.Auth.VerifyOTP)
	e.POST("/api/auth/resend-otp", r.Auth.ResendOTP)
	e.POST("/api/auth/google", r.Auth.GoogleAuth)
	e.GET("/api/auth/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)

	e.GET("/api/products", r.Products.ListAll)
	e.GET("/api/products/my", r.Products.ListMine, r.AuthMiddleware.RequireAuth)
	e.POST("/api/products", r.Products.Create, r.AuthMiddleware.RequireAuth)
	e.PUT("/api/products/:id", r.Products.Update, r.AuthMiddleware.RequireAuth)
	e.DELETE("/api/products/:id", r.Products.Delete, r.AuthMiddleware.RequireAuth)

	e.GET("/templates/status", r.Templates.Status)
	e.POST("/templates/sync", r.Templates.TriggerSync)
	e.GET("/templates/files", r.Templates.ListFiles)
	e.GET("/templates/content", r.Templates.FileContent)
}
