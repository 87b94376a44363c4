package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sandhai/api/handler"
	apiMiddleware "sandhai/api/middleware"
	"sandhai/api/routes"
	"sandhai/config"
	"sandhai/internal/entity"
	"sandhai/internal/repository"
	"sandhai/internal/service"
	"sandhai/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	db, err := cfg.OpenDB()
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.OTP{},
		&entity.Product{},
		&entity.AuthEvent{},
	); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	validate := validator.New()

	jwtManager := utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		Method:         utils.SigningMethodFromName(cfg.JWTAlgorithm),
		AccessTokenTTL: cfg.AccessTokenTTL,
	}

	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	authEventRepo := repository.NewAuthEventRepository(db)
	productRepo := repository.NewProductRepository(db)

	mailer := &service.SMTPOTPMailer{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUser,
		Password:  cfg.SMTPPassword,
		From:      cfg.FromEmail,
		OTPExpiry: cfg.OTPExpiry,
		Log:       logger,
	}

	authService := service.NewAuthService(
		userRepo,
		otpRepo,
		authEventRepo,
		mailer,
		service.BcryptPasswordHasher{},
		service.JWTAccessIssuer{Manager: &jwtManager},
		service.NewGoogleTokenVerifier(cfg.GoogleClientID),
		service.RealClock{},
		logger,
		service.AuthConfig{OTPExpiry: cfg.OTPExpiry},
	)
	productService := service.NewProductService(productRepo)
	templateService := service.NewTemplateSyncService(service.TemplateSyncConfig{
		Owner:    cfg.TemplateRepoOwner,
		Repo:     cfg.TemplateRepoName,
		Branch:   cfg.TemplateRepoBranch,
		CacheDir: cfg.TemplateCacheDir,
		Token:    cfg.GitHubToken,
	}, logger)

	authHandler := handler.NewAuthHandler(authService, validate)
	productHandler := handler.NewProductHandler(productService, validate)
	templateHandler := handler.NewTemplateHandler(templateService, logger)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &jwtManager, Users: userRepo}
	router := routes.NewRouter(app, authHandler, productHandler, templateHandler, authMiddleware)
	router.RegisterRoutes()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TemplateRepoOwner != "" && cfg.TemplateRepoName != "" {
		go templateService.RunScheduler(ctx)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
	logger.Info("server stopped")
}
