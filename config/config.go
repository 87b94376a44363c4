package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config is the whole process configuration, loaded once at startup and
// handed to each component by injection. Nothing reads the environment
// after Load returns.
type Config struct {
	DatabaseURL string
	HTTPAddr    string

	JWTSecret      string
	JWTAlgorithm   string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	CORSOrigins []string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string

	GoogleClientID     string
	GoogleClientSecret string

	OTPExpiry time.Duration

	TemplateRepoOwner  string
	TemplateRepoName   string
	TemplateRepoBranch string
	TemplateCacheDir   string
	GitHubToken        string
}

func Load() (*Config, error) {
	// Missing .env is fine in production; variables come from the host.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTAlgorithm:       envOr("JWT_ALGORITHM", "HS256"),
		JWTIssuer:          os.Getenv("JWT_ISSUER"),
		AccessTokenTTL:     time.Duration(envIntOr("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*7)) * time.Minute,
		SMTPHost:           envOr("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           envIntOr("SMTP_PORT", 587),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		FromEmail:          os.Getenv("FROM_EMAIL"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		OTPExpiry:          time.Duration(envIntOr("OTP_EXPIRE_MINUTES", 5)) * time.Minute,
		TemplateRepoOwner:  os.Getenv("TEMPLATE_REPO_OWNER"),
		TemplateRepoName:   os.Getenv("TEMPLATE_REPO_NAME"),
		TemplateRepoBranch: envOr("TEMPLATE_REPO_BRANCH", "main"),
		TemplateCacheDir:   envOr("TEMPLATE_CACHE_DIR", "template_cache"),
		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	} else {
		cfg.CORSOrigins = []string{"http://localhost:5173"}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// OpenDB connects to Postgres with the configured DSN.
func (c *Config) OpenDB() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  c.DatabaseURL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func envOr(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
