package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/veriauth/veriauth/internal/app"
	iauth "github.com/veriauth/veriauth/internal/auth"
	"github.com/veriauth/veriauth/internal/handlers"
	"github.com/veriauth/veriauth/internal/middleware"
	"github.com/veriauth/veriauth/internal/pending"
	"github.com/veriauth/veriauth/internal/services"
	"github.com/veriauth/veriauth/pkg/mail"
)

// NewRouter builds the Gin engine, wires middleware, and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, tokens *pending.Manager, mailer mail.Mailer, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token manager must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	baseURL := cfg.Server.ExternalURL

	accountSvc, err := services.NewAccountService(db, tokens, mailer, baseURL)
	if err != nil {
		return nil, err
	}
	passwordSvc, err := services.NewPasswordChangeService(db, tokens, mailer, baseURL)
	if err != nil {
		return nil, err
	}
	usernameSvc, err := services.NewUsernameChangeService(db, tokens, mailer, baseURL)
	if err != nil {
		return nil, err
	}
	deletionSvc, err := services.NewAccountDeletionService(db, tokens, mailer, baseURL)
	if err != nil {
		return nil, err
	}

	deps := authRouteDeps{
		Auth:      handlers.NewAuthHandler(accountSvc, jwt),
		Passwords: handlers.NewPasswordChangeHandler(passwordSvc),
		Usernames: handlers.NewUsernameChangeHandler(usernameSvc),
		Deletions: handlers.NewAccountDeletionHandler(deletionSvc),
	}
	registerAuthRoutes(r, middleware.Auth(jwt), deps)

	return r, nil
}
