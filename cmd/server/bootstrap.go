package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veriauth/veriauth/internal/api"
	"github.com/veriauth/veriauth/internal/app"
	"github.com/veriauth/veriauth/internal/app/maintenance"
	iauth "github.com/veriauth/veriauth/internal/auth"
	"github.com/veriauth/veriauth/internal/database"
	"github.com/veriauth/veriauth/internal/pending"
	"github.com/veriauth/veriauth/pkg/mail"
)

// runtimeStack bundles long-lived components used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime initialises the database, mailer, services, and the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database.DatabaseServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	tokens, err := pending.NewManager(db, cfg.Auth.PendingManagerOptions()...)
	if err != nil {
		return nil, fmt.Errorf("initialise token manager: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}
	if !cfg.Email.SMTP.Enabled {
		log.Warn("smtp delivery disabled; confirmation emails will not be sent")
	}

	cleaner := maintenance.NewCleaner(tokens)
	if err := cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	router, err := api.NewRouter(db, jwtSvc, tokens, mailer, cfg)
	if err != nil {
		cleaner.Stop()
		return nil, fmt.Errorf("build api router: %w", err)
	}

	return &runtimeStack{
		DB:      db,
		Cleaner: cleaner,
		Router:  router,
	}, nil
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if err := s.Cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("database shutdown", zap.Error(err))
			}
		}
	}
}
