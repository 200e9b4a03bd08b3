package api

import (
	"github.com/gin-gonic/gin"

	"github.com/veriauth/veriauth/internal/handlers"
)

type authRouteDeps struct {
	Auth      *handlers.AuthHandler
	Passwords *handlers.PasswordChangeHandler
	Usernames *handlers.UsernameChangeHandler
	Deletions *handlers.AccountDeletionHandler
}

func registerAuthRoutes(engine *gin.Engine, requireAuth gin.HandlerFunc, deps authRouteDeps) {
	auth := engine.Group("/api/auth")

	// Public routes: signup, login, and the emailed confirmation links.
	{
		auth.POST("/signup", deps.Auth.Signup)
		auth.POST("/login", deps.Auth.Login)
		auth.GET("/verify-email/:token", deps.Auth.VerifyEmail)
		auth.GET("/verify-password-change/:token", deps.Passwords.ConfirmFromLink)
		auth.POST("/verify-password-change/:token", deps.Passwords.ConfirmWithPassword)
		auth.GET("/confirm-username/:token", deps.Usernames.Confirm)
		auth.GET("/confirm-delete/:token", deps.Deletions.Confirm)
	}

	// Session-gated routes.
	protected := auth.Group("")
	protected.Use(requireAuth)
	{
		protected.GET("/profile", deps.Auth.Profile)
		protected.POST("/change-password", deps.Passwords.Request)
		protected.POST("/request-username-change", deps.Usernames.Request)
		protected.POST("/delete-account", deps.Deletions.Request)
	}
}
