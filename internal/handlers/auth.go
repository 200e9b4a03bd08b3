package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/veriauth/veriauth/internal/auth"
	"github.com/veriauth/veriauth/internal/services"
	"github.com/veriauth/veriauth/pkg/errors"
	"github.com/veriauth/veriauth/pkg/metrics"
	"github.com/veriauth/veriauth/pkg/response"
)

// AuthHandler serves signup, email verification, login, and profile lookup.
type AuthHandler struct {
	accounts *services.AccountService
	jwt      *iauth.JWTService
}

func NewAuthHandler(accounts *services.AccountService, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{accounts: accounts, jwt: jwt}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	_, err := h.accounts.Signup(requestContext(c), services.SignupInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.Signups.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.Signups.WithLabelValues("success").Inc()
	response.Message(c, "Signup successful. Check your email to verify your account.")
}

// GET /api/auth/verify-email/:token
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := h.accounts.VerifyEmail(requestContext(c), c.Param("token")); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Email verified successfully")
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	account, err := h.accounts.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	token, err := h.jwt.IssueSessionToken(account.ID)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, gin.H{"token": token})
}

// GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	account, err := h.accounts.Profile(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":         account.ID,
		"name":       account.Name,
		"username":   account.Username,
		"email":      account.Email,
		"created_at": account.CreatedAt,
	})
}
