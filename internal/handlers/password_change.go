package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veriauth/veriauth/internal/services"
	"github.com/veriauth/veriauth/pkg/errors"
	"github.com/veriauth/veriauth/pkg/response"
)

// PasswordChangeHandler serves the password-change request and both confirm variants.
type PasswordChangeHandler struct {
	passwords *services.PasswordChangeService
}

func NewPasswordChangeHandler(passwords *services.PasswordChangeService) *PasswordChangeHandler {
	return &PasswordChangeHandler{passwords: passwords}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

// POST /api/auth/change-password
func (h *PasswordChangeHandler) Request(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.passwords.Request(requestContext(c), id, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Password change request sent. Check your email to confirm.")
}

// GET /api/auth/verify-password-change/:token
//
// Answered in plain text since the link is opened directly in a browser.
func (h *PasswordChangeHandler) ConfirmFromLink(c *gin.Context) {
	if err := h.passwords.ConfirmFromLink(requestContext(c), c.Param("token")); err != nil {
		c.String(http.StatusBadRequest, "Invalid token or no pending password change.")
		return
	}

	c.String(http.StatusOK, "Password updated successfully!")
}

type confirmPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

// POST /api/auth/verify-password-change/:token
func (h *PasswordChangeHandler) ConfirmWithPassword(c *gin.Context) {
	var req confirmPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.passwords.ConfirmWithPassword(requestContext(c), c.Param("token"), req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Password updated successfully!")
}
