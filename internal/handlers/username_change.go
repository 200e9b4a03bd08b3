package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/veriauth/veriauth/internal/services"
	"github.com/veriauth/veriauth/pkg/response"
)

// UsernameChangeHandler serves the username-change request and confirmation.
type UsernameChangeHandler struct {
	usernames *services.UsernameChangeService
}

func NewUsernameChangeHandler(usernames *services.UsernameChangeService) *UsernameChangeHandler {
	return &UsernameChangeHandler{usernames: usernames}
}

type usernameChangeRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewUsername string `json:"newUsername" validate:"required,min=3,max=50"`
}

// POST /api/auth/request-username-change
func (h *UsernameChangeHandler) Request(c *gin.Context) {
	var req usernameChangeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.usernames.Request(requestContext(c), req.Email, req.NewUsername); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Username change verification link sent to your email")
}

// GET /api/auth/confirm-username/:token
func (h *UsernameChangeHandler) Confirm(c *gin.Context) {
	if err := h.usernames.Confirm(requestContext(c), c.Param("token")); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Username updated successfully")
}
