package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/veriauth/veriauth/internal/services"
	"github.com/veriauth/veriauth/pkg/errors"
	"github.com/veriauth/veriauth/pkg/response"
)

// AccountDeletionHandler serves the deletion request and confirmation.
type AccountDeletionHandler struct {
	deletions *services.AccountDeletionService
}

func NewAccountDeletionHandler(deletions *services.AccountDeletionService) *AccountDeletionHandler {
	return &AccountDeletionHandler{deletions: deletions}
}

// POST /api/auth/delete-account
func (h *AccountDeletionHandler) Request(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.deletions.Request(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Deletion verification email sent. Check your inbox.")
}

// GET /api/auth/confirm-delete/:token
func (h *AccountDeletionHandler) Confirm(c *gin.Context) {
	if err := h.deletions.Confirm(requestContext(c), c.Param("token")); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Account permanently deleted")
}
