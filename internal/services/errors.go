package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/veriauth/veriauth/pkg/errors"
)

var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = apperrors.New("ACCOUNT_NOT_FOUND", "Account not found", http.StatusNotFound)
	// ErrAccountExists signals a username or email uniqueness violation at signup.
	ErrAccountExists = apperrors.New("ACCOUNT_EXISTS", "Username or email already taken", http.StatusBadRequest)
	// ErrInvalidCredentials deliberately does not say which part of the login failed.
	ErrInvalidCredentials = apperrors.New("INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized)
	// ErrEmailNotVerified is the one auth failure with its own message.
	ErrEmailNotVerified = apperrors.New("EMAIL_NOT_VERIFIED", "Please verify your email first", http.StatusUnauthorized)
	// ErrInvalidToken covers absent, mismatched, and expired confirmation tokens alike.
	ErrInvalidToken = apperrors.New("TOKEN_INVALID", "Invalid or expired token", http.StatusBadRequest)
	// ErrUsernameTaken rejects a username-change candidate already in use.
	ErrUsernameTaken = apperrors.New("USERNAME_TAKEN", "Username already taken, please choose a different one", http.StatusBadRequest)
	// ErrUsernameUnchanged rejects a no-op username change.
	ErrUsernameUnchanged = apperrors.New("USERNAME_UNCHANGED", "New username is the same as the current username", http.StatusBadRequest)
	// ErrCurrentPasswordIncorrect rejects a password-change request without side effects.
	ErrCurrentPasswordIncorrect = apperrors.New("CURRENT_PASSWORD_INCORRECT", "Current password is incorrect", http.StatusBadRequest)
)

// isUniqueConstraintError detects uniqueness violations across database vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}
