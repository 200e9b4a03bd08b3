package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/veriauth/veriauth/pkg/mail"

	apperrors "github.com/veriauth/veriauth/pkg/errors"
)

// confirmationLink builds the link embedded in confirmation emails.
func confirmationLink(baseURL, action, token string) string {
	return fmt.Sprintf("%s/api/auth/%s/%s", strings.TrimRight(baseURL, "/"), action, token)
}

// deliver sends a plain-text email to a single recipient. A disabled mailer is
// treated as a no-op; real delivery failures surface as server errors even
// though the pending action is already persisted (the user can retrigger the
// request, which reissues a fresh token).
func deliver(ctx context.Context, mailer mail.Mailer, to, subject, body string) error {
	if mailer == nil {
		return nil
	}

	err := mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		return apperrors.Wrap(err, "Failed to send email")
	}
	return nil
}
