package emails

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Sender delivers transactional notifications. Failures are reported to the caller,
// which logs them; no flow is blocked on mail delivery.
type Sender interface {
	SendOrgRequestApproved(ctx context.Context, toEmail, orgName string) error
	SendOrgRequestRejected(ctx context.Context, toEmail, orgName, comment string) error
	SendPasswordReset(ctx context.Context, toEmail, resetLink string) error
}

// LogSender records the intent to notify without delivering anything.
// Used when SENDGRID_API_KEY is not configured.
type LogSender struct{}

func (LogSender) SendOrgRequestApproved(ctx context.Context, toEmail, orgName string) error {
	log.Info().Str("to", toEmail).Str("org_name", orgName).Msg("notify: organization request approved")
	return nil
}

func (LogSender) SendOrgRequestRejected(ctx context.Context, toEmail, orgName, comment string) error {
	log.Info().Str("to", toEmail).Str("org_name", orgName).Str("comment", comment).Msg("notify: organization request rejected")
	return nil
}

func (LogSender) SendPasswordReset(ctx context.Context, toEmail, resetLink string) error {
	log.Info().Str("to", toEmail).Msg("notify: password reset requested")
	return nil
}
