package emails

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailClient is the subset of the SendGrid client used here.
type MailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridClient sends notifications through SendGrid.
type SendGridClient struct {
	APIKey   string
	MailFrom string
	FromName string
	Client   MailClient
}

func NewSendGridClient(apiKey, mailFrom string) *SendGridClient {
	return &SendGridClient{
		APIKey:   apiKey,
		MailFrom: mailFrom,
		FromName: "ServiceLoop",
		Client:   sendgrid.NewSendClient(apiKey),
	}
}

func (c *SendGridClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@serviceloop.org"
}

func (c *SendGridClient) send(ctx context.Context, toEmail, subject, plain, html string) error {
	if c.APIKey == "" || toEmail == "" {
		return nil
	}
	msg := mail.NewSingleEmail(
		mail.NewEmail(c.FromName, c.from()),
		subject,
		mail.NewEmail("", toEmail),
		plain,
		EmailLayout(html),
	)
	resp, err := c.Client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *SendGridClient) SendOrgRequestApproved(ctx context.Context, toEmail, orgName string) error {
	plain, html := approvedContent(orgName)
	return c.send(ctx, toEmail, "Your organization "+orgName+" is live on ServiceLoop", plain, html)
}

func (c *SendGridClient) SendOrgRequestRejected(ctx context.Context, toEmail, orgName, comment string) error {
	plain, html := rejectedContent(orgName, comment)
	return c.send(ctx, toEmail, "Update on your ServiceLoop organization request", plain, html)
}

func (c *SendGridClient) SendPasswordReset(ctx context.Context, toEmail, resetLink string) error {
	plain, html := passwordResetContent(resetLink)
	return c.send(ctx, toEmail, "Reset your ServiceLoop password", plain, html)
}
