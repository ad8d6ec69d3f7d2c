package emails

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary = "#2563EB"
	themeText    = "#1F2937"
	themeMuted   = "#6B7280"
	themeBg      = "#F3F4F6"
)

// EmailLayout wraps content in the ServiceLoop mail frame.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>ServiceLoop</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content h1 { font-size: 22px; margin: 0 0 18px 0; }
    .button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 28px; border-radius: 6px; text-decoration: none; font-weight: 600; }
    .footer { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0" style="background-color: %s;">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: #ffffff; border-radius: 8px;">
          <tr><td class="content" style="padding: 40px 48px 24px 48px;">%s</td></tr>
          <tr><td class="footer" align="center" style="padding: 0 48px 32px 48px;">© %d ServiceLoop. Connecting volunteers with the causes they care about.</td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, themeBg, themeText, themePrimary, themeMuted, themeBg, contentHTML, time.Now().Year())
}

func approvedContent(orgName string) (string, string) {
	plain := fmt.Sprintf("Good news! Your request to create %s on ServiceLoop was approved. You are now an administrator of the organization.", orgName)
	body := fmt.Sprintf(`
    <h1>%s is live!</h1>
    <p>Your request to create <strong>%s</strong> on ServiceLoop was approved.</p>
    <p>You are now an administrator of the organization and can post events, manage members and update its details.</p>`,
		html.EscapeString(orgName), html.EscapeString(orgName))
	return plain, body
}

func rejectedContent(orgName, comment string) (string, string) {
	plain := fmt.Sprintf("Your request to create %s on ServiceLoop was not approved.", orgName)
	body := fmt.Sprintf(`
    <h1>About your organization request</h1>
    <p>Your request to create <strong>%s</strong> on ServiceLoop was not approved.</p>`, html.EscapeString(orgName))
	if comment != "" {
		plain += " Reviewer comment: " + comment
		body += fmt.Sprintf(`
    <p><strong>Reviewer comment:</strong> %s</p>`, html.EscapeString(comment))
	}
	return plain, body
}

func passwordResetContent(link string) (string, string) {
	plain := "Reset your ServiceLoop password: " + link + " (the link expires in one hour)"
	body := fmt.Sprintf(`
    <h1>Reset your password</h1>
    <p>We received a request to reset your ServiceLoop password. The link below expires in one hour.</p>
    <p><a href="%s" class="button">Choose a new password</a></p>
    <p>If you did not ask for this, you can ignore this email.</p>`, html.EscapeString(link))
	return plain, body
}
