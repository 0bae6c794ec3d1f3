package notify

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary  = "#E07A2E"
	themeTextMain = "#1F2937"
	themeMuted    = "#6B7280"
	themeBgBody   = "#FFF7F0"
	themeWhite    = "#FFFFFF"
)

// emailLayout wraps content in the shared branded HTML shell.
func emailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>PetAdopt</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content h1 { font-size: 24px; margin: 0 0 20px 0; }
    .button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 32px; border-radius: 24px; font-weight: 600; text-decoration: none; }
    .footer { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0" style="background-color: %s;">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="width: 600px; background-color: %s; border-radius: 12px;">
          <tr><td class="content" style="padding: 40px 48px 24px 48px;">%s</td></tr>
          <tr><td class="footer" align="center" style="padding: 0 48px 32px 48px;">© %d PetAdopt. Every pet deserves a home.</td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		themeBgBody, themeTextMain, themePrimary, themeMuted, themeBgBody, themeWhite, contentHTML, time.Now().Year())
}

func welcomeContent(name string) string {
	return fmt.Sprintf(`
    <h1>Welcome, %s!</h1>
    <p>Your PetAdopt account is ready. Browse dogs, cats, rabbits and birds near you, save the ones you love and list a pet that needs a new home.</p>
    <center><a href="https://petadopt.app/" class="button">Find your new friend</a></center>
    <p style="margin-top: 20px; font-size: 14px;">If you did not create this account you can ignore this email.</p>
`, html.EscapeString(name))
}

func otpContent(code string) string {
	return fmt.Sprintf("Your PetAdopt verification code is %s. It expires in 5 minutes.", code)
}
