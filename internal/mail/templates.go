package mail

import (
	"fmt"
	"net/url"
)

const (
	TemplateOTP           = "otp"
	TemplatePasswordReset = "password_reset"
)

func OTPMessage(to, code string) Message {
	return Message{
		To:       to,
		Subject:  "Your verification code",
		Body:     fmt.Sprintf("Your verification code is %s.\n\nIt expires in 5 minutes. If you did not request it, you can ignore this email.", code),
		Template: TemplateOTP,
	}
}

// ResetLink builds <frontendURL>reset-your-password?token=...&email=...
func ResetLink(frontendURL, token, email string) string {
	return frontendURL + "reset-your-password?token=" + url.QueryEscape(token) + "&email=" + url.QueryEscape(email)
}

func PasswordResetMessage(to, username, link string) Message {
	return Message{
		To:      to,
		Subject: "Password Reset Request",
		Body: fmt.Sprintf("Hi %s,\n\nClick the link below to reset your password:\n\n%s\n\nIf you didn't request this, please ignore this email.",
			username, link),
		Template: TemplatePasswordReset,
	}
}
