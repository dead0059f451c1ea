package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/shop-api-nosql/internal/config"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// VerificationEmailBody renders the signup verification code email.
func VerificationEmailBody(code string, validityMinutes int) (subject, body string) {
	subject = "Your Email Verification Code"
	body = fmt.Sprintf(
		"Hello,\n\nYour code for email verification is: %s\n\nThis code is valid for %d minute%s. "+
			"Please do not share this code with anyone.\n\nThank you for using our service!",
		code, validityMinutes, plural(validityMinutes))
	return subject, body
}

// PasswordResetEmailBody renders the password reset code email.
func PasswordResetEmailBody(code string, validityMinutes int) (subject, body string) {
	subject = "Your Password Reset Code"
	body = fmt.Sprintf(
		"Hello,\n\nYour code for password reset is: %s\n\nThis code is valid for %d minute%s. "+
			"If you did not request a password reset, please ignore this email.\n\nThank you!",
		code, validityMinutes, plural(validityMinutes))
	return subject, body
}

// KYCSubmittedEmailBody renders the driver KYC submission acknowledgement.
func KYCSubmittedEmailBody() (subject, body string) {
	subject = "Driver KYC Application Submitted"
	body = "Dear Driver,\n\nThank you for submitting your KYC details. Our admin team is currently " +
		"reviewing your application.\n\nYou will be notified once the review process is complete.\n\n" +
		"Thank you for using our platform!"
	return subject, body
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
