package mail

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"github.com/snapbooth/identity/config"
)

// SMTPMailer delivers account emails over SMTP.
type SMTPMailer struct {
	dialer          *gomail.Dialer
	from            string
	appURL          string
	verificationTTL time.Duration
	resetTTL        time.Duration
}

func NewSMTPMailer(cfg config.SMTPConfig, appURL string, verificationTTL, resetTTL time.Duration) *SMTPMailer {
	return &SMTPMailer{
		dialer:          gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:            cfg.From,
		appURL:          appURL,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
	}
}

func (m *SMTPMailer) SendVerificationCode(to, username, code string) error {
	subject := "Verify your Snapbooth account"
	body := verificationBody(username, code, m.verificationTTL)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) SendResetLink(to, username, token string) error {
	subject := "Reset your Snapbooth password"
	body := resetBody(username, m.appURL, token, m.resetTTL)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func verificationBody(username, code string, ttl time.Duration) string {
	return fmt.Sprintf(
		"Hi %s,\n\n"+
			"Thank you for registering with Snapbooth!\n\n"+
			"Your verification code is: %s\n\n"+
			"This code will expire in %d hours.\n\n"+
			"If you didn't create this account, please ignore this email.\n\n"+
			"Best regards,\n"+
			"The Snapbooth Team",
		username, code, int(ttl.Hours()),
	)
}

func resetBody(username, appURL, token string, ttl time.Duration) string {
	resetLink := appURL + "/reset-password?token=" + token
	return fmt.Sprintf(
		"Hi %s,\n\n"+
			"You requested to reset your password for Snapbooth.\n\n"+
			"Click the link below to reset your password:\n"+
			"%s\n\n"+
			"This link will expire in %d hour(s).\n\n"+
			"If you didn't request this, please ignore this email.\n\n"+
			"Best regards,\n"+
			"The Snapbooth Team",
		username, resetLink, int(ttl.Hours()),
	)
}

// NopMailer is used in deployments without SMTP and in tests. Sends are
// logged at debug level and reported as successful.
type NopMailer struct{}

func (NopMailer) SendVerificationCode(to, username, code string) error {
	logrus.WithFields(logrus.Fields{"email": to, "username": username}).Debug("Verification email suppressed (SMTP disabled)")
	return nil
}

func (NopMailer) SendResetLink(to, username, token string) error {
	logrus.WithFields(logrus.Fields{"email": to, "username": username}).Debug("Password reset email suppressed (SMTP disabled)")
	return nil
}
