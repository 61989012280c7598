// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/models"
)

// Mailer delivers one HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SMTPMailer struct {
	cfg config.EmailConfig
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromEmail, to, subject, htmlBody,
	))

	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)
	return smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, msg)
}

// LogMailer stands in when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not configured, message dropped")
	return nil
}

func NewMailer(cfg config.EmailConfig) Mailer {
	if cfg.SMTPHost == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

type NotificationService struct {
	mailer      Mailer
	frontendURL string
}

func NewNotificationService(mailer Mailer, frontendURL string) *NotificationService {
	return &NotificationService{
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

const passwordResetTemplate = `
<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.Name}},</p>
	<p>Your password reset link is below. It expires in {{.ExpiresIn}}.</p>
	<p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
	<p>If you have not requested this email then, please ignore it.</p>
</body>
</html>`

func (s *NotificationService) PasswordResetURL(token string) string {
	return fmt.Sprintf("%s/password/reset/%s", s.frontendURL, token)
}

func (s *NotificationService) SendPasswordResetEmail(ctx context.Context, user *models.User, token string) error {
	body, err := s.renderTemplate(passwordResetTemplate, map[string]interface{}{
		"Name":      user.Name,
		"ResetURL":  s.PasswordResetURL(token),
		"ExpiresIn": models.ResetPasswordTTL.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.mailer.Send(ctx, user.Email, "Ecommerce Password Recovery", body)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
