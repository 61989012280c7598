package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/models"
)

func TestNotificationService_SendPasswordResetEmail(t *testing.T) {
	ctx := context.Background()
	mailer := &mockMailer{}
	svc := NewNotificationService(mailer, "http://shop.local")
	user := &models.User{Name: "Ann", Email: "ann@example.com"}

	mailer.On("Send", ctx, "ann@example.com", "Ecommerce Password Recovery",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "http://shop.local/password/reset/tok123") &&
				strings.Contains(body, "Hello Ann")
		})).Return(nil)

	assert.NoError(t, svc.SendPasswordResetEmail(ctx, user, "tok123"))
	mailer.AssertExpectations(t)
}

func TestNotificationService_MailerFailure(t *testing.T) {
	mailer := &mockMailer{}
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := NewNotificationService(mailer, "http://shop.local")
	err := svc.SendPasswordResetEmail(context.Background(), &models.User{Email: "a@b.c"}, "t")
	assert.EqualError(t, err, "smtp down")
}

func TestNewMailer(t *testing.T) {
	assert.IsType(t, LogMailer{}, NewMailer(config.EmailConfig{}))
	assert.IsType(t, &SMTPMailer{}, NewMailer(config.EmailConfig{SMTPHost: "smtp.example.com"}))
	assert.NoError(t, LogMailer{}.Send(context.Background(), "a@b.c", "hi", "<p>hi</p>"))
}
