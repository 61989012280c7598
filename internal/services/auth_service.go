// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/utils"
)

type AuthService struct {
	db       *gorm.DB
	tokens   *utils.TokenManager
	images   ImageStore
	notifier *NotificationService
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=4,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Avatar   string `json:"avatar,omitempty" validate:"omitempty,datauri"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type UpdatePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// AuthResult is a user together with a freshly issued access token.
type AuthResult struct {
	User  *models.User
	Token string
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenManager, images ImageStore, notifier *NotificationService) *AuthService {
	return &AuthService{
		db:       db,
		tokens:   tokens,
		images:   images,
		notifier: notifier,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("database error: %w", err))
	}
	if count > 0 {
		return nil, utils.Conflict(i18n.KeyAuthEmailExists, req.Email)
	}

	user := &models.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  models.RoleUser,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	if req.Avatar != "" {
		avatar, err := s.images.Upload(ctx, req.Avatar, FolderAvatars)
		if err != nil {
			return nil, err
		}
		user.Avatar = avatar
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if user.Avatar.PublicID != "" {
			if destroyErr := s.images.Destroy(ctx, user.Avatar.PublicID); destroyErr != nil {
				logrus.WithError(destroyErr).Warn("Failed to release avatar of unsaved user")
			}
		}
		if isUniqueViolation(err) {
			return nil, utils.Conflict(i18n.KeyAuthEmailExists, req.Email)
		}
		return nil, utils.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, utils.Validation(i18n.KeyValidationRequired, "email and password")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Unauthorized(i18n.KeyAuthInvalidCredentials)
		}
		return nil, utils.Internal(fmt.Errorf("database error: %w", err))
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, utils.Unauthorized(i18n.KeyAuthInvalidCredentials)
	}

	return s.issue(&user)
}

// ForgotPassword stores a reset token and mails the raw token to the user.
// When the mail cannot be sent the token is cleared again.
func (s *AuthService) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateStruct(req); err != nil {
		return utils.InvalidInput(err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(i18n.KeyUserNotFound, req.Email)
		}
		return utils.Internal(fmt.Errorf("database error: %w", err))
	}

	token, err := user.GenerateResetPasswordToken(time.Now())
	if err != nil {
		return utils.Internal(fmt.Errorf("failed to generate reset token: %w", err))
	}
	if err := s.saveResetToken(ctx, &user); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordResetEmail(ctx, &user, token); err != nil {
		user.ClearResetPasswordToken()
		if clearErr := s.saveResetToken(ctx, &user); clearErr != nil {
			logrus.WithError(clearErr).WithField("user_id", user.ID).Error("Failed to clear reset token")
		}
		return utils.Upstream(i18n.KeyEmailSendFailed, err)
	}

	logrus.WithField("user_id", user.ID).Info("Password reset email sent")
	return nil
}

func (s *AuthService) saveResetToken(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Model(user).
		Select("reset_password_token", "reset_password_expire").
		Updates(map[string]interface{}{
			"reset_password_token":  user.ResetPasswordToken,
			"reset_password_expire": user.ResetPasswordExpire,
		}).Error
	if err != nil {
		return utils.Internal(fmt.Errorf("failed to save reset token: %w", err))
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token string, req *ResetPasswordRequest) (*AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expire > ?", utils.SHA256Hex(token), time.Now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Validation(i18n.KeyAuthResetTokenInvalid)
		}
		return nil, utils.Internal(fmt.Errorf("database error: %w", err))
	}

	if req.Password != req.ConfirmPassword {
		return nil, utils.Validation(i18n.KeyAuthPasswordMismatch)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	user.ClearResetPasswordToken()

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to update password: %w", err))
	}

	return s.issue(&user)
}

func (s *AuthService) UpdatePassword(ctx context.Context, actor Actor, req *UpdatePasswordRequest) (*AuthResult, error) {
	id, err := parseUUID(actor.ID)
	if err != nil {
		return nil, err
	}
	user, err := findUser(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	if err := user.CheckPassword(req.OldPassword); err != nil {
		return nil, utils.Validation(i18n.KeyAuthOldPasswordWrong)
	}
	if req.NewPassword != req.ConfirmPassword {
		return nil, utils.Validation(i18n.KeyAuthPasswordMismatch)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", user.PasswordHash).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to update password: %w", err))
	}

	return s.issue(user)
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID, user.Name, string(user.Role))
	if err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to generate access token: %w", err))
	}
	return &AuthResult{User: user, Token: token}, nil
}
