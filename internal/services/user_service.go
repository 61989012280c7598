// internal/services/user_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/utils"
)

type UserService struct {
	db     *gorm.DB
	images ImageStore
}

type UpdateProfileRequest struct {
	Name   string `json:"name" validate:"required,min=4,max=30"`
	Email  string `json:"email" validate:"required,email"`
	Avatar string `json:"avatar,omitempty" validate:"omitempty,datauri"`
}

type UpdateUserRequest struct {
	Name  string      `json:"name" validate:"required,min=4,max=30"`
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role" validate:"required,oneof=user admin"`
}

func NewUserService(db *gorm.DB, images ImageStore) *UserService {
	return &UserService{
		db:     db,
		images: images,
	}
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	userID, err := parseUUID(id)
	if err != nil {
		return nil, err
	}
	return findUser(s.db.WithContext(ctx), userID)
}

// UpdateProfile changes name and email. A new avatar replaces the old one:
// the old image is destroyed first and nothing is rolled back if the
// upload then fails.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, req *UpdateProfileRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}

	user, err := s.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Email = req.Email

	if req.Avatar != "" {
		if err := s.images.Destroy(ctx, user.Avatar.PublicID); err != nil {
			return nil, err
		}
		avatar, err := s.images.Upload(ctx, req.Avatar, FolderAvatars)
		if err != nil {
			return nil, err
		}
		user.Avatar = avatar
	}

	if err := s.db.WithContext(ctx).Model(user).
		Select("name", "email", "avatar_public_id", "avatar_url").
		Updates(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, utils.Conflict(i18n.KeyAuthEmailExists, req.Email)
		}
		return nil, utils.Internal(fmt.Errorf("failed to update profile: %w", err))
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, page utils.PageRequest) ([]models.User, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, utils.Internal(fmt.Errorf("failed to count users: %w", err))
	}

	users := []models.User{}
	if err := page.Apply(db, "created_at", "name", "email", "role").Find(&users).Error; err != nil {
		return nil, 0, utils.Internal(fmt.Errorf("failed to fetch users: %w", err))
	}
	return users, total, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Role = req.Role
	if err := s.db.WithContext(ctx).Model(user).
		Select("name", "email", "role").
		Updates(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, utils.Conflict(i18n.KeyAuthEmailExists, req.Email)
		}
		return nil, utils.Internal(fmt.Errorf("failed to update user: %w", err))
	}
	return user, nil
}

// DeleteUser releases the avatar and then removes the account.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.images.Destroy(ctx, user.Avatar.PublicID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return utils.Internal(fmt.Errorf("failed to delete user: %w", err))
	}

	logrus.WithField("user_id", user.ID).Info("User deleted")
	return nil
}
