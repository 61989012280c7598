// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/javajoker/shop-backend/internal/utils"
)

// ResetPasswordTTL is how long a forgot-password token stays valid.
const ResetPasswordTTL = 15 * time.Minute

type User struct {
	BaseModel
	Name                string     `json:"name" gorm:"size:30;not null"`
	Email               string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash        string     `json:"-" gorm:"size:255;not null"`
	Avatar              Image      `json:"avatar" gorm:"embedded;embeddedPrefix:avatar_"`
	Role                Role       `json:"role" gorm:"type:varchar(20);not null;default:'user';index"`
	ResetPasswordToken  string     `json:"-" gorm:"size:64;index"`
	ResetPasswordExpire *time.Time `json:"-"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// GenerateResetPasswordToken stores the SHA-256 of a fresh random token and
// returns the raw token, which is only ever sent to the user.
func (u *User) GenerateResetPasswordToken(now time.Time) (string, error) {
	token, err := utils.RandomToken(40)
	if err != nil {
		return "", err
	}

	expire := now.Add(ResetPasswordTTL)
	u.ResetPasswordToken = utils.SHA256Hex(token)
	u.ResetPasswordExpire = &expire
	return token, nil
}

func (u *User) ClearResetPasswordToken() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
}
