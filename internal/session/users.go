package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/blueox/schedule/internal/models"
	"github.com/blueox/schedule/internal/schedule"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists  = errors.New("session: user already exists")
	ErrUnknownUser = errors.New("session: unknown user")
	ErrInvalidRole = errors.New("session: invalid role")
)

// minPasswordLen is enforced when creating users.
const minPasswordLen = 8

// CreateUser stores a user with a bcrypt password hash and a profile
// carrying role.
func CreateUser(ctx context.Context, db *gorm.DB, email, password string, role schedule.Role) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, errors.New("session: email is required")
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("session: password must be at least %d characters", minPasswordLen)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("session: hash password: %w", err)
	}

	user := models.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{ID: user.ID, Email: email, Role: string(role)}).Error
	})
	if errors.Is(err, ErrUserExists) {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
	}
	if err != nil {
		return nil, fmt.Errorf("session: create user %s: %w", email, err)
	}
	return &user, nil
}

// LookupUser finds a user by email.
func LookupUser(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, email)
	}
	if err != nil {
		return nil, fmt.Errorf("session: lookup user %s: %w", email, err)
	}
	return &user, nil
}

// SetRole changes the role of user id, creating its profile if missing.
func SetRole(ctx context.Context, db *gorm.DB, id string, role schedule.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownUser
			}
			return err
		}
		var profile models.Profile
		err := tx.Where("id = ?", id).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.Profile{ID: id, Email: user.Email, Role: string(role)}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&profile).Update("role", string(role)).Error
	})
	if errors.Is(err, ErrUnknownUser) {
		return fmt.Errorf("%w: %s", ErrUnknownUser, id)
	}
	if err != nil {
		return fmt.Errorf("session: set role for %s: %w", id, err)
	}
	return nil
}
