// Package users provides database operations for local admin accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByLogin("admin@gmail.com")
package users

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/shelf/internal/entities"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser stores a user with an already hashed password.
func (r *Repository) CreateUser(username, email, passwordHash string, role entities.UserRole) (*entities.User, error) {
	var existing entities.User
	err := r.db.Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByLogin finds a user by username or email.
func (r *Repository) GetUserByLogin(login string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ? OR email = ?", login, login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RecordFailedLogin increments the failure counter and locks the account
// once maxAttempts is reached.
func (r *Repository) RecordFailedLogin(user *entities.User, maxAttempts int, lockout time.Duration, now time.Time) error {
	user.FailedLoginCount++
	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}
	if maxAttempts > 0 && user.FailedLoginCount >= maxAttempts {
		lockedUntil := now.Add(lockout)
		user.LockedUntil = &lockedUntil
		updates["locked_until"] = lockedUntil
	}
	return r.db.Model(user).Updates(updates).Error
}

// RecordSuccessfulLogin resets the failure counter and stamps the login time.
func (r *Repository) RecordSuccessfulLogin(user *entities.User, now time.Time) error {
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	return r.db.Model(user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
}

// UpdatePasswordHash replaces the stored hash.
func (r *Repository) UpdatePasswordHash(id uint, hash string) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the number of users.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}
