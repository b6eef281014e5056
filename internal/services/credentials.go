package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskmanager-dev/taskmanager/db"
	"github.com/taskmanager-dev/taskmanager/internal/auth"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"gorm.io/gorm"
)

type CredentialsService struct {
	db *gorm.DB
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// GetByUsername resolves a login name to its credentials, with the owning
// user preloaded.
func (s *CredentialsService) GetByUsername(ctx context.Context, username string) (models.Credentials, error) {
	var credentials models.Credentials

	err := s.db.WithContext(ctx).
		Preload("User").
		Where("username = ?", normalizeUsername(username)).
		First(&credentials).Error

	if err != nil {
		return models.Credentials{}, lookupErr("credentials", username, err)
	}

	return credentials, nil
}

func (s *CredentialsService) GetByUserID(ctx context.Context, userID uint) (models.Credentials, error) {
	var credentials models.Credentials

	if err := s.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&credentials).Error; err != nil {
		return models.Credentials{}, lookupErr("credentials for user", userID, err)
	}

	return credentials, nil
}

// UsernameTaken reports whether username belongs to credentials other than
// exceptID.
func (s *CredentialsService) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(&models.Credentials{}).
		Where("username = ? AND id <> ?", normalizeUsername(username), exceptID).
		Count(&count).Error

	if err != nil {
		return false, fmt.Errorf("check username %q: %w", username, err)
	}

	return count > 0, nil
}

// Save inserts or updates the credentials and the embedded user in one
// transaction. A clash on the username surfaces as ErrUsernameTaken.
func (s *CredentialsService) Save(ctx context.Context, credentials *models.Credentials) error {
	credentials.Username = normalizeUsername(credentials.Username)

	if credentials.Role == "" {
		credentials.Role = models.RoleDefault
	}

	if credentials.User.ID == 0 {
		credentials.User.ID = credentials.UserID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveUser(tx, &credentials.User); err != nil {
			return err
		}

		credentials.UserID = credentials.User.ID

		if credentials.ID == 0 {
			return tx.Omit("User").Create(credentials).Error
		}

		return tx.Model(&models.Credentials{BaseModel: models.BaseModel{ID: credentials.ID}}).
			Select("username", "password_hash", "role", "user_id").
			Updates(credentials).Error
	})

	if db.IsDuplicateKey(err) {
		return fmt.Errorf("save credentials %q: %w", credentials.Username, ErrUsernameTaken)
	}

	if err != nil {
		return fmt.Errorf("save credentials %q: %w", credentials.Username, err)
	}

	return nil
}

// SetPassword replaces the stored hash with a hash of plain.
func (s *CredentialsService) SetPassword(credentials *models.Credentials, plain string) error {
	hash, err := auth.HashPassword(plain)

	if err != nil {
		return err
	}

	credentials.PasswordHash = hash

	return nil
}

// Authenticate returns the credentials for username when plain matches the
// stored hash. Unknown users and wrong passwords are indistinguishable.
func (s *CredentialsService) Authenticate(ctx context.Context, username, plain string) (models.Credentials, error) {
	credentials, err := s.GetByUsername(ctx, username)

	if errors.Is(err, ErrNotFound) {
		return models.Credentials{}, ErrInvalidCredentials
	}

	if err != nil {
		return models.Credentials{}, err
	}

	if err := auth.CheckPassword(credentials.PasswordHash, plain); err != nil {
		return models.Credentials{}, ErrInvalidCredentials
	}

	return credentials, nil
}

// Delete removes the credentials for username and the user behind them.
func (s *CredentialsService) Delete(ctx context.Context, username string) error {
	credentials, err := s.GetByUsername(ctx, username)

	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteUser(tx, credentials.UserID)
	})
}

func (s *CredentialsService) List(ctx context.Context) ([]models.Credentials, error) {
	var all []models.Credentials

	if err := s.db.WithContext(ctx).Preload("User").Order("username").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	return all, nil
}

// EnsureAdmin creates an ADMIN account for username unless credentials with
// that username already exist. It reports whether an account was created.
func (s *CredentialsService) EnsureAdmin(ctx context.Context, username, password, name, email string) (bool, error) {
	_, err := s.GetByUsername(ctx, username)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	if name == "" {
		name = username
	}

	credentials := models.Credentials{
		Username: username,
		Role:     models.RoleAdmin,
		User:     models.User{Name: name, Email: email},
	}

	if err := s.SetPassword(&credentials, password); err != nil {
		return false, err
	}

	if err := s.Save(ctx, &credentials); err != nil {
		return false, err
	}

	return true, nil
}
