package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artline-cms/internal/domain/users"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

// EnsureAdmin creates the bootstrap admin when it does not exist yet.
// An existing account is left untouched, including its password.
func EnsureAdmin(ctx context.Context, db *gorm.DB, seed AdminSeed, log zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if email == "" || seed.Password == "" {
		return nil
	}

	var existing users.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	pw := string(hashed)

	admin := users.User{
		Name:         seed.Name,
		Email:        email,
		Password:     &pw,
		AuthProvider: "local",
		Role:         users.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}
