// services/admin.go - Admin Accounts
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"biblereader/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// EnsureAdmin creates the admin account if it does not exist yet. An empty
// password skips seeding.
func (s *AdminService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		log.Println("⚠️  ADMIN_PASSWORD not set, admin API disabled until an admin user exists")
		return nil
	}

	var existing models.AdminUser
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&models.AdminUser{Username: username, Password: string(hash)}).Error; err != nil {
		return err
	}
	log.Printf("👤 Admin user %q created", username)
	return nil
}

// Authenticate checks a username and password and records the login.
func (s *AdminService) Authenticate(ctx context.Context, username, password string) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.LastLogin = time.Now().UTC()
	s.db.WithContext(ctx).Model(&user).Update("last_login", user.LastLogin)
	return &user, nil
}
