package database

import (
	"gorm.io/gorm"

	"github.com/kiwy37/careerconnect/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Role{},
		&domain.User{},
		&domain.VerificationCode{},
	)
}
