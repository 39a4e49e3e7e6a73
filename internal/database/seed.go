package database

import (
	"gorm.io/gorm"

	"github.com/kiwy37/careerconnect/internal/domain"
)

var defaultRoles = []string{
	domain.RoleAdmin,
	domain.RoleEmployee,
	domain.RoleEmployer,
}

// Seed inserts the fixed role set. Existing rows are left alone so the
// seed is safe to run on every startup.
func Seed(db *gorm.DB) error {
	for _, name := range defaultRoles {
		role := domain.Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}
