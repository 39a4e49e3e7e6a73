package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kiwy37/careerconnect/internal/domain"
)

// UserRepository abstracts persistence for identity records.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByProviderID(ctx context.Context, provider, subjectID string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByProviderID looks a user up by the subject id of a federated
// provider. The provider name selects the column; unknown providers are a
// programming error surfaced as such.
func (r *GormUserRepository) FindByProviderID(ctx context.Context, provider, subjectID string) (*domain.User, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	var user domain.User
	err = r.db.WithContext(ctx).Preload("Role").
		Where(fmt.Sprintf("%s = ?", column), subjectID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *GormUserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func providerColumn(provider string) (string, error) {
	switch provider {
	case "google":
		return "google_id", nil
	case "facebook":
		return "facebook_id", nil
	case "twitter":
		return "twitter_id", nil
	case "linkedin":
		return "linked_in_id", nil
	default:
		return "", fmt.Errorf("unknown identity provider %q", provider)
	}
}
