package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kiwy37/careerconnect/internal/domain"
)

// VerificationCodeRepository persists short-lived verification codes.
// Validation always operates on the latest row per (email, purpose).
type VerificationCodeRepository interface {
	Create(ctx context.Context, code *domain.VerificationCode) error
	FindLatest(ctx context.Context, email, purpose string) (*domain.VerificationCode, error)
	IncrementAttempts(ctx context.Context, id uint) error
	Consume(ctx context.Context, id uint) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type GormVerificationCodeRepository struct {
	db *gorm.DB
}

func NewGormVerificationCodeRepository(db *gorm.DB) *GormVerificationCodeRepository {
	return &GormVerificationCodeRepository{db: db}
}

func (r *GormVerificationCodeRepository) Create(ctx context.Context, code *domain.VerificationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *GormVerificationCodeRepository) FindLatest(ctx context.Context, email, purpose string) (*domain.VerificationCode, error) {
	var code domain.VerificationCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Order("created_at DESC, id DESC").
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *GormVerificationCodeRepository) IncrementAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&domain.VerificationCode{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// Consume marks a code as used. The guarded predicate makes the operation
// first-wins under concurrent validation: only one caller observes
// RowsAffected == 1.
func (r *GormVerificationCodeRepository) Consume(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.VerificationCode{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormVerificationCodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&domain.VerificationCode{})
	return res.RowsAffected, res.Error
}
