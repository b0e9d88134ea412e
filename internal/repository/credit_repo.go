package repository

import (
	"context"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditRepository interface {
	FindByUser(ctx context.Context, userID string) (*models.CreditBalance, error)
	FindByUserForUpdate(ctx context.Context, tx *gorm.DB, userID string) (*models.CreditBalance, error)
	Debit(ctx context.Context, tx *gorm.DB, userID string) (bool, error)
	Refund(ctx context.Context, tx *gorm.DB, userID string) error
	Upsert(ctx context.Context, balance *models.CreditBalance) error
}

type creditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) FindByUser(ctx context.Context, userID string) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	if err := r.db.WithContext(ctx).First(&balance, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

// FindByUserForUpdate locks the user's balance row. All credit movement for
// one user serializes on this lock, so a single remaining credit cannot pay
// for two concurrent bookings.
func (r *creditRepository) FindByUserForUpdate(ctx context.Context, tx *gorm.DB, userID string) (*models.CreditBalance, error) {
	var balance models.CreditBalance
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&balance, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// Debit consumes one class credit. Unlimited plans (NULL classes_remaining)
// pass through untouched; finite plans decrement only while positive, and the
// guard and decrement are one conditional UPDATE.
func (r *creditRepository) Debit(ctx context.Context, tx *gorm.DB, userID string) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.CreditBalance{}).
		Where("user_id = ? AND (classes_remaining IS NULL OR classes_remaining > 0)", userID).
		Update("classes_remaining", gorm.Expr("CASE WHEN classes_remaining IS NULL THEN NULL ELSE classes_remaining - 1 END"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Refund returns one class credit. No-op for unlimited plans.
func (r *creditRepository) Refund(ctx context.Context, tx *gorm.DB, userID string) error {
	return tx.WithContext(ctx).
		Model(&models.CreditBalance{}).
		Where("user_id = ? AND classes_remaining IS NOT NULL", userID).
		Update("classes_remaining", gorm.Expr("classes_remaining + 1")).Error
}

func (r *creditRepository) Upsert(ctx context.Context, balance *models.CreditBalance) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"membership_id", "classes_remaining", "expires_at", "updated_at"}),
	}).Create(balance).Error
}
