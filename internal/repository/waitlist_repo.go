package repository

import (
	"context"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"gorm.io/gorm"
)

type WaitlistRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry) error
	FindByID(ctx context.Context, id uint) (*models.WaitlistEntry, error)
	FindWaitingByUserAndInstance(ctx context.Context, tx *gorm.DB, userID string, instanceID uint) (*models.WaitlistEntry, error)
	FindHead(ctx context.Context, tx *gorm.DB, instanceID uint) (*models.WaitlistEntry, error)
	MaxPosition(ctx context.Context, tx *gorm.DB, instanceID uint) (int, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, entryID uint, status models.WaitlistStatus) error
	CompactAfter(ctx context.Context, tx *gorm.DB, instanceID uint, position int) error
	CountWaiting(ctx context.Context, instanceID uint) (int64, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (r *waitlistRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *waitlistRepository) FindByID(ctx context.Context, id uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) FindWaitingByUserAndInstance(ctx context.Context, tx *gorm.DB, userID string, instanceID uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := tx.WithContext(ctx).
		Where("user_id = ? AND instance_id = ? AND status = ?", userID, instanceID, models.WaitlistWaiting).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindHead returns the waiting entry next in line for the instance.
func (r *waitlistRepository) FindHead(ctx context.Context, tx *gorm.DB, instanceID uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := tx.WithContext(ctx).
		Where("instance_id = ? AND status = ?", instanceID, models.WaitlistWaiting).
		Order("position ASC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) MaxPosition(ctx context.Context, tx *gorm.DB, instanceID uint) (int, error) {
	var max *int
	err := tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("instance_id = ? AND status = ?", instanceID, models.WaitlistWaiting).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *waitlistRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, entryID uint, status models.WaitlistStatus) error {
	return tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", entryID).
		Update("status", status).Error
}

// CompactAfter shifts every waiting entry behind the removed position one step
// forward, keeping positions dense and 1-based.
func (r *waitlistRepository) CompactAfter(ctx context.Context, tx *gorm.DB, instanceID uint, position int) error {
	return tx.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("instance_id = ? AND status = ? AND position > ?", instanceID, models.WaitlistWaiting, position).
		Update("position", gorm.Expr("position - 1")).Error
}

func (r *waitlistRepository) CountWaiting(ctx context.Context, instanceID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("instance_id = ? AND status = ?", instanceID, models.WaitlistWaiting).
		Count(&count).Error
	return count, err
}
