package repository

import (
	"context"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByInstanceID(ctx context.Context, instanceID uint, status *models.BookingStatus) ([]models.Booking, error)
	FindConfirmedByUserAndInstance(ctx context.Context, tx *gorm.DB, userID string, instanceID uint) (*models.Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate re-reads a booking inside the transaction with a row
// lock, so status decisions are made against the committed state and not a
// pre-transaction snapshot.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByInstanceID(ctx context.Context, instanceID uint, status *models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx).Where("instance_id = ?", instanceID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("id ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindConfirmedByUserAndInstance(ctx context.Context, tx *gorm.DB, userID string, instanceID uint) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Where("user_id = ? AND instance_id = ? AND status = ?", userID, instanceID, models.BookingConfirmed).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("status", status).Error
}
