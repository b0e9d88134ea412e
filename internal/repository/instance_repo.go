package repository

import (
	"context"
	"time"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InstanceRepository interface {
	FindByID(ctx context.Context, id uint) (*models.ClassInstance, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ClassInstance, error)
	FindScheduledByInstructor(ctx context.Context, instructorID string) ([]models.ClassInstance, error)
	FindScheduledByRoom(ctx context.Context, roomID string) ([]models.ClassInstance, error)
	CreateOccurrences(ctx context.Context, instances []models.ClassInstance) ([]models.ClassInstance, error)
	UpdateStatus(ctx context.Context, id uint, status models.InstanceStatus) error
	TryReserve(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	Release(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}

type instanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

func (r *instanceRepository) FindByID(ctx context.Context, id uint) (*models.ClassInstance, error) {
	var instance models.ClassInstance
	if err := r.db.WithContext(ctx).First(&instance, id).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

// FindByIDForUpdate acquires a row-level lock on the instance within the given
// transaction. All seat and waitlist mutations for one instance serialize on
// this lock.
func (r *instanceRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ClassInstance, error) {
	var instance models.ClassInstance
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&instance, id).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *instanceRepository) FindScheduledByInstructor(ctx context.Context, instructorID string) ([]models.ClassInstance, error) {
	var instances []models.ClassInstance
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND status = ?", instructorID, models.InstanceScheduled).
		Order("start_time ASC").
		Find(&instances).Error
	return instances, err
}

func (r *instanceRepository) FindScheduledByRoom(ctx context.Context, roomID string) ([]models.ClassInstance, error) {
	var instances []models.ClassInstance
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND status = ?", roomID, models.InstanceScheduled).
		Order("start_time ASC").
		Find(&instances).Error
	return instances, err
}

// CreateOccurrences inserts generated instances, skipping ones that already
// exist for the same (template, start time), and returns the rows actually
// inserted. Existing occurrences are filtered out before the insert and the
// created rows are re-read afterwards: gorm back-fills ids positionally on a
// partial-conflict batch insert, so the slice elements cannot be trusted to
// carry their own ids.
func (r *instanceRepository) CreateOccurrences(ctx context.Context, instances []models.ClassInstance) ([]models.ClassInstance, error) {
	if len(instances) == 0 {
		return nil, nil
	}
	templateID := instances[0].TemplateID

	starts := make([]time.Time, len(instances))
	for i, inst := range instances {
		starts[i] = inst.StartTime
	}
	var existing []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.ClassInstance{}).
		Where("template_id = ? AND start_time IN ?", templateID, starts).
		Pluck("start_time", &existing).Error
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]bool, len(existing))
	for _, s := range existing {
		taken[s.UnixNano()] = true
	}

	fresh := make([]models.ClassInstance, 0, len(instances))
	freshStarts := make([]time.Time, 0, len(instances))
	for _, inst := range instances {
		if !taken[inst.StartTime.UnixNano()] {
			fresh = append(fresh, inst)
			freshStarts = append(freshStarts, inst.StartTime)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	// The conflict clause stays as a guard against a concurrent generation of
	// the same template racing past the filter above.
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "template_id"}, {Name: "start_time"}},
		DoNothing: true,
	}).Create(&fresh).Error
	if err != nil {
		return nil, err
	}

	var created []models.ClassInstance
	err = r.db.WithContext(ctx).
		Where("template_id = ? AND start_time IN ?", templateID, freshStarts).
		Order("start_time ASC").
		Find(&created).Error
	return created, err
}

func (r *instanceRepository) UpdateStatus(ctx context.Context, id uint, status models.InstanceStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.ClassInstance{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// TryReserve claims one seat iff the instance is scheduled and not full. The
// guard and the increment are a single conditional UPDATE, so concurrent
// callers can never push booked_count past capacity.
func (r *instanceRepository) TryReserve(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.ClassInstance{}).
		Where("id = ? AND status = ? AND booked_count < capacity", id, models.InstanceScheduled).
		Update("booked_count", gorm.Expr("booked_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release gives one seat back, floored at zero. It reports whether the
// decrement was a full-to-non-full transition, which is the waitlist
// promotion trigger. Callers must hold the instance row lock.
func (r *instanceRepository) Release(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var instance models.ClassInstance
	if err := tx.WithContext(ctx).First(&instance, id).Error; err != nil {
		return false, err
	}
	if instance.BookedCount <= 0 {
		return false, nil
	}

	result := tx.WithContext(ctx).
		Model(&models.ClassInstance{}).
		Where("id = ? AND booked_count > 0", id).
		Update("booked_count", gorm.Expr("booked_count - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	return instance.BookedCount == instance.Capacity, nil
}
