package database

import (
	"log"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	return db
}

// Migrate creates the schema plus the partial unique indexes the booking
// invariants rely on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.ClassTemplate{},
		&models.ClassInstance{},
		&models.Booking{},
		&models.WaitlistEntry{},
		&models.CreditBalance{},
	); err != nil {
		return err
	}

	// At most one confirmed booking per (user, instance)
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_confirmed
		ON bookings (instance_id, user_id)
		WHERE status = 'confirmed'
	`)

	// At most one waiting entry per (user, instance)
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_waiting
		ON waitlist_entries (instance_id, user_id)
		WHERE status = 'waiting'
	`)

	return nil
}
