package models

import "time"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingAttended  BookingStatus = "attended"
	BookingNoShow    BookingStatus = "no_show"
)

type Booking struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	UserID     string        `gorm:"not null" json:"user_id"`
	InstanceID uint          `gorm:"not null" json:"instance_id"`
	Status     BookingStatus `gorm:"type:varchar(20);not null;default:'confirmed'" json:"status"`

	// CreditDebited records whether a membership credit was taken when the
	// booking was confirmed, so cancellation refunds exactly once.
	CreditDebited bool      `gorm:"not null;default:false" json:"credit_debited"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Instance *ClassInstance `gorm:"foreignKey:InstanceID" json:"instance,omitempty"`
}
