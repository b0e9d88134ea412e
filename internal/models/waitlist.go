package models

import "time"

type WaitlistStatus string

const (
	WaitlistWaiting  WaitlistStatus = "waiting"
	WaitlistPromoted WaitlistStatus = "promoted"
	WaitlistLeft     WaitlistStatus = "left"
)

// WaitlistEntry holds a user's place in line for a full instance. Positions
// are 1-based and dense: among waiting entries of one instance they are
// contiguous starting at 1, compacted on every removal.
type WaitlistEntry struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     string         `gorm:"not null" json:"user_id"`
	InstanceID uint           `gorm:"not null" json:"instance_id"`
	Position   int            `gorm:"not null" json:"position"`
	Status     WaitlistStatus `gorm:"type:varchar(20);not null;default:'waiting'" json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
