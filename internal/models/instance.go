package models

import "time"

type InstanceStatus string

const (
	InstanceScheduled InstanceStatus = "scheduled"
	InstanceCancelled InstanceStatus = "cancelled"
	InstanceCompleted InstanceStatus = "completed"
)

// ClassInstance is one dated occurrence of a class. BookedCount is the
// authoritative seat counter: 0 <= booked_count <= capacity always holds, and
// it is only ever moved by the conditional updates in the instance repository.
type ClassInstance struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	TemplateID   *uint          `gorm:"uniqueIndex:idx_instance_occurrence" json:"template_id,omitempty"`
	InstructorID string         `gorm:"not null" json:"instructor_id"`
	RoomID       string         `gorm:"not null" json:"room_id"`
	StartTime    time.Time      `gorm:"not null;uniqueIndex:idx_instance_occurrence" json:"start_time"`
	EndTime      time.Time      `gorm:"not null" json:"end_time"`
	Capacity     int            `gorm:"not null" json:"capacity"`
	BookedCount  int            `gorm:"not null;default:0" json:"booked_count"`
	Status       InstanceStatus `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
