package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidDay       = errors.New("day must be a valid day of the week")
	ErrInvalidStartTime = errors.New("start time must be in HH:MM format")
)

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ClassTemplate is a recurring weekly class definition. Dated ClassInstances
// are generated from it by the schedule service.
type ClassTemplate struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"not null" json:"name"`
	InstructorID string `gorm:"not null" json:"instructor_id"`
	RoomID       string `gorm:"not null" json:"room_id"`

	// DaysOfWeek is a comma-joined list of lowercase day names, e.g. "monday,wednesday".
	DaysOfWeek  string `gorm:"not null" json:"days_of_week"`
	StartTime   string `gorm:"not null" json:"start_time"` // HH:MM, studio-local
	DurationMin int    `gorm:"not null" json:"duration_min"`
	Capacity    int    `gorm:"not null" json:"capacity"`

	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Weekdays parses DaysOfWeek into time.Weekday values.
func (t *ClassTemplate) Weekdays() ([]time.Weekday, error) {
	var days []time.Weekday
	for _, name := range strings.Split(t.DaysOfWeek, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		day, ok := weekdaysByName[name]
		if !ok {
			return nil, ErrInvalidDay
		}
		days = append(days, day)
	}
	return days, nil
}

// StartClock parses StartTime into hour and minute components.
func (t *ClassTemplate) StartClock() (hour, minute int, err error) {
	parsed, err := time.Parse("15:04", t.StartTime)
	if err != nil {
		return 0, 0, ErrInvalidStartTime
	}
	return parsed.Hour(), parsed.Minute(), nil
}

func (t *ClassTemplate) Duration() time.Duration {
	return time.Duration(t.DurationMin) * time.Minute
}
