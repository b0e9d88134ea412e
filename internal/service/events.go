package service

import (
	"time"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
)

// Event payloads published to the scheduling exchange for the notification
// and admin collaborators. Only facts, no content: what to say to the user is
// the notifier's problem.

type BookingEvent struct {
	BookingID  uint                 `json:"booking_id"`
	UserID     string               `json:"user_id"`
	InstanceID uint                 `json:"instance_id"`
	Status     models.BookingStatus `json:"status"`
}

type WaitlistEvent struct {
	EntryID    uint   `json:"entry_id"`
	UserID     string `json:"user_id"`
	InstanceID uint   `json:"instance_id"`
	Position   int    `json:"position"`
}

type InstanceGeneratedEvent struct {
	InstanceID uint      `json:"instance_id"`
	TemplateID uint      `json:"template_id"`
	StartTime  time.Time `json:"start_time"`
}

type pendingEvent struct {
	key     string
	payload any
}

func (s *bookingService) publishAll(events []pendingEvent) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		_ = s.publisher.Publish(ev.key, ev.payload)
	}
}
