package dto

import (
	"time"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"github.com/thartark/yogastudoapp-sub000/internal/service"
)

type BookingResponse struct {
	ID            uint                 `json:"id"`
	UserID        string               `json:"user_id"`
	InstanceID    uint                 `json:"instance_id"`
	Status        models.BookingStatus `json:"status"`
	CreditDebited bool                 `json:"credit_debited"`
	CreatedAt     time.Time            `json:"created_at"`
}

type BookingResultResponse struct {
	Status           service.BookingOutcome `json:"status"`
	Booking          *BookingResponse       `json:"booking,omitempty"`
	WaitlistEntryID  *uint                  `json:"waitlist_entry_id,omitempty"`
	WaitlistPosition *int                   `json:"waitlist_position,omitempty"`
}

type CancelResponse struct {
	Released bool `json:"released"`
}

type LeaveWaitlistResponse struct {
	OK bool `json:"ok"`
}

type AvailabilityResponse struct {
	InstanceID     uint  `json:"instance_id"`
	Capacity       int   `json:"capacity"`
	BookedCount    int   `json:"booked_count"`
	WaitlistLength int64 `json:"waitlist_length"`
}

type GenerateInstancesResponse struct {
	CreatedCount int `json:"created_count"`
}

type TemplateResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	InstructorID string `json:"instructor_id"`
	RoomID       string `json:"room_id"`
	DaysOfWeek   string `json:"days_of_week"`
	StartTime    string `json:"start_time"`
	DurationMin  int    `json:"duration_min"`
	Capacity     int    `json:"capacity"`
	Active       bool   `json:"active"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		InstanceID:    b.InstanceID,
		Status:        b.Status,
		CreditDebited: b.CreditDebited,
		CreatedAt:     b.CreatedAt,
	}
}

func ToBookingResultResponse(r *service.BookingResult) BookingResultResponse {
	resp := BookingResultResponse{Status: r.Outcome}
	if r.Booking != nil {
		b := ToBookingResponse(r.Booking)
		resp.Booking = &b
	}
	if r.WaitlistEntry != nil {
		resp.WaitlistEntryID = &r.WaitlistEntry.ID
		resp.WaitlistPosition = &r.WaitlistEntry.Position
	}
	return resp
}

func ToTemplateResponse(t *models.ClassTemplate) TemplateResponse {
	return TemplateResponse{
		ID:           t.ID,
		Name:         t.Name,
		InstructorID: t.InstructorID,
		RoomID:       t.RoomID,
		DaysOfWeek:   t.DaysOfWeek,
		StartTime:    t.StartTime,
		DurationMin:  t.DurationMin,
		Capacity:     t.Capacity,
		Active:       t.Active,
	}
}
