package dto

type CreateBookingRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type CreateTemplateRequest struct {
	Name         string `json:"name" validate:"required"`
	InstructorID string `json:"instructor_id" validate:"required"`
	RoomID       string `json:"room_id" validate:"required"`
	DaysOfWeek   string `json:"days_of_week" validate:"required"`
	StartTime    string `json:"start_time" validate:"required"`
	DurationMin  int    `json:"duration_min" validate:"required,gt=0"`
	Capacity     int    `json:"capacity" validate:"required,gt=0"`
}

type GenerateInstancesRequest struct {
	HorizonDays int `json:"horizon_days" validate:"gte=0"`
}
