package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/thartark/yogastudoapp-sub000/internal/dto"
	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"github.com/thartark/yogastudoapp-sub000/internal/service"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	instances := e.Group("/api/v1/instances")
	instances.POST("/:id/bookings", h.RequestBooking)
	instances.GET("/:id/bookings", h.ListBookings)
	instances.GET("/:id/availability", h.GetAvailability)

	e.GET("/api/v1/bookings/:id", h.GetBooking)
	e.DELETE("/api/v1/bookings/:id", h.CancelBooking)
	e.DELETE("/api/v1/waitlist/:id", h.LeaveWaitlist)
}

func (h *BookingHandler) RequestBooking(c echo.Context) error {
	instanceID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid instance id")
	}

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	result, err := h.svc.RequestBooking(c.Request().Context(), req.UserID, instanceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInstanceNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInstanceNotBookable), errors.Is(err, service.ErrInstanceInPast):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInsufficientCredit):
			return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())
		case errors.Is(err, service.ErrServiceUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResultResponse(result))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	result, err := h.svc.CancelBooking(c.Request().Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBookingNotCancellable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrServiceUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.CancelResponse{Released: result.Released})
}

func (h *BookingHandler) LeaveWaitlist(c echo.Context) error {
	entryID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid waitlist entry id")
	}

	if err := h.svc.LeaveWaitlist(c.Request().Context(), entryID); err != nil {
		switch {
		case errors.Is(err, service.ErrEntryNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEntryAlreadyPromoted):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrServiceUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.LeaveWaitlistResponse{OK: true})
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	instanceID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid instance id")
	}

	var status *models.BookingStatus
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		status = &bs
	}

	bookings, err := h.svc.ListBookings(c.Request().Context(), instanceID, status)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) GetAvailability(c echo.Context) error {
	instanceID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid instance id")
	}

	availability, err := h.svc.GetAvailability(c.Request().Context(), instanceID)
	if err != nil {
		if errors.Is(err, service.ErrInstanceNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.AvailabilityResponse{
		InstanceID:     availability.InstanceID,
		Capacity:       availability.Capacity,
		BookedCount:    availability.BookedCount,
		WaitlistLength: availability.WaitlistLength,
	})
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
