package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thartark/yogastudoapp-sub000/internal/dto"
	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"github.com/thartark/yogastudoapp-sub000/internal/service"
)

type ScheduleHandler struct {
	svc service.ScheduleService
}

func NewScheduleHandler(svc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

func (h *ScheduleHandler) RegisterRoutes(e *echo.Echo) {
	templates := e.Group("/api/v1/templates")
	templates.POST("", h.CreateTemplate)
	templates.GET("", h.ListTemplates)
	templates.GET("/:id", h.GetTemplate)
	templates.POST("/:id/generate", h.GenerateInstances)

	e.GET("/api/v1/instructors/:id/conflicts", h.InstructorConflicts)
	e.GET("/api/v1/rooms/:id/conflicts", h.RoomConflicts)
}

func (h *ScheduleHandler) CreateTemplate(c echo.Context) error {
	var req dto.CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.InstructorID == "" || req.RoomID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, instructor_id and room_id are required")
	}
	if req.Capacity <= 0 || req.DurationMin <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "capacity and duration_min must be positive")
	}

	template := &models.ClassTemplate{
		Name:         req.Name,
		InstructorID: req.InstructorID,
		RoomID:       req.RoomID,
		DaysOfWeek:   req.DaysOfWeek,
		StartTime:    req.StartTime,
		DurationMin:  req.DurationMin,
		Capacity:     req.Capacity,
		Active:       true,
	}
	if err := h.svc.CreateTemplate(c.Request().Context(), template); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidDay), errors.Is(err, models.ErrInvalidStartTime):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToTemplateResponse(template))
}

func (h *ScheduleHandler) GetTemplate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid template id")
	}

	template, err := h.svc.GetTemplate(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToTemplateResponse(template))
}

func (h *ScheduleHandler) ListTemplates(c echo.Context) error {
	templates, err := h.svc.ListTemplates(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.TemplateResponse, len(templates))
	for i, t := range templates {
		resp[i] = dto.ToTemplateResponse(&t)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ScheduleHandler) GenerateInstances(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid template id")
	}

	var req dto.GenerateInstancesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	created, err := h.svc.GenerateInstances(c.Request().Context(), id, req.HorizonDays)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, models.ErrInvalidDay), errors.Is(err, models.ErrInvalidStartTime):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.GenerateInstancesResponse{CreatedCount: created})
}

func (h *ScheduleHandler) InstructorConflicts(c echo.Context) error {
	conflicts, err := h.svc.DetectInstructorConflicts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, conflicts)
}

func (h *ScheduleHandler) RoomConflicts(c echo.Context) error {
	conflicts, err := h.svc.DetectRoomConflicts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, conflicts)
}
