package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thartark/yogastudoapp-sub000/internal/dto"
	"gorm.io/gorm"
)

// ErrorHandler renders every error as the JSON error envelope. Handlers map
// their sentinel errors to echo.HTTPError themselves; a raw gorm not-found
// that leaks past one becomes a 404 instead of a 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = http.StatusNotFound
		msg = "not found"
	}

	if code >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	_ = c.JSON(code, dto.ErrorResponse{Message: msg})
}
