package http

import (
	"context"
	"errors"
	"net/http"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

func writeError(c echo.Context, status int, message string) error {
	return c.JSON(status, Error{Code: status, Message: message})
}

// statusFor maps application errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict),
		errors.Is(err, commands.ErrAllocationConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, commands.ErrStoreTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// problem writes err as an Error body. Internal errors are logged and their message
// is not exposed.
func (s *Server) problem(c echo.Context, err error, fallback string) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), fallback,
			"error", err, "method", c.Request().Method, "path", c.Path())
		return writeError(c, status, fallback)
	}
	return writeError(c, status, err.Error())
}

// transitionProblem is problem for PATCH /orders/{id}/status. A refused transition also
// reports the events the order accepts in its current status.
func (s *Server) transitionProblem(c echo.Context, err error) error {
	var refused *errs.InvalidTransitionError
	if !errors.As(err, &refused) {
		return s.problem(c, err, "Failed to update order status")
	}
	from, parseErr := order.ParseStatus(refused.From)
	if parseErr != nil {
		return s.problem(c, err, "Failed to update order status")
	}

	allowed := make([]string, 0, 2)
	for _, event := range from.AllowedEvents() {
		allowed = append(allowed, event.String())
	}
	return c.JSON(http.StatusBadRequest, Error{
		Code:          http.StatusBadRequest,
		Message:       err.Error(),
		AllowedEvents: &allowed,
	})
}
