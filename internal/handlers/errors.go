package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var (
		conflict     *apperrors.ConsistencyConflictError
		incompatible *apperrors.IncompatibleSnapshotError
		appErr       *apperrors.AppError
	)
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrHasDependents), errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrSyncInFlight), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &incompatible):
		return http.StatusUnprocessableEntity
	case errors.As(err, &appErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs and writes err. Server faults get the generic msg instead of the
// internal error text.
func respondError(c *gin.Context, logger *slog.Logger, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
		if status == http.StatusBadGateway {
			c.JSON(status, ErrorResponse{Error: msg + ": " + err.Error()})
			return
		}
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}
	logger.Warn(msg, slog.String("error", err.Error()), slog.Int("status", status))
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

// bindError answers a request whose body or query could not be bound.
func bindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
}
