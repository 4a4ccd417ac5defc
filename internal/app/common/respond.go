// Package common holds the small helpers shared by every HTTP handler.
package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

// ErrorResponse is the JSON error envelope for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondError translates a domain error into an HTTP status and a short
// JSON message. Raw lower-level detail is never exposed to the caller;
// unexpected errors are logged server-side and reported as a generic 500.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
	case errors.Is(err, models.ErrNoLocation):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no current location on record"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict"})
	default:
		logger.Error("Unhandled error in request", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
