package handlers

import (
	"errors"
	"net/http"

	"neighborgrid/internal/api/models"
	"neighborgrid/internal/data"
	"neighborgrid/internal/dispatch"

	"github.com/gin-gonic/gin"
)

// respondError writes the JSON error envelope.
func respondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

// respondRunError maps simulation errors onto HTTP status codes.
func respondRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dispatch.ErrUnknownPolicy):
		respondError(c, http.StatusBadRequest, "UNKNOWN_POLICY", err)
	case errors.Is(err, dispatch.ErrHorizonMismatch):
		respondError(c, http.StatusBadRequest, "HORIZON_MISMATCH", err)
	case errors.Is(err, data.ErrRunNotFound):
		respondError(c, http.StatusNotFound, "RUN_NOT_FOUND", err)
	default:
		respondError(c, http.StatusBadRequest, "SIMULATION_ERROR", err)
	}
}
