package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps service-level errors onto HTTP statuses: missing entities
// become 404, state and uniqueness conflicts 409, failed validation gates 400
// with the reason list, everything else 500.
func writeError(c *gin.Context, err error) {
	if ve, ok := service.IsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(http.StatusBadRequest, ve.Reasons))
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrDuplicateKey):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// listPayload is the standard shape for paginated collections.
func listPayload(items interface{}, total int64, page, limit int) gin.H {
	return gin.H{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	}
}
