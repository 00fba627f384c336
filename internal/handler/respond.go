package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/errs"
)

// respondError maps domain sentinel errors to HTTP responses. Unknown errors
// become an opaque 500; provider failures become 500 without leaking
// provider detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrMemorialNotFound),
		errors.Is(err, errs.ErrDeviceNotFound),
		errors.Is(err, errs.ErrStreamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, errs.ErrInvalidDeviceStatus),
		errors.Is(err, errs.ErrInvalidSignalType),
		errors.Is(err, errs.ErrInvalidPayload),
		errors.Is(err, errs.ErrInvalidAction),
		errors.Is(err, errs.ErrStreamNotProvisioned):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUpstream):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "live provider request failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
