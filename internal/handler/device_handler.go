package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/auth"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/service"
)

// DeviceHandler handles the device registry REST API.
type DeviceHandler struct {
	svc *service.DeviceService
}

// NewDeviceHandler creates a device handler.
func NewDeviceHandler(svc *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

// IssueToken godoc
// POST /api/devices/token
func (h *DeviceHandler) IssueToken(c *gin.Context) {
	id, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req model.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	resp, err := h.svc.IssuePairingToken(id, req.MemorialID, req.DeviceName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Claim godoc
// POST /api/devices/claim
func (h *DeviceHandler) Claim(c *gin.Context) {
	var req model.ClaimTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	dev, err := h.svc.ClaimPairingToken(req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}

// GetStatus godoc
// GET /api/devices/:id/status
func (h *DeviceHandler) GetStatus(c *gin.Context) {
	dev, err := h.svc.GetDeviceStatus(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": dev.ID, "status": dev.Status, "name": dev.Name})
}

// UpdateStatus godoc
// POST /api/devices/:id/status
func (h *DeviceHandler) UpdateStatus(c *gin.Context) {
	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
		return
	}
	st, err := h.svc.UpdateDeviceStatus(c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": st})
}

// Cleanup godoc
// POST /api/devices/cleanup
func (h *DeviceHandler) Cleanup(c *gin.Context) {
	id, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	deleted, err := h.svc.CleanupStaleDevices(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.CleanupResponse{
		Deleted: deleted,
		Message: fmt.Sprintf("removed %d stale device(s)", deleted),
	})
}
