package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/service"
)

// SignalingHandler handles the store-and-forward signaling REST API.
type SignalingHandler struct {
	svc *service.SignalingService
}

// NewSignalingHandler creates a signaling handler.
func NewSignalingHandler(svc *service.SignalingService) *SignalingHandler {
	return &SignalingHandler{svc: svc}
}

// Send godoc
// POST /api/signaling/send
func (h *SignalingHandler) Send(c *gin.Context) {
	var req model.SendSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if err := h.svc.Send(req.DeviceID, req.MemorialID, *req.FromDevice, req.Type, req.Payload); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Poll godoc
// POST /api/signaling/poll
func (h *SignalingHandler) Poll(c *gin.Context) {
	var req model.PollSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId, memorialId and fromDevice are required"})
		return
	}
	msgs, err := h.svc.Poll(req.DeviceID, req.MemorialID, *req.FromDevice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.PollSignalResponse{Messages: msgs})
}
