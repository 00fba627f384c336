package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/service"
)

// fallbackPollInterval bounds staleness for listeners that miss a wakeup
// (reconnects, multi-instance deployments).
const fallbackPollInterval = 15 * time.Second

// SignalingWSHandler pushes mailbox batches over WebSocket. It is a latency
// shortcut around REST polling: every delivered batch still goes through the
// relay's atomic consume, so at-most-once delivery holds across both paths.
type SignalingWSHandler struct {
	hub *service.NotifyHub
	svc *service.SignalingService
	log *zap.Logger
}

// NewSignalingWSHandler creates the WebSocket signaling handler.
func NewSignalingWSHandler(hub *service.NotifyHub, svc *service.SignalingService, log *zap.Logger) *SignalingWSHandler {
	return &SignalingWSHandler{hub: hub, svc: svc, log: log}
}

// ServeWS godoc
// GET /api/signaling/ws/:deviceId?memorialId=...&fromDevice=true|false
func (h *SignalingWSHandler) ServeWS(c *gin.Context) {
	deviceID := c.Param("deviceId")
	memorialID := c.Query("memorialId")
	fromDeviceRaw := c.Query("fromDevice")
	if deviceID == "" || memorialID == "" || fromDeviceRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId, memorialId and fromDevice are required"})
		return
	}
	fromDevice := fromDeviceRaw == "true"

	if err := h.svc.ValidateMailbox(deviceID, memorialID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("signaling ws: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	listener, cleanup := h.hub.Register(deviceID, fromDevice)
	defer cleanup()

	// Read pump only detects close; clients send nothing meaningful here.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.log.Debug("signaling ws: read closed",
						zap.String("device_id", deviceID), zap.Error(err))
				}
				return
			}
		}
	}()

	flush := func() bool {
		msgs, err := h.svc.Poll(deviceID, memorialID, fromDevice)
		if err != nil {
			h.log.Warn("signaling ws: poll failed",
				zap.String("device_id", deviceID), zap.Error(err))
			return false
		}
		if len(msgs) == 0 {
			return true
		}
		if err := conn.WriteJSON(model.PollSignalResponse{Messages: msgs}); err != nil {
			return false
		}
		return true
	}

	// Deliver anything already pending before waiting for wakeups.
	if !flush() {
		return
	}

	ticker := time.NewTicker(fallbackPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-listener.Wake:
			if !flush() {
				return
			}
		case <-ticker.C:
			if !flush() {
				return
			}
		}
	}
}
