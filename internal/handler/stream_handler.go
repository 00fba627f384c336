package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/auth"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/service"
)

// StreamHandler handles the stream lifecycle REST API.
type StreamHandler struct {
	svc *service.StreamService
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(svc *service.StreamService) *StreamHandler {
	return &StreamHandler{svc: svc}
}

func identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return id, ok
}

// Create godoc
// POST /api/streams
func (h *StreamHandler) Create(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req model.CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memorialId required"})
		return
	}
	resp, err := h.svc.Provision(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GoLive godoc
// POST /api/streams/go-live
func (h *StreamHandler) GoLive(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req model.GoLiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memorialId required"})
		return
	}
	resp, err := h.svc.GoLive(id, req.MemorialID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CheckLive godoc
// GET /api/streams/:id/live
func (h *StreamHandler) CheckLive(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	resp, err := h.svc.CheckLive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BroadcastStatus godoc
// POST /api/streams/broadcast-status
func (h *StreamHandler) BroadcastStatus(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req model.BroadcastStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memorialId and action are required"})
		return
	}
	acted, err := h.svc.BroadcastStatus(id, req.MemorialID, req.Action, req.HLSURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": acted})
}

// Teardown godoc
// DELETE /api/streams/:id
func (h *StreamHandler) Teardown(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.svc.Teardown(c.Request.Context(), id, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
