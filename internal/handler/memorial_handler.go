package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/service"
)

// MemorialHandler handles the thin memorial REST surface.
type MemorialHandler struct {
	svc     *service.MemorialService
	streams *service.StreamService
}

// NewMemorialHandler creates a memorial handler.
func NewMemorialHandler(svc *service.MemorialService, streams *service.StreamService) *MemorialHandler {
	return &MemorialHandler{svc: svc, streams: streams}
}

// Create godoc
// POST /api/memorials
func (h *MemorialHandler) Create(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req model.CreateMemorialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slug and title are required"})
		return
	}
	mem, err := h.svc.Create(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mem)
}

// Get godoc
// GET /api/memorials/:id
//
// Merges the memorial view with its broadcast presence so viewer pages get
// both signals (entity lifecycle and coarse live flag) in one response.
func (h *MemorialHandler) Get(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	mem, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	presence, err := h.streams.Presence(mem.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memorial": mem, "presence": presence})
}

// Delete godoc
// DELETE /api/memorials/:id
func (h *MemorialHandler) Delete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(id, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
