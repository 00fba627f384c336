package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/service"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/token"
)

// TokenHandler issues room join tokens. Cameras authenticate implicitly by
// holding a claimed device id; switcher callers hold a bearer token.
type TokenHandler struct {
	issuer  *token.Issuer
	devices *service.DeviceService
}

// NewTokenHandler creates a token handler.
func NewTokenHandler(issuer *token.Issuer, devices *service.DeviceService) *TokenHandler {
	return &TokenHandler{issuer: issuer, devices: devices}
}

type cameraTokenRequest struct {
	MemorialID string `json:"memorialId" binding:"required"`
	DeviceID   string `json:"deviceId" binding:"required"`
	Name       string `json:"name"`
}

type switcherTokenRequest struct {
	MemorialID string `json:"memorialId" binding:"required"`
	Identity   string `json:"identity"`
	Name       string `json:"name"`
}

// CameraToken godoc
// POST /api/tokens/camera
func (h *TokenHandler) CameraToken(c *gin.Context) {
	var req cameraTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memorialId and deviceId are required"})
		return
	}
	dev, err := h.devices.GetDeviceStatus(req.DeviceID)
	if err != nil || dev.MemorialID != req.MemorialID {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}

	room := token.RoomName(req.MemorialID)
	name := req.Name
	if name == "" {
		name = dev.Name
	}
	signed, err := h.issuer.Mint("camera-"+dev.ID, name, token.CameraGrant(room))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}
	if signed == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "media room tokens are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed, "url": h.issuer.ServerURL(), "room": room})
}

// SwitcherToken godoc
// POST /api/tokens/switcher
func (h *TokenHandler) SwitcherToken(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req switcherTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memorialId required"})
		return
	}

	room := token.RoomName(req.MemorialID)
	ident := req.Identity
	if ident == "" {
		ident = "switcher-" + id.UserID
	}
	signed, err := h.issuer.Mint(ident, req.Name, token.SwitcherGrant(room))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}
	if signed == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "media room tokens are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed, "url": h.issuer.ServerURL(), "room": room})
}
