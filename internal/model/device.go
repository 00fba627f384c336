package model

import "time"

// DeviceStatus represents camera device connection state.
type DeviceStatus string

const (
	DeviceStatusPending      DeviceStatus = "pending"
	DeviceStatusConnecting   DeviceStatus = "connecting"
	DeviceStatusConnected    DeviceStatus = "connected"
	DeviceStatusDisconnected DeviceStatus = "disconnected"
	DeviceStatusStreaming    DeviceStatus = "streaming"
)

// ClientSettableStatus reports whether a status may be set through the public
// status endpoint. Devices never set pending or streaming directly.
func ClientSettableStatus(s DeviceStatus) bool {
	switch s {
	case DeviceStatusConnecting, DeviceStatusConnected, DeviceStatusDisconnected:
		return true
	}
	return false
}

// IssueTokenRequest is the request body for POST /api/devices/token.
type IssueTokenRequest struct {
	MemorialID string `json:"memorialId" binding:"required"`
	DeviceName string `json:"deviceName"`
}

// IssueTokenResponse is the response for POST /api/devices/token.
type IssueTokenResponse struct {
	DeviceID  string    `json:"deviceId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ClaimTokenRequest is the request body for POST /api/devices/claim.
type ClaimTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// DeviceView is the API view of a device (no pairing token).
type DeviceView struct {
	ID         string       `json:"id"`
	MemorialID string       `json:"memorialId"`
	Name       string       `json:"name"`
	Status     DeviceStatus `json:"status"`
	LastSeen   *time.Time   `json:"lastSeen,omitempty"`
}

// UpdateStatusRequest is the request body for POST /api/devices/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CleanupResponse is the response for POST /api/devices/cleanup.
type CleanupResponse struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}
