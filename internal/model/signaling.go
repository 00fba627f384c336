package model

import "time"

// SignalType represents the type of a WebRTC signaling message.
type SignalType string

const (
	SignalTypeOffer     SignalType = "offer"
	SignalTypeAnswer    SignalType = "answer"
	SignalTypeCandidate SignalType = "ice-candidate"
)

// ValidSignalType reports whether t is an accepted signaling message type.
func ValidSignalType(t SignalType) bool {
	switch t {
	case SignalTypeOffer, SignalTypeAnswer, SignalTypeCandidate:
		return true
	}
	return false
}

// SendSignalRequest is the request body for POST /api/signaling/send.
// FromDevice is a pointer so a missing field is distinguishable from false.
type SendSignalRequest struct {
	DeviceID   string      `json:"deviceId" binding:"required"`
	MemorialID string      `json:"memorialId" binding:"required"`
	FromDevice *bool       `json:"fromDevice" binding:"required"`
	Type       string      `json:"type" binding:"required"`
	Payload    interface{} `json:"payload" binding:"required"`
}

// PollSignalRequest is the request body for POST /api/signaling/poll.
type PollSignalRequest struct {
	DeviceID   string `json:"deviceId" binding:"required"`
	MemorialID string `json:"memorialId" binding:"required"`
	FromDevice *bool  `json:"fromDevice" binding:"required"`
}

// SignalView is one delivered signaling message.
type SignalView struct {
	ID         string     `json:"id"`
	Type       SignalType `json:"type"`
	Payload    string     `json:"payload"`
	FromDevice bool       `json:"fromDevice"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// PollSignalResponse is the response for POST /api/signaling/poll.
type PollSignalResponse struct {
	Messages []SignalView `json:"messages"`
}
