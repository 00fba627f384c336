package model

import "time"

// CreateMemorialRequest is the request body for POST /api/memorials.
type CreateMemorialRequest struct {
	Slug           string  `json:"slug" binding:"required"`
	Title          string  `json:"title" binding:"required"`
	LeadOperatorID *string `json:"leadOperatorId"`
}

// MemorialView is the API view of a memorial. Provider credentials are
// reduced to the public playback id; the stream key never leaves the service
// through this view.
type MemorialView struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	LeadOperatorID *string   `json:"leadOperatorId,omitempty"`
	PlaybackID     string    `json:"playbackId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
