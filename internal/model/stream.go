package model

import "time"

// StreamStatus represents broadcast lifecycle state.
type StreamStatus string

const (
	StreamStatusProvisioned StreamStatus = "provisioned"
	StreamStatusLive        StreamStatus = "live"
	StreamStatusEnded       StreamStatus = "ended"
)

// CreateStreamRequest is the request body for POST /api/streams.
type CreateStreamRequest struct {
	MemorialID         string     `json:"memorialId" binding:"required"`
	Title              string     `json:"title"`
	Description        *string    `json:"description"`
	ScheduledStartTime *time.Time `json:"scheduledStartTime"`
}

// CreateStreamResponse is the response for POST /api/streams. StreamKey is
// only handed to the authorized operator who provisioned it.
type CreateStreamResponse struct {
	StreamID      string `json:"streamId"`
	StreamKey     string `json:"streamKey"`
	PlaybackID    string `json:"playbackId"`
	RoomName      string `json:"roomName"`
	AlreadyExists bool   `json:"alreadyExists"`
}

// GoLiveRequest is the request body for POST /api/streams/go-live.
type GoLiveRequest struct {
	MemorialID string `json:"memorialId" binding:"required"`
}

// GoLiveResponse is the response for POST /api/streams/go-live.
type GoLiveResponse struct {
	Success    bool         `json:"success"`
	Status     StreamStatus `json:"status"`
	PlaybackID string       `json:"playbackId"`
}

// CheckLiveResponse is the response for GET /api/streams/:id/live. Not-live
// is a normal result carrying a diagnostic, never an error.
type CheckLiveResponse struct {
	IsLive   bool   `json:"isLive"`
	WatchURL string `json:"watchUrl,omitempty"`
	Message  string `json:"message,omitempty"`
}

// BroadcastStatusRequest is the request body for POST /api/streams/broadcast-status.
type BroadcastStatusRequest struct {
	MemorialID string `json:"memorialId" binding:"required"`
	Action     string `json:"action" binding:"required"` // start or stop
	HLSURL     string `json:"hlsUrl"`
}

// PresenceView is the coarse live flag merged into viewer-facing responses.
type PresenceView struct {
	IsLive    bool       `json:"isLive"`
	HLSURL    string     `json:"hlsUrl,omitempty"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}
