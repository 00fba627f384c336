package model

import "time"

// Memorial is the owning broadcast session (GORM entity). Devices, streams
// and presence hang off it; deleting a memorial cascades in the service layer.
type Memorial struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	Slug           string  `gorm:"size:120;not null;uniqueIndex"`
	Title          string  `gorm:"size:255;not null"`
	CreatorID      string  `gorm:"type:uuid;not null;index"`
	LeadOperatorID *string `gorm:"type:uuid;index"`

	// Main-broadcast credentials from the live provider. StreamKey is the
	// secret ingest credential and is never returned to unprivileged callers.
	MuxStreamKey    string `gorm:"size:128"`
	MuxPlaybackID   string `gorm:"size:128"`
	MuxLiveStreamID string `gorm:"size:128"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Devices []Device `gorm:"foreignKey:MemorialID"`
	Streams []Stream `gorm:"foreignKey:MemorialID"`
}

func (Memorial) TableName() string { return "memorials" }

// Device is a camera device paired (or pairing) to a memorial (GORM entity).
type Device struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	MemorialID string  `gorm:"type:uuid;not null;index"`
	UserID     *string `gorm:"type:uuid"`
	Name       string  `gorm:"size:120"`

	// Token is the single-use pairing secret; only meaningful while the
	// device is pending and token_expires_at is in the future.
	Token          string     `gorm:"size:64;not null;uniqueIndex"`
	Status         string     `gorm:"size:20;not null;default:pending"` // pending, connecting, connected, disconnected, streaming
	TokenExpiresAt time.Time  `gorm:"column:token_expires_at;not null"`
	LastSeen       *time.Time `gorm:"column:last_seen"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`

	Messages []SignalingMessage `gorm:"foreignKey:DeviceID"`
}

func (Device) TableName() string { return "devices" }

// SignalingMessage is one store-and-forward WebRTC negotiation message
// (GORM entity). Consumed flips exactly once, atomically with the poll that
// returns the row.
type SignalingMessage struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	DeviceID   string    `gorm:"type:uuid;not null;index:idx_signaling_mailbox"`
	MemorialID string    `gorm:"type:uuid;not null;index:idx_signaling_mailbox"`
	FromDevice bool      `gorm:"not null"` // true = camera origin, false = switcher origin
	Type       string    `gorm:"size:20;not null"`
	Payload    string    `gorm:"type:text;not null"`
	Consumed   bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (SignalingMessage) TableName() string { return "signaling_messages" }

// Stream is one provisioned broadcast (GORM entity). Its status runs
// provisioned -> live -> ended and ended is terminal; the coarse start/stop
// presence lives in BroadcastPresence instead.
type Stream struct {
	ID                 string     `gorm:"type:uuid;primaryKey"`
	MemorialID         string     `gorm:"type:uuid;not null;index"`
	Title              string     `gorm:"size:255"`
	Description        *string    `gorm:"type:text"`
	ScheduledStartTime *time.Time `gorm:"column:scheduled_start_time"`
	Status             string     `gorm:"size:20;not null;default:provisioned"` // provisioned, live, ended

	StreamKey    string `gorm:"size:128"`
	PlaybackID   string `gorm:"size:128"`
	LiveStreamID string `gorm:"size:128"`

	// Optional link to a calculator-driven service slot for memorials with
	// multiple streams (one per location/day).
	CalculatorServiceType  *string `gorm:"size:40"`
	CalculatorServiceIndex *int

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Stream) TableName() string { return "streams" }

// BroadcastPresence is the coarse live/stopped flag per memorial (GORM
// entity). One row per memorial; cycles freely across repeated start/stop of
// the same room, independent of any Stream row's terminal state.
type BroadcastPresence struct {
	ID         string     `gorm:"type:uuid;primaryKey"`
	MemorialID string     `gorm:"type:uuid;not null;uniqueIndex"`
	IsLive     bool       `gorm:"not null;default:false"`
	HLSURL     string     `gorm:"column:hls_url;size:512"`
	StartedAt  *time.Time `gorm:"column:started_at"`
	EndedAt    *time.Time `gorm:"column:ended_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
}

func (BroadcastPresence) TableName() string { return "broadcast_presences" }
