package service

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/errs"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
)

// Wakeup notifies waiting pollers that mail arrived for a direction. The
// notify hub implements it; a nil Wakeup disables push wakeups.
type Wakeup interface {
	Notify(deviceID string, fromDevice bool)
}

// SignalingService is the store-and-forward mailbox relaying WebRTC
// negotiation messages between a camera device and the switcher. Callers
// poll; ordering within one mailbox is insertion order and each message is
// delivered at most once.
type SignalingService struct {
	db     *gorm.DB
	wakeup Wakeup
	log    *zap.Logger
}

// NewSignalingService creates a signaling service. wakeup may be nil.
func NewSignalingService(db *gorm.DB, wakeup Wakeup, log *zap.Logger) *SignalingService {
	return &SignalingService{db: db, wakeup: wakeup, log: log}
}

// checkDevice verifies the device exists and belongs to the supplied
// memorial. A mismatch is reported as not-found so a caller holding a device
// id from another session learns nothing.
func (s *SignalingService) checkDevice(deviceID, memorialID string) error {
	var dev model.Device
	if err := s.db.Select("id", "memorial_id").Where("id = ?", deviceID).First(&dev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrDeviceNotFound
		}
		return err
	}
	if dev.MemorialID != memorialID {
		return errs.ErrDeviceNotFound
	}
	return nil
}

func (s *SignalingService) touchDevice(deviceID string) {
	if err := s.db.Model(&model.Device{}).
		Where("id = ?", deviceID).
		Update("last_seen", time.Now()).Error; err != nil {
		s.log.Warn("signaling: update last_seen failed",
			zap.String("device_id", deviceID), zap.Error(err))
	}
}

// ValidateMailbox checks a device/memorial pair without touching the
// mailbox. Used by the WebSocket wakeup endpoint before upgrading.
func (s *SignalingService) ValidateMailbox(deviceID, memorialID string) error {
	return s.checkDevice(deviceID, memorialID)
}

// Send stores one negotiation message for the opposite party. Payload is
// stored as text; non-string payloads are serialized to JSON.
func (s *SignalingService) Send(deviceID, memorialID string, fromDevice bool, signalType string, payload interface{}) error {
	if !model.ValidSignalType(model.SignalType(signalType)) {
		return errs.ErrInvalidSignalType
	}
	if err := s.checkDevice(deviceID, memorialID); err != nil {
		return err
	}

	text, ok := payload.(string)
	if !ok {
		raw, err := json.Marshal(payload)
		if err != nil {
			return errs.ErrInvalidPayload
		}
		text = string(raw)
	}

	msg := &model.SignalingMessage{
		ID:         uuid.New().String(),
		DeviceID:   deviceID,
		MemorialID: memorialID,
		FromDevice: fromDevice,
		Type:       signalType,
		Payload:    text,
		Consumed:   false,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return err
	}
	s.touchDevice(deviceID)

	// Wake pollers on the receiving side; delivery itself stays pull-based.
	if s.wakeup != nil {
		s.wakeup.Notify(deviceID, !fromDevice)
	}
	return nil
}

// Poll returns and consumes all pending messages addressed to the caller's
// direction, oldest first. Consumption is one conditional UPDATE … RETURNING,
// so concurrent polls for the same direction partition the pending set
// disjointly: no message is delivered twice and none are dropped. An empty
// mailbox returns an empty slice, not an error.
func (s *SignalingService) Poll(deviceID, memorialID string, fromDevice bool) ([]model.SignalView, error) {
	if err := s.checkDevice(deviceID, memorialID); err != nil {
		return nil, err
	}

	var consumed []model.SignalingMessage
	res := s.db.Model(&consumed).
		Clauses(clause.Returning{}).
		Where("device_id = ? AND memorial_id = ? AND from_device = ? AND consumed = ?",
			deviceID, memorialID, !fromDevice, false).
		Update("consumed", true)
	if res.Error != nil {
		return nil, res.Error
	}
	s.touchDevice(deviceID)

	// RETURNING has no order guarantee; restore insertion order here.
	sort.Slice(consumed, func(i, j int) bool {
		if consumed[i].CreatedAt.Equal(consumed[j].CreatedAt) {
			return consumed[i].ID < consumed[j].ID
		}
		return consumed[i].CreatedAt.Before(consumed[j].CreatedAt)
	})

	out := make([]model.SignalView, 0, len(consumed))
	for _, m := range consumed {
		out = append(out, model.SignalView{
			ID:         m.ID,
			Type:       model.SignalType(m.Type),
			Payload:    m.Payload,
			FromDevice: m.FromDevice,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
