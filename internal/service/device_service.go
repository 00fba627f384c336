package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/auth"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/errs"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
)

// DeviceService is the device registry: pairing tokens, connection status,
// stale-device garbage collection.
type DeviceService struct {
	db         *gorm.DB
	tokenTTL   time.Duration
	staleAfter time.Duration
	log        *zap.Logger
}

// NewDeviceService creates a device service.
func NewDeviceService(db *gorm.DB, tokenTTL, staleAfter time.Duration, log *zap.Logger) *DeviceService {
	return &DeviceService{db: db, tokenTTL: tokenTTL, staleAfter: staleAfter, log: log}
}

// newPairingToken returns a URL-safe token with 192 bits of entropy from
// crypto/rand. The token is the sole authentication factor for camera
// pairing, so a CSPRNG is a hard requirement here.
func newPairingToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("pairing token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// authorizeMemorial loads the memorial and checks the actor is admin or its
// assigned lead operator.
func authorizeMemorial(db *gorm.DB, actor auth.Identity, memorialID string) (*model.Memorial, error) {
	var mem model.Memorial
	if err := db.Where("id = ?", memorialID).First(&mem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrMemorialNotFound
		}
		return nil, err
	}
	if actor.IsAdmin() {
		return &mem, nil
	}
	if mem.LeadOperatorID != nil && *mem.LeadOperatorID == actor.UserID {
		return &mem, nil
	}
	return nil, errs.ErrForbidden
}

// IssuePairingToken creates a pending device with a short-lived pairing
// token. Requires admin or the memorial's lead operator.
func (s *DeviceService) IssuePairingToken(actor auth.Identity, memorialID, deviceName string) (*model.IssueTokenResponse, error) {
	if _, err := authorizeMemorial(s.db, actor, memorialID); err != nil {
		return nil, err
	}
	tok, err := newPairingToken()
	if err != nil {
		return nil, err
	}
	userID := actor.UserID
	dev := &model.Device{
		ID:             uuid.New().String(),
		MemorialID:     memorialID,
		UserID:         &userID,
		Name:           deviceName,
		Token:          tok,
		Status:         string(model.DeviceStatusPending),
		TokenExpiresAt: time.Now().Add(s.tokenTTL),
	}
	if err := s.db.Create(dev).Error; err != nil {
		return nil, err
	}
	s.log.Info("pairing token issued",
		zap.String("memorial_id", memorialID),
		zap.String("device_id", dev.ID))
	return &model.IssueTokenResponse{
		DeviceID:  dev.ID,
		Token:     tok,
		ExpiresAt: dev.TokenExpiresAt,
	}, nil
}

// ClaimPairingToken resolves a pending, unexpired token to its device and
// moves it to connecting. The conditional update closes the claim window, so
// a second claim (or an expired token) gets not-found with no oracle about
// why.
func (s *DeviceService) ClaimPairingToken(tokenStr string) (*model.DeviceView, error) {
	now := time.Now()
	res := s.db.Model(&model.Device{}).
		Where("token = ? AND status = ? AND token_expires_at > ?", tokenStr, string(model.DeviceStatusPending), now).
		Updates(map[string]interface{}{
			"status":    string(model.DeviceStatusConnecting),
			"last_seen": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrDeviceNotFound
	}
	var dev model.Device
	if err := s.db.Where("token = ?", tokenStr).First(&dev).Error; err != nil {
		return nil, err
	}
	s.log.Info("device claimed",
		zap.String("memorial_id", dev.MemorialID),
		zap.String("device_id", dev.ID))
	return deviceToView(&dev), nil
}

// GetDeviceStatus returns the public view of a device.
func (s *DeviceService) GetDeviceStatus(deviceID string) (*model.DeviceView, error) {
	var dev model.Device
	if err := s.db.Where("id = ?", deviceID).First(&dev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrDeviceNotFound
		}
		return nil, err
	}
	return deviceToView(&dev), nil
}

// UpdateDeviceStatus sets a client-settable status (connecting, connected,
// disconnected) and stamps last_seen. Pending and streaming are never set
// through this path.
func (s *DeviceService) UpdateDeviceStatus(deviceID, status string) (model.DeviceStatus, error) {
	st := model.DeviceStatus(status)
	if !model.ClientSettableStatus(st) {
		return "", errs.ErrInvalidDeviceStatus
	}
	res := s.db.Model(&model.Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"status":    string(st),
			"last_seen": time.Now(),
		})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", errs.ErrDeviceNotFound
	}
	return st, nil
}

// CleanupStaleDevices deletes expired-pending, stale-connecting and
// disconnected devices together with their signaling messages. Connected and
// streaming devices are never touched regardless of age. Row-level failures
// are logged and skipped; the sweep reports the achieved count.
func (s *DeviceService) CleanupStaleDevices(actor auth.Identity) (int, error) {
	if !actor.IsAdmin() {
		return 0, errs.ErrForbidden
	}
	now := time.Now()
	staleBefore := now.Add(-s.staleAfter)

	var candidates []model.Device
	err := s.db.
		Where("(status = ? AND token_expires_at < ?)", string(model.DeviceStatusPending), now).
		Or("(status = ? AND (last_seen IS NULL OR last_seen < ?))", string(model.DeviceStatusConnecting), staleBefore).
		Or("status = ?", string(model.DeviceStatusDisconnected)).
		Find(&candidates).Error
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, dev := range candidates {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("device_id = ?", dev.ID).Delete(&model.SignalingMessage{}).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", dev.ID).Delete(&model.Device{}).Error
		})
		if err != nil {
			s.log.Warn("cleanup: delete device failed",
				zap.String("device_id", dev.ID),
				zap.Error(err))
			continue
		}
		deleted++
	}
	if deleted > 0 {
		s.log.Info("cleanup: stale devices removed", zap.Int("deleted", deleted))
	}
	return deleted, nil
}

func deviceToView(dev *model.Device) *model.DeviceView {
	return &model.DeviceView{
		ID:         dev.ID,
		MemorialID: dev.MemorialID,
		Name:       dev.Name,
		Status:     model.DeviceStatus(dev.Status),
		LastSeen:   dev.LastSeen,
	}
}
