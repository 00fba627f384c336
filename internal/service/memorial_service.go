package service

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/auth"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/errs"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
)

// MemorialService is the thin memorial surface the broadcast core hangs off.
// Its main job here is the transactional cascade on delete.
type MemorialService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewMemorialService creates a memorial service.
func NewMemorialService(db *gorm.DB, log *zap.Logger) *MemorialService {
	return &MemorialService{db: db, log: log}
}

// Create creates a memorial. Admin only.
func (s *MemorialService) Create(actor auth.Identity, req model.CreateMemorialRequest) (*model.MemorialView, error) {
	if !actor.IsAdmin() {
		return nil, errs.ErrForbidden
	}
	mem := &model.Memorial{
		ID:             uuid.New().String(),
		Slug:           req.Slug,
		Title:          req.Title,
		CreatorID:      actor.UserID,
		LeadOperatorID: req.LeadOperatorID,
	}
	if err := s.db.Create(mem).Error; err != nil {
		return nil, err
	}
	return memorialToView(mem), nil
}

// Get returns a memorial by id.
func (s *MemorialService) Get(memorialID string) (*model.MemorialView, error) {
	var mem model.Memorial
	if err := s.db.Where("id = ?", memorialID).First(&mem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrMemorialNotFound
		}
		return nil, err
	}
	return memorialToView(&mem), nil
}

// Delete removes a memorial and everything owned by it: signaling messages,
// devices, streams and presence, in one transaction. Admin only.
func (s *MemorialService) Delete(actor auth.Identity, memorialID string) error {
	if !actor.IsAdmin() {
		return errs.ErrForbidden
	}
	var mem model.Memorial
	if err := s.db.Where("id = ?", memorialID).First(&mem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrMemorialNotFound
		}
		return err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("memorial_id = ?", mem.ID).Delete(&model.SignalingMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("memorial_id = ?", mem.ID).Delete(&model.Device{}).Error; err != nil {
			return err
		}
		if err := tx.Where("memorial_id = ?", mem.ID).Delete(&model.Stream{}).Error; err != nil {
			return err
		}
		if err := tx.Where("memorial_id = ?", mem.ID).Delete(&model.BroadcastPresence{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", mem.ID).Delete(&model.Memorial{}).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("memorial deleted", zap.String("memorial_id", mem.ID))
	return nil
}

func memorialToView(mem *model.Memorial) *model.MemorialView {
	return &model.MemorialView{
		ID:             mem.ID,
		Slug:           mem.Slug,
		Title:          mem.Title,
		LeadOperatorID: mem.LeadOperatorID,
		PlaybackID:     mem.MuxPlaybackID,
		CreatedAt:      mem.CreatedAt,
	}
}
