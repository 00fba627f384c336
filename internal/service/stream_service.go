package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/auth"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/errs"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/token"
)

// ProvisionedStream is what the live provider hands back on create.
type ProvisionedStream struct {
	ID         string
	StreamKey  string
	PlaybackID string
}

// LiveProvider is the external live-stream collaborator (Mux in production).
type LiveProvider interface {
	Create(ctx context.Context, correlationTag string) (*ProvisionedStream, error)
	Delete(ctx context.Context, liveStreamID string) error
	GetStatus(ctx context.Context, liveStreamID string) (string, error)
}

const providerStatusActive = "active"

// StreamService owns the broadcast lifecycle state machine: provisioned ->
// live -> ended per Stream, plus the coarse BroadcastPresence flag that
// cycles freely across start/stop of the same room.
type StreamService struct {
	db       *gorm.DB
	provider LiveProvider // nil when no provider credentials are configured
	log      *zap.Logger
}

// NewStreamService creates a stream service. provider may be nil.
func NewStreamService(db *gorm.DB, provider LiveProvider, log *zap.Logger) *StreamService {
	return &StreamService{db: db, provider: provider, log: log}
}

// Provision creates (or returns) the memorial's live ingest endpoint.
// Idempotent: when the memorial already holds a stream key the existing
// credentials come back with AlreadyExists set and the provider is not
// called. Nothing is persisted when the provider call fails.
func (s *StreamService) Provision(ctx context.Context, actor auth.Identity, req model.CreateStreamRequest) (*model.CreateStreamResponse, error) {
	mem, err := authorizeMemorial(s.db, actor, req.MemorialID)
	if err != nil {
		return nil, err
	}

	if mem.MuxStreamKey != "" {
		resp := &model.CreateStreamResponse{
			StreamKey:     mem.MuxStreamKey,
			PlaybackID:    mem.MuxPlaybackID,
			RoomName:      token.RoomName(mem.ID),
			AlreadyExists: true,
		}
		var existing model.Stream
		err := s.db.Where("memorial_id = ? AND status <> ?", mem.ID, string(model.StreamStatusEnded)).
			Order("created_at DESC").First(&existing).Error
		if err == nil {
			resp.StreamID = existing.ID
		}
		return resp, nil
	}

	if s.provider == nil {
		return nil, fmt.Errorf("%w: provider not configured", errs.ErrUpstream)
	}
	ls, err := s.provider.Create(ctx, mem.Slug)
	if err != nil {
		s.log.Error("provision: provider create failed",
			zap.String("memorial_id", mem.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errs.ErrUpstream, err)
	}

	title := req.Title
	if title == "" {
		title = mem.Title
	}
	stream := &model.Stream{
		ID:                 uuid.New().String(),
		MemorialID:         mem.ID,
		Title:              title,
		Description:        req.Description,
		ScheduledStartTime: req.ScheduledStartTime,
		Status:             string(model.StreamStatusProvisioned),
		StreamKey:          ls.StreamKey,
		PlaybackID:         ls.PlaybackID,
		LiveStreamID:       ls.ID,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Memorial{}).Where("id = ?", mem.ID).Updates(map[string]interface{}{
			"mux_stream_key":     ls.StreamKey,
			"mux_playback_id":    ls.PlaybackID,
			"mux_live_stream_id": ls.ID,
		}).Error; err != nil {
			return err
		}
		return tx.Create(stream).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stream provisioned",
		zap.String("memorial_id", mem.ID),
		zap.String("stream_id", stream.ID),
		zap.String("playback_id", ls.PlaybackID))
	return &model.CreateStreamResponse{
		StreamID:   stream.ID,
		StreamKey:  ls.StreamKey,
		PlaybackID: ls.PlaybackID,
		RoomName:   token.RoomName(mem.ID),
	}, nil
}

// GoLive moves the memorial's provisioned stream to live. Requires a prior
// successful Provision; without a stream key this is a precondition failure,
// not an upstream call.
func (s *StreamService) GoLive(actor auth.Identity, memorialID string) (*model.GoLiveResponse, error) {
	mem, err := authorizeMemorial(s.db, actor, memorialID)
	if err != nil {
		return nil, err
	}
	if mem.MuxStreamKey == "" {
		return nil, errs.ErrStreamNotProvisioned
	}

	var stream model.Stream
	err = s.db.Where("memorial_id = ? AND status IN ?", mem.ID,
		[]string{string(model.StreamStatusProvisioned), string(model.StreamStatusLive)}).
		Order("created_at DESC").First(&stream).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrStreamNotProvisioned
		}
		return nil, err
	}
	if stream.Status != string(model.StreamStatusLive) {
		if err := s.db.Model(&stream).Update("status", string(model.StreamStatusLive)).Error; err != nil {
			return nil, err
		}
	}

	s.log.Info("stream live",
		zap.String("memorial_id", mem.ID),
		zap.String("stream_id", stream.ID))
	return &model.GoLiveResponse{
		Success:    true,
		Status:     model.StreamStatusLive,
		PlaybackID: mem.MuxPlaybackID,
	}, nil
}

// CheckLive asks the provider whether ingest is actually receiving media.
// Not-live is a normal result with a diagnostic message; only a failed
// provider round-trip is an error.
func (s *StreamService) CheckLive(ctx context.Context, streamID string) (*model.CheckLiveResponse, error) {
	var stream model.Stream
	if err := s.db.Where("id = ?", streamID).First(&stream).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrStreamNotFound
		}
		return nil, err
	}
	if stream.LiveStreamID == "" || s.provider == nil {
		return &model.CheckLiveResponse{IsLive: false, Message: "no live stream provisioned"}, nil
	}

	status, err := s.provider.GetStatus(ctx, stream.LiveStreamID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUpstream, err)
	}
	if status == providerStatusActive {
		return &model.CheckLiveResponse{
			IsLive:   true,
			WatchURL: fmt.Sprintf("https://stream.mux.com/%s.m3u8", stream.PlaybackID),
		}, nil
	}
	msg := "stream is not active"
	if status != "" {
		msg = "stream status: " + status
	}
	return &model.CheckLiveResponse{IsLive: false, Message: msg}, nil
}

// BroadcastStatus reflects an externally managed start/stop event into the
// BroadcastPresence record. Start is create-or-update; stop only updates and
// is a no-op when no presence exists. Returns whether a record was touched.
func (s *StreamService) BroadcastStatus(actor auth.Identity, memorialID, action, hlsURL string) (bool, error) {
	mem, err := authorizeMemorial(s.db, actor, memorialID)
	if err != nil {
		return false, err
	}

	now := time.Now()
	switch action {
	case "start":
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var p model.BroadcastPresence
			err := tx.Where("memorial_id = ?", mem.ID).First(&p).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(&model.BroadcastPresence{
					ID:         uuid.New().String(),
					MemorialID: mem.ID,
					IsLive:     true,
					HLSURL:     hlsURL,
					StartedAt:  &now,
				}).Error
			}
			if err != nil {
				return err
			}
			updates := map[string]interface{}{
				"is_live":    true,
				"started_at": now,
				"ended_at":   nil,
			}
			if hlsURL != "" {
				updates["hls_url"] = hlsURL
			}
			return tx.Model(&p).Updates(updates).Error
		})
		if err != nil {
			return false, err
		}
		s.log.Info("broadcast started", zap.String("memorial_id", mem.ID))
		return true, nil
	case "stop":
		res := s.db.Model(&model.BroadcastPresence{}).
			Where("memorial_id = ?", mem.ID).
			Updates(map[string]interface{}{
				"is_live":  false,
				"ended_at": now,
			})
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected > 0 {
			s.log.Info("broadcast stopped", zap.String("memorial_id", mem.ID))
		}
		return res.RowsAffected > 0, nil
	default:
		return false, errs.ErrInvalidAction
	}
}

// Presence returns the coarse live flag for a memorial, or an empty view
// when none exists yet.
func (s *StreamService) Presence(memorialID string) (*model.PresenceView, error) {
	var p model.BroadcastPresence
	if err := s.db.Where("memorial_id = ?", memorialID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.PresenceView{}, nil
		}
		return nil, err
	}
	return &model.PresenceView{
		IsLive:    p.IsLive,
		HLSURL:    p.HLSURL,
		StartedAt: p.StartedAt,
		EndedAt:   p.EndedAt,
	}, nil
}

// Teardown deletes the provider-side live stream (best effort) and then the
// local Stream record, clearing the memorial's credentials when they pointed
// at the deleted stream. No local record is left referencing a deleted
// provider resource.
func (s *StreamService) Teardown(ctx context.Context, actor auth.Identity, streamID string) error {
	var stream model.Stream
	if err := s.db.Where("id = ?", streamID).First(&stream).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrStreamNotFound
		}
		return err
	}
	mem, err := authorizeMemorial(s.db, actor, stream.MemorialID)
	if err != nil {
		return err
	}

	if s.provider != nil && stream.LiveStreamID != "" {
		if err := s.provider.Delete(ctx, stream.LiveStreamID); err != nil {
			s.log.Warn("teardown: provider delete failed, proceeding",
				zap.String("stream_id", stream.ID),
				zap.String("live_stream_id", stream.LiveStreamID),
				zap.Error(err))
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", stream.ID).Delete(&model.Stream{}).Error; err != nil {
			return err
		}
		if mem.MuxLiveStreamID != "" && mem.MuxLiveStreamID == stream.LiveStreamID {
			return tx.Model(&model.Memorial{}).Where("id = ?", mem.ID).Updates(map[string]interface{}{
				"mux_stream_key":     "",
				"mux_playback_id":    "",
				"mux_live_stream_id": "",
			}).Error
		}
		return nil
	})
}
