package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/errs"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
)

type fakeProvider struct {
	createCalls int
	status      string
	failCreate  bool
	failDelete  bool
	deleted     []string
}

func (f *fakeProvider) Create(ctx context.Context, correlationTag string) (*ProvisionedStream, error) {
	f.createCalls++
	if f.failCreate {
		return nil, errors.New("boom")
	}
	return &ProvisionedStream{
		ID:         "ls-" + correlationTag,
		StreamKey:  "sk-" + correlationTag,
		PlaybackID: "pb-" + correlationTag,
	}, nil
}

func (f *fakeProvider) Delete(ctx context.Context, liveStreamID string) error {
	f.deleted = append(f.deleted, liveStreamID)
	if f.failDelete {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeProvider) GetStatus(ctx context.Context, liveStreamID string) (string, error) {
	return f.status, nil
}

func newStreamFixture(t *testing.T) (*StreamService, *fakeProvider, *gorm.DB, *model.Memorial) {
	t.Helper()
	db := newTestDB(t)
	mem := seedMemorial(t, db)
	fake := &fakeProvider{status: "idle"}
	return NewStreamService(db, fake, zap.NewNop()), fake, db, mem
}

func TestProvision(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent create", func(t *testing.T) {
		svc, fake, db, mem := newStreamFixture(t)

		first, err := svc.Provision(ctx, operator, model.CreateStreamRequest{MemorialID: mem.ID})
		require.NoError(t, err)
		assert.False(t, first.AlreadyExists)
		assert.Equal(t, "sk-"+mem.Slug, first.StreamKey)
		assert.Equal(t, "pb-"+mem.Slug, first.PlaybackID)
		assert.Equal(t, "memorial-"+mem.ID, first.RoomName)

		second, err := svc.Provision(ctx, operator, model.CreateStreamRequest{MemorialID: mem.ID})
		require.NoError(t, err)
		assert.True(t, second.AlreadyExists)
		assert.Equal(t, first.StreamKey, second.StreamKey)
		assert.Equal(t, first.PlaybackID, second.PlaybackID)
		assert.Equal(t, 1, fake.createCalls, "provider called exactly once")

		var stream model.Stream
		require.NoError(t, db.Where("memorial_id = ?", mem.ID).First(&stream).Error)
		assert.Equal(t, string(model.StreamStatusProvisioned), stream.Status)
	})

	t.Run("existing key short-circuits without provider call", func(t *testing.T) {
		svc, fake, db, mem := newStreamFixture(t)
		require.NoError(t, db.Model(&model.Memorial{}).Where("id = ?", mem.ID).Updates(map[string]interface{}{
			"mux_stream_key":  "sk_existing",
			"mux_playback_id": "pb_existing",
		}).Error)

		resp, err := svc.Provision(ctx, admin, model.CreateStreamRequest{MemorialID: mem.ID})
		require.NoError(t, err)
		assert.True(t, resp.AlreadyExists)
		assert.Equal(t, "sk_existing", resp.StreamKey)
		assert.Zero(t, fake.createCalls)
	})

	t.Run("provider failure persists nothing", func(t *testing.T) {
		svc, fake, db, mem := newStreamFixture(t)
		fake.failCreate = true

		_, err := svc.Provision(ctx, admin, model.CreateStreamRequest{MemorialID: mem.ID})
		assert.ErrorIs(t, err, errs.ErrUpstream)

		var got model.Memorial
		require.NoError(t, db.Where("id = ?", mem.ID).First(&got).Error)
		assert.Empty(t, got.MuxStreamKey)
		var count int64
		require.NoError(t, db.Model(&model.Stream{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("authorization", func(t *testing.T) {
		svc, _, _, mem := newStreamFixture(t)
		_, err := svc.Provision(ctx, stranger, model.CreateStreamRequest{MemorialID: mem.ID})
		assert.ErrorIs(t, err, errs.ErrForbidden)
		_, err = svc.Provision(ctx, admin, model.CreateStreamRequest{MemorialID: "b0000000-0000-4000-8000-000000000000"})
		assert.ErrorIs(t, err, errs.ErrMemorialNotFound)
	})
}

func TestGoLiveOrdering(t *testing.T) {
	ctx := context.Background()
	svc, fake, _, mem := newStreamFixture(t)

	// Live before provisioning is a precondition failure, not an upstream call.
	_, err := svc.GoLive(operator, mem.ID)
	assert.ErrorIs(t, err, errs.ErrStreamNotProvisioned)

	created, err := svc.Provision(ctx, operator, model.CreateStreamRequest{MemorialID: mem.ID})
	require.NoError(t, err)

	resp, err := svc.GoLive(operator, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StreamStatusLive, resp.Status)
	assert.Equal(t, created.PlaybackID, resp.PlaybackID)

	// Provider reports active ingest: checkLive surfaces the watch URL.
	fake.status = "active"
	live, err := svc.CheckLive(ctx, created.StreamID)
	require.NoError(t, err)
	assert.True(t, live.IsLive)
	assert.Equal(t, "https://stream.mux.com/"+created.PlaybackID+".m3u8", live.WatchURL)

	// Going live twice stays live.
	again, err := svc.GoLive(operator, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StreamStatusLive, again.Status)
}

func TestCheckLive(t *testing.T) {
	ctx := context.Background()

	t.Run("not active is a normal result", func(t *testing.T) {
		svc, fake, _, mem := newStreamFixture(t)
		created, err := svc.Provision(ctx, admin, model.CreateStreamRequest{MemorialID: mem.ID})
		require.NoError(t, err)

		fake.status = "idle"
		resp, err := svc.CheckLive(ctx, created.StreamID)
		require.NoError(t, err)
		assert.False(t, resp.IsLive)
		assert.NotEmpty(t, resp.Message)
		assert.Empty(t, resp.WatchURL)
	})

	t.Run("missing stream", func(t *testing.T) {
		svc, _, _, _ := newStreamFixture(t)
		_, err := svc.CheckLive(ctx, "b0000000-0000-4000-8000-000000000000")
		assert.ErrorIs(t, err, errs.ErrStreamNotFound)
	})

	t.Run("no provider id stored", func(t *testing.T) {
		svc, _, db, mem := newStreamFixture(t)
		stream := &model.Stream{ID: "c0000000-0000-4000-8000-000000000010", MemorialID: mem.ID, Status: "provisioned"}
		require.NoError(t, db.Create(stream).Error)

		resp, err := svc.CheckLive(ctx, stream.ID)
		require.NoError(t, err)
		assert.False(t, resp.IsLive)
	})
}

func TestBroadcastStatus(t *testing.T) {
	svc, _, db, mem := newStreamFixture(t)

	t.Run("stop before start is a no-op", func(t *testing.T) {
		acted, err := svc.BroadcastStatus(operator, mem.ID, "stop", "")
		require.NoError(t, err)
		assert.False(t, acted)
	})

	t.Run("start creates presence", func(t *testing.T) {
		acted, err := svc.BroadcastStatus(operator, mem.ID, "start", "https://cdn.example.com/live.m3u8")
		require.NoError(t, err)
		assert.True(t, acted)

		view, err := svc.Presence(mem.ID)
		require.NoError(t, err)
		assert.True(t, view.IsLive)
		assert.Equal(t, "https://cdn.example.com/live.m3u8", view.HLSURL)
		require.NotNil(t, view.StartedAt)
	})

	t.Run("stop flips the flag but keeps the record", func(t *testing.T) {
		acted, err := svc.BroadcastStatus(operator, mem.ID, "stop", "")
		require.NoError(t, err)
		assert.True(t, acted)

		view, err := svc.Presence(mem.ID)
		require.NoError(t, err)
		assert.False(t, view.IsLive)
		require.NotNil(t, view.EndedAt)

		var count int64
		require.NoError(t, db.Model(&model.BroadcastPresence{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("presence cycles across restarts", func(t *testing.T) {
		acted, err := svc.BroadcastStatus(operator, mem.ID, "start", "")
		require.NoError(t, err)
		assert.True(t, acted)

		view, err := svc.Presence(mem.ID)
		require.NoError(t, err)
		assert.True(t, view.IsLive)
		assert.Nil(t, view.EndedAt, "restart clears the end timestamp")
	})

	t.Run("invalid action", func(t *testing.T) {
		_, err := svc.BroadcastStatus(operator, mem.ID, "pause", "")
		assert.ErrorIs(t, err, errs.ErrInvalidAction)
	})
}

func TestTeardown(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes provider and local state", func(t *testing.T) {
		svc, fake, db, mem := newStreamFixture(t)
		created, err := svc.Provision(ctx, admin, model.CreateStreamRequest{MemorialID: mem.ID})
		require.NoError(t, err)

		require.NoError(t, svc.Teardown(ctx, admin, created.StreamID))
		assert.Equal(t, []string{"ls-" + mem.Slug}, fake.deleted)

		var count int64
		require.NoError(t, db.Model(&model.Stream{}).Count(&count).Error)
		assert.Zero(t, count)

		var got model.Memorial
		require.NoError(t, db.Where("id = ?", mem.ID).First(&got).Error)
		assert.Empty(t, got.MuxStreamKey, "memorial credentials cleared")
		assert.Empty(t, got.MuxLiveStreamID)
	})

	t.Run("provider failure is best-effort", func(t *testing.T) {
		svc, fake, db, mem := newStreamFixture(t)
		created, err := svc.Provision(ctx, admin, model.CreateStreamRequest{MemorialID: mem.ID})
		require.NoError(t, err)
		fake.failDelete = true

		require.NoError(t, svc.Teardown(ctx, admin, created.StreamID))
		var count int64
		require.NoError(t, db.Model(&model.Stream{}).Count(&count).Error)
		assert.Zero(t, count, "local record removed even when provider delete fails")
	})

	t.Run("missing stream", func(t *testing.T) {
		svc, _, _, _ := newStreamFixture(t)
		err := svc.Teardown(ctx, admin, "b0000000-0000-4000-8000-000000000000")
		assert.ErrorIs(t, err, errs.ErrStreamNotFound)
	})
}
