package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/errs"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
)

func newSignalingFixture(t *testing.T) (*SignalingService, *model.Memorial, *model.Device) {
	t.Helper()
	db := newTestDB(t)
	mem := seedMemorial(t, db)
	dev := seedDevice(t, db, mem.ID, string(model.DeviceStatusConnected),
		time.Now().Add(5*time.Minute), nil)
	return NewSignalingService(db, nil, zap.NewNop()), mem, dev
}

func TestSignalingSend(t *testing.T) {
	svc, mem, dev := newSignalingFixture(t)

	t.Run("invalid type", func(t *testing.T) {
		err := svc.Send(dev.ID, mem.ID, true, "renegotiate", "x")
		assert.ErrorIs(t, err, errs.ErrInvalidSignalType)
	})

	t.Run("unknown device", func(t *testing.T) {
		err := svc.Send("b0000000-0000-4000-8000-000000000000", mem.ID, true, "offer", "x")
		assert.ErrorIs(t, err, errs.ErrDeviceNotFound)
	})

	t.Run("cross-session mismatch is not found", func(t *testing.T) {
		err := svc.Send(dev.ID, "b0000000-0000-4000-8000-000000000000", true, "offer", "x")
		assert.ErrorIs(t, err, errs.ErrDeviceNotFound)
	})

	t.Run("send stamps last_seen", func(t *testing.T) {
		require.NoError(t, svc.Send(dev.ID, mem.ID, true, "offer", "sdp-blob"))
		view, err := svc.Poll(dev.ID, mem.ID, false)
		require.NoError(t, err)
		require.Len(t, view, 1)

		var got model.Device
		require.NoError(t, svc.db.Where("id = ?", dev.ID).First(&got).Error)
		require.NotNil(t, got.LastSeen)
	})

	t.Run("unserializable payload", func(t *testing.T) {
		err := svc.Send(dev.ID, mem.ID, true, "offer", make(chan int))
		assert.ErrorIs(t, err, errs.ErrInvalidPayload)
	})

	t.Run("non-string payload is stored as JSON", func(t *testing.T) {
		payload := map[string]interface{}{"candidate": "foo", "sdpMLineIndex": 0}
		require.NoError(t, svc.Send(dev.ID, mem.ID, true, "ice-candidate", payload))
		msgs, err := svc.Poll(dev.ID, mem.ID, false)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.JSONEq(t, `{"candidate":"foo","sdpMLineIndex":0}`, msgs[0].Payload)
	})
}

func TestSignalingPoll(t *testing.T) {
	svc, mem, dev := newSignalingFixture(t)

	t.Run("empty mailbox is empty slice, not error", func(t *testing.T) {
		msgs, err := svc.Poll(dev.ID, mem.ID, false)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("offer reaches switcher exactly once", func(t *testing.T) {
		require.NoError(t, svc.Send(dev.ID, mem.ID, true, "offer", "sdp-blob-1"))

		msgs, err := svc.Poll(dev.ID, mem.ID, false)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, model.SignalTypeOffer, msgs[0].Type)
		assert.Equal(t, "sdp-blob-1", msgs[0].Payload)
		assert.True(t, msgs[0].FromDevice)

		again, err := svc.Poll(dev.ID, mem.ID, false)
		require.NoError(t, err)
		assert.Empty(t, again, "consumed messages are never redelivered")
	})

	t.Run("direction filter", func(t *testing.T) {
		require.NoError(t, svc.Send(dev.ID, mem.ID, false, "answer", "sdp-answer"))

		// The switcher's own message must not come back to it.
		msgs, err := svc.Poll(dev.ID, mem.ID, false)
		require.NoError(t, err)
		assert.Empty(t, msgs)

		msgs, err = svc.Poll(dev.ID, mem.ID, true)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, model.SignalTypeAnswer, msgs[0].Type)
	})

	t.Run("insertion order is preserved", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, svc.Send(dev.ID, mem.ID, true, "ice-candidate", fmt.Sprintf("cand-%d", i)))
		}
		msgs, err := svc.Poll(dev.ID, mem.ID, false)
		require.NoError(t, err)
		require.Len(t, msgs, 5)
		for i, m := range msgs {
			assert.Equal(t, fmt.Sprintf("cand-%d", i), m.Payload)
		}
	})

	t.Run("cross-session poll is not found", func(t *testing.T) {
		_, err := svc.Poll(dev.ID, "b0000000-0000-4000-8000-000000000000", false)
		assert.ErrorIs(t, err, errs.ErrDeviceNotFound)
	})
}

// Concurrent polls for the same direction must partition the pending set:
// every message delivered exactly once across all responses.
func TestSignalingPollConcurrent(t *testing.T) {
	svc, mem, dev := newSignalingFixture(t)

	const total = 40
	for i := 0; i < total; i++ {
		require.NoError(t, svc.Send(dev.ID, mem.ID, true, "ice-candidate", fmt.Sprintf("cand-%d", i)))
	}

	const pollers = 4
	results := make(chan []model.SignalView, pollers)
	for i := 0; i < pollers; i++ {
		go func() {
			msgs, err := svc.Poll(dev.ID, mem.ID, false)
			assert.NoError(t, err)
			results <- msgs
		}()
	}

	seen := make(map[string]int)
	delivered := 0
	for i := 0; i < pollers; i++ {
		for _, m := range <-results {
			seen[m.ID]++
			delivered++
		}
	}
	assert.Equal(t, total, delivered, "no message dropped")
	for id, n := range seen {
		assert.Equal(t, 1, n, "message %s delivered more than once", id)
	}
}

func TestSignalingWakeup(t *testing.T) {
	db := newTestDB(t)
	mem := seedMemorial(t, db)
	dev := seedDevice(t, db, mem.ID, string(model.DeviceStatusConnected),
		time.Now().Add(5*time.Minute), nil)

	hub := NewNotifyHub(1024, 1024, zap.NewNop())
	svc := NewSignalingService(db, hub, zap.NewNop())

	listener, cleanup := hub.Register(dev.ID, false)
	defer cleanup()

	require.NoError(t, svc.Send(dev.ID, mem.ID, true, "offer", "sdp"))

	select {
	case <-listener.Wake:
	case <-time.After(time.Second):
		t.Fatal("switcher listener was not woken by a device send")
	}

	// The camera-side listener must not wake for its own message.
	camListener, camCleanup := hub.Register(dev.ID, true)
	defer camCleanup()
	require.NoError(t, svc.Send(dev.ID, mem.ID, true, "offer", "sdp-2"))
	select {
	case <-camListener.Wake:
		t.Fatal("camera listener woken by its own direction")
	case <-time.After(50 * time.Millisecond):
	}
}
