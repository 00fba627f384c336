package service

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// mailboxKey identifies one direction of one device's mailbox.
type mailboxKey struct {
	deviceID   string
	fromDevice bool
}

// Listener is one WebSocket subscriber waiting for mailbox wakeups. Wake is
// a level-triggered signal: a pending tick means "poll now", it carries no
// message data, so delivery atomicity stays entirely in the relay's consume
// step.
type Listener struct {
	DeviceID   string
	FromDevice bool
	Wake       chan struct{}
}

// NotifyHub tracks WebSocket listeners per mailbox direction and wakes them
// when the counterpart sends. Media never transits the hub; it only shortcuts
// the polling interval for connected clients.
type NotifyHub struct {
	mu        sync.RWMutex
	listeners map[mailboxKey]map[*Listener]struct{}
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

// NewNotifyHub creates a notify hub.
func NewNotifyHub(readBuf, writeBuf int, log *zap.Logger) *NotifyHub {
	return &NotifyHub{
		listeners: make(map[mailboxKey]map[*Listener]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
		},
		log: log,
	}
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *NotifyHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// Register adds a listener for a device/direction and returns it with a
// cleanup function.
func (h *NotifyHub) Register(deviceID string, fromDevice bool) (*Listener, func()) {
	l := &Listener{
		DeviceID:   deviceID,
		FromDevice: fromDevice,
		Wake:       make(chan struct{}, 1),
	}
	key := mailboxKey{deviceID: deviceID, fromDevice: fromDevice}
	h.mu.Lock()
	if h.listeners[key] == nil {
		h.listeners[key] = make(map[*Listener]struct{})
	}
	h.listeners[key][l] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("signaling listener registered",
		zap.String("device_id", deviceID),
		zap.Bool("from_device", fromDevice))

	cleanup := func() {
		h.mu.Lock()
		if m, ok := h.listeners[key]; ok {
			delete(m, l)
			if len(m) == 0 {
				delete(h.listeners, key)
			}
		}
		h.mu.Unlock()
	}
	return l, cleanup
}

// Notify wakes every listener of the given device/direction. Non-blocking: a
// listener that already has a pending wakeup is left as is.
func (h *NotifyHub) Notify(deviceID string, fromDevice bool) {
	key := mailboxKey{deviceID: deviceID, fromDevice: fromDevice}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for l := range h.listeners[key] {
		select {
		case l.Wake <- struct{}{}:
		default:
		}
	}
}

// ListenerCount returns the number of listeners for a device/direction.
func (h *NotifyHub) ListenerCount(deviceID string, fromDevice bool) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[mailboxKey{deviceID: deviceID, fromDevice: fromDevice}])
}
