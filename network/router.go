package network

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// maxSeenKeys bounds the duplicate-filter set. When the bound is exceeded,
// roughly half of the keys are evicted; the eviction order is unspecified
// beyond making room.
const maxSeenKeys = 1000

// Router dispatches inbound best-effort messages to the handler registered
// for their type. Duplicate deliveries are filtered before any handler runs;
// messages with an unregistered type are dropped silently.
type Router struct {
	mu       sync.Mutex
	handlers map[string]Handler
	seen     map[string]struct{}
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]Handler),
		seen:     make(map[string]struct{}),
	}
}

// Handle registers the handler for one message type.
func (r *Router) Handle(msgType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = h
}

// Dispatch routes one inbound message. It returns false when the message was
// dropped as a duplicate or carried an unknown type.
func (r *Router) Dispatch(msg Message, from *net.UDPAddr) bool {
	key := dedupKey(msg)

	r.mu.Lock()
	if _, dup := r.seen[key]; dup {
		r.mu.Unlock()
		return false
	}
	r.seen[key] = struct{}{}
	if len(r.seen) > maxSeenKeys {
		evicted := 0
		for k := range r.seen {
			delete(r.seen, k)
			evicted++
			if evicted >= maxSeenKeys/2 {
				break
			}
		}
	}
	h, ok := r.handlers[msg.Type]
	r.mu.Unlock()

	if !ok {
		return false
	}
	h(msg, from)
	return true
}

// dedupKey derives a synthetic identifier from the type, the sender identity
// and the message timestamp, falling back to the arrival time when no
// timestamp is present.
func dedupKey(msg Message) string {
	ts := msg.Timestamp
	if ts == 0 {
		ts = time.Now().UnixNano()
	}
	return fmt.Sprintf("%s_%s_%d", msg.Type, msg.PlayerID, ts)
}
