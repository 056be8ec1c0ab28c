package network

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_DispatchByType(t *testing.T) {
	r := NewRouter()
	var got Message
	r.Handle(TypeChat, func(msg Message, _ *net.UDPAddr) {
		got = msg
	})

	delivered := r.Dispatch(Message{Type: TypeChat, PlayerID: "p1", Text: "hello", Timestamp: 1}, nil)

	assert.True(t, delivered)
	assert.Equal(t, "hello", got.Text)
}

func TestRouter_UnknownTypeDropped(t *testing.T) {
	r := NewRouter()
	assert.False(t, r.Dispatch(Message{Type: "GIBBERISH", Timestamp: 1}, nil))
}

func TestRouter_DuplicateDropped(t *testing.T) {
	r := NewRouter()
	calls := 0
	r.Handle(TypeVote, func(Message, *net.UDPAddr) { calls++ })

	msg := Message{Type: TypeVote, PlayerID: "p1", TargetID: "p2", Timestamp: 42}
	assert.True(t, r.Dispatch(msg, nil))
	assert.False(t, r.Dispatch(msg, nil), "replayed key must be dropped")
	assert.Equal(t, 1, calls, "handler must run exactly once")
}

func TestRouter_DistinctTimestampsNotDeduplicated(t *testing.T) {
	r := NewRouter()
	calls := 0
	r.Handle(TypeTimerSync, func(Message, *net.UDPAddr) { calls++ })

	r.Dispatch(Message{Type: TypeTimerSync, RemainingSeconds: 40, Timestamp: 100}, nil)
	r.Dispatch(Message{Type: TypeTimerSync, RemainingSeconds: 35, Timestamp: 200}, nil)

	assert.Equal(t, 2, calls)
}

func TestRouter_SeenSetEviction(t *testing.T) {
	r := NewRouter()
	calls := 0
	r.Handle(TypePing, func(Message, *net.UDPAddr) { calls++ })

	for i := 0; i < 3*maxSeenKeys; i++ {
		r.Dispatch(Message{Type: TypePing, PlayerID: "p1", Timestamp: int64(i + 1)}, nil)
	}

	assert.Equal(t, 3*maxSeenKeys, calls, "fresh keys must keep flowing after evictions")
	assert.LessOrEqual(t, len(r.seen), maxSeenKeys+1, "seen set must stay bounded")
}

func TestDedupKey_ArrivalTimeFallback(t *testing.T) {
	a := dedupKey(Message{Type: TypeChat, PlayerID: "p1"})
	b := dedupKey(Message{Type: TypeChat, PlayerID: "p1", Timestamp: 7})
	assert.NotEqual(t, a, fmt.Sprintf("%s_%s_%d", TypeChat, "p1", 0), "missing timestamp must fall back to arrival time")
	assert.Equal(t, "CHAT_p1_7", b)
}
