package chatview

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	flags  []bool
	failed bool
}

func (b *recordingBroadcaster) BroadcastTyping(_ uuid.UUID, isTyping bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failed {
		return errors.New("channel dropped")
	}
	b.flags = append(b.flags, isTyping)
	return nil
}

func (b *recordingBroadcaster) sent() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.flags...)
}

func newTestTracker(b TypingBroadcaster) (*TypingTracker, uuid.UUID) {
	self := uuid.New()
	return NewTypingTracker(uuid.New(), self, b, zap.NewNop()), self
}

func TestNotifyInputDebounced(t *testing.T) {
	b := &recordingBroadcaster{}
	tracker, _ := newTestTracker(b)
	defer tracker.Close()

	// Repeated keystrokes broadcast exactly once.
	for i := 0; i < 20; i++ {
		tracker.NotifyInput()
	}
	assert.Equal(t, []bool{true}, b.sent())
}

func TestQuietWindowAutoReverts(t *testing.T) {
	b := &recordingBroadcaster{}
	tracker, _ := newTestTracker(b)
	tracker.quietWindow = 20 * time.Millisecond
	defer tracker.Close()

	tracker.NotifyInput()

	// No StopTyping: the flag reverts on its own once input goes
	// quiet, covering clients that vanish mid-type.
	require.Eventually(t, func() bool {
		flags := b.sent()
		return len(flags) == 2 && !flags[1]
	}, time.Second, 5*time.Millisecond)

	// Typing again after expiry re-broadcasts true.
	tracker.NotifyInput()
	require.Eventually(t, func() bool {
		flags := b.sent()
		return len(flags) >= 3 && flags[2]
	}, time.Second, 5*time.Millisecond)
}

func TestQuietWindowExtendedByInput(t *testing.T) {
	b := &recordingBroadcaster{}
	tracker, _ := newTestTracker(b)
	tracker.quietWindow = 200 * time.Millisecond
	defer tracker.Close()

	// Keystrokes inside the window keep the flag alive.
	for i := 0; i < 4; i++ {
		tracker.NotifyInput()
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, []bool{true}, b.sent())
}

func TestStopTypingBroadcastsFalse(t *testing.T) {
	b := &recordingBroadcaster{}
	tracker, _ := newTestTracker(b)
	defer tracker.Close()

	tracker.NotifyInput()
	tracker.StopTyping()
	assert.Equal(t, []bool{true, false}, b.sent())

	// Stopping while not typing is a no-op.
	tracker.StopTyping()
	assert.Equal(t, []bool{true, false}, b.sent())
}

func TestHandleSyncExcludesSelf(t *testing.T) {
	tracker, self := newTestTracker(&recordingBroadcaster{})
	defer tracker.Close()

	tracker.HandleSync([]PresenceState{{UserID: self, IsTyping: true}})
	assert.False(t, tracker.PeerTyping())

	peer := uuid.New()
	tracker.HandleSync([]PresenceState{
		{UserID: self, IsTyping: true},
		{UserID: peer, IsTyping: true},
	})
	assert.True(t, tracker.PeerTyping())

	// Level-triggered: the next snapshot replaces, never merges.
	tracker.HandleSync([]PresenceState{{UserID: self, IsTyping: true}})
	assert.False(t, tracker.PeerTyping())
}

func TestHandleSyncLateSubscriber(t *testing.T) {
	tracker, _ := newTestTracker(&recordingBroadcaster{})
	defer tracker.Close()

	// First snapshot already carries the current state.
	tracker.HandleSync([]PresenceState{{UserID: uuid.New(), IsTyping: true}})
	assert.True(t, tracker.PeerTyping())
}

func TestBroadcastFailureIsSilent(t *testing.T) {
	b := &recordingBroadcaster{failed: true}
	tracker, _ := newTestTracker(b)
	defer tracker.Close()

	// A dropped channel never surfaces as an error to the caller.
	tracker.NotifyInput()
	tracker.StopTyping()
	assert.False(t, tracker.PeerTyping())
}

func TestCloseUntracks(t *testing.T) {
	b := &recordingBroadcaster{}
	tracker, _ := newTestTracker(b)

	tracker.NotifyInput()
	tracker.Close()

	require.Equal(t, []bool{true, false}, b.sent())

	// Input after close is ignored.
	tracker.NotifyInput()
	assert.Equal(t, []bool{true, false}, b.sent())
}
