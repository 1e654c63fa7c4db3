package chatview

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TypingQuietWindow is how long after the last keystroke the local
// typing flag auto-reverts to false without an explicit broadcast.
const TypingQuietWindow = 3 * time.Second

// TypingTracker debounces the local user's typing broadcasts and
// derives the peer's level-triggered typing state from presence
// snapshots. State is ephemeral; nothing here is persisted or ordered
// against message delivery.
type TypingTracker struct {
	mu sync.Mutex

	conversationID uuid.UUID
	selfID         uuid.UUID
	broadcaster    TypingBroadcaster
	logger         *zap.SugaredLogger

	// quietWindow defaults to TypingQuietWindow; tests shorten it.
	quietWindow time.Duration

	selfTyping bool
	quiet      *time.Timer
	peerTyping bool
	closed     bool
}

func NewTypingTracker(
	conversationID, selfID uuid.UUID,
	broadcaster TypingBroadcaster,
	logger *zap.Logger,
) *TypingTracker {
	return &TypingTracker{
		conversationID: conversationID,
		selfID:         selfID,
		broadcaster:    broadcaster,
		logger:         logger.Sugar(),
		quietWindow:    TypingQuietWindow,
	}
}

// NotifyInput records a keystroke. A broadcast fires at most once on
// the false→true transition; further keystrokes only extend the quiet
// window. After TypingQuietWindow with no input the flag reverts to
// false on its own, covering clients that vanish mid-type.
func (t *TypingTracker) NotifyInput() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	if t.quiet != nil {
		t.quiet.Reset(t.quietWindow)
	} else {
		t.quiet = time.AfterFunc(t.quietWindow, t.quietExpired)
	}

	if t.selfTyping {
		return
	}
	t.selfTyping = true
	if err := t.broadcaster.BroadcastTyping(t.conversationID, true); err != nil {
		t.logger.Debugw("Typing broadcast failed", "conversation_id", t.conversationID, "error", err)
	}
}

// StopTyping clears the local flag immediately, e.g. when the draft is
// sent or cleared.
func (t *TypingTracker) StopTyping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *TypingTracker) quietExpired() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *TypingTracker) stopLocked() {
	if t.quiet != nil {
		t.quiet.Stop()
		t.quiet = nil
	}
	if !t.selfTyping {
		return
	}
	t.selfTyping = false
	if t.closed {
		return
	}
	if err := t.broadcaster.BroadcastTyping(t.conversationID, false); err != nil {
		t.logger.Debugw("Typing broadcast failed", "conversation_id", t.conversationID, "error", err)
	}
}

// PresenceState is one user's entry in a typing snapshot.
type PresenceState struct {
	UserID   uuid.UUID
	IsTyping bool
}

// HandleSync replaces the peer-typing state from a full channel
// snapshot, excluding the local user's own key. Level-triggered: a
// late subscriber sees the correct current state from the first sync.
func (t *TypingTracker) HandleSync(states []PresenceState) {
	typing := false
	for _, s := range states {
		if s.UserID == t.selfID {
			continue
		}
		if s.IsTyping {
			typing = true
			break
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.peerTyping = typing
}

// PeerTyping reports whether the other participant is currently
// typing. A dropped channel leaves this false, never an error.
func (t *TypingTracker) PeerTyping() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peerTyping
}

// Close untracks the local user so a stale typing flag never outlives
// the view. Idempotent.
func (t *TypingTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.quiet != nil {
		t.quiet.Stop()
		t.quiet = nil
	}
	if t.selfTyping {
		t.selfTyping = false
		if err := t.broadcaster.BroadcastTyping(t.conversationID, false); err != nil {
			t.logger.Debugw("Typing broadcast failed", "conversation_id", t.conversationID, "error", err)
		}
	}
	t.peerTyping = false
	t.closed = true
}
