// Package chatview is the client-side conversation view layer: it keeps
// an ordered message list consistent under optimistic sends, change-feed
// echoes and read receipts, tracks the peer's typing state, and derives
// pure display metadata (grouping, day separators) from the list.
package chatview

import (
	"context"

	"backend/internal/app/message"

	"github.com/google/uuid"
)

// FeedEventType distinguishes change-feed payloads.
type FeedEventType string

const (
	// FeedInsert carries a newly committed message row.
	FeedInsert FeedEventType = "insert"
	// FeedUpdate carries a patch to an existing row; currently only
	// read-receipt changes flow through it.
	FeedUpdate FeedEventType = "update"
)

// FeedEvent is one change-feed delivery for a conversation. Inserts
// carry the full row; updates carry at least the server id plus the
// changed fields.
type FeedEvent struct {
	Type    FeedEventType
	Message *message.Message
}

// MessageSender submits a create request to the message store. The
// request carries the caller-minted client id so the store can echo it
// back for exact reconciliation.
type MessageSender interface {
	Send(ctx context.Context, req *message.SendMessageRequest) (*message.Message, error)
}

// TypingBroadcaster pushes the local user's typing flag onto the
// conversation's ephemeral channel. Implementations must tolerate a
// dropped channel; a failed broadcast reads as "not typing" downstream,
// never as an error the caller has to handle.
type TypingBroadcaster interface {
	BroadcastTyping(conversationID uuid.UUID, isTyping bool) error
}

// SendState is the lifecycle of a locally originated message.
type SendState string

const (
	StateSending SendState = "sending"
	StateSent    SendState = "sent"
	StateFailed  SendState = "failed"
)

// Entry is one row of the visible message list. Optimistic entries are
// identified by ClientID until the server row replaces Message in
// place; entries ingested from the feed carry State sent from the
// start.
type Entry struct {
	Message  *message.Message
	State    SendState
	ClientID uuid.UUID
	// Error holds a human-readable failure reason while State is
	// failed; cleared on retry.
	Error string
}
