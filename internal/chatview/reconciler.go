package chatview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"backend/internal/app/message"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyContent   = errors.New("content is empty")
	ErrContentTooLong = errors.New("content exceeds the maximum length")
	ErrUnknownEntry   = errors.New("no entry with that client id")
	ErrNotRetryable   = errors.New("entry is not in a failed state")
)

// Reconciler owns the ordered message list for one open conversation
// and keeps it consistent with the server. The sender sees their
// message immediately as a sending entry; the server row then replaces
// it in place via whichever signal arrives first, the direct create
// response or the change-feed echo, and the later signal is a no-op.
type Reconciler struct {
	mu sync.Mutex

	conversationID uuid.UUID
	selfID         uuid.UUID
	sender         MessageSender
	logger         *zap.SugaredLogger

	entries    []*Entry
	byServerID map[uuid.UUID]*Entry
	byClientID map[uuid.UUID]*Entry
	drafts     map[uuid.UUID]draft
}

// draft keeps what Submit needs so Retry can replay the exact request.
type draft struct {
	content string
	replyTo *uuid.UUID
}

func NewReconciler(
	conversationID, selfID uuid.UUID,
	sender MessageSender,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		conversationID: conversationID,
		selfID:         selfID,
		sender:         sender,
		logger:         logger.Sugar(),
		byServerID:     make(map[uuid.UUID]*Entry),
		byClientID:     make(map[uuid.UUID]*Entry),
		drafts:         make(map[uuid.UUID]draft),
	}
}

// Seed loads the initial history fetch. Rows already present (by
// server id) are skipped, so seeding after feed events have arrived is
// safe.
func (r *Reconciler) Seed(msgs []*message.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		if _, ok := r.byServerID[m.ID]; ok {
			continue
		}
		entry := &Entry{Message: m, State: StateSent}
		r.entries = append(r.entries, entry)
		r.byServerID[m.ID] = entry
	}
}

// AddOptimistic validates content and appends a sending entry,
// returning the minted client id used for reconciliation. Callers own
// deduplication against double-submit.
func (r *Reconciler) AddOptimistic(content string, replyToID *uuid.UUID) (uuid.UUID, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return uuid.Nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > message.MaxContentLength {
		return uuid.Nil, ErrContentTooLong
	}

	clientID := uuid.New()
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &Entry{
		Message: &message.Message{
			ConversationID:   r.conversationID,
			SenderID:         r.selfID,
			Content:          content,
			ReplyToMessageID: replyToID,
			ClientID:         &clientID,
			CreatedAt:        now,
		},
		State:    StateSending,
		ClientID: clientID,
	}
	r.entries = append(r.entries, entry)
	r.byClientID[clientID] = entry
	r.drafts[clientID] = draft{content: content, replyTo: replyToID}
	return clientID, nil
}

// Submit sends the create request for an optimistic entry. On failure
// the entry stays in the list as failed; it is never removed, and a
// failed send never blocks later sends.
func (r *Reconciler) Submit(ctx context.Context, clientID uuid.UUID) error {
	r.mu.Lock()
	entry, ok := r.byClientID[clientID]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownEntry
	}
	d := r.drafts[clientID]
	entry.State = StateSending
	entry.Error = ""
	r.mu.Unlock()

	cid := clientID
	msg, err := r.sender.Send(ctx, &message.SendMessageRequest{
		ConversationID:   r.conversationID,
		Content:          d.content,
		ReplyToMessageID: d.replyTo,
		ClientID:         &cid,
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		// The echo may have landed while the response was in flight;
		// a confirmed entry stays sent.
		if entry.State == StateSent {
			return nil
		}
		entry.State = StateFailed
		entry.Error = fmt.Sprintf("failed to send: %v", err)
		r.logger.Warnw("Message submit failed", "client_id", clientID, "error", err)
		return err
	}

	r.confirmLocked(entry, msg)
	return nil
}

// Retry replays a failed submit with the original content and reply
// reference. It may be invoked any number of times.
func (r *Reconciler) Retry(ctx context.Context, clientID uuid.UUID) error {
	r.mu.Lock()
	entry, ok := r.byClientID[clientID]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownEntry
	}
	if entry.State != StateFailed {
		r.mu.Unlock()
		return ErrNotRetryable
	}
	r.mu.Unlock()

	return r.Submit(ctx, clientID)
}

// Ingest applies one change-feed event. Inserts from other senders (or
// other devices) append in arrival order; the author's own echo
// reconciles the optimistic entry instead of duplicating it; known
// server ids are ignored. Updates patch the read receipt by server id
// and silently skip unknown ids.
func (r *Reconciler) Ingest(event FeedEvent) {
	if event.Message == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case FeedInsert:
		if _, ok := r.byServerID[event.Message.ID]; ok {
			return
		}
		if entry := r.matchOptimisticLocked(event.Message); entry != nil {
			r.confirmLocked(entry, event.Message)
			return
		}
		entry := &Entry{Message: event.Message, State: StateSent}
		r.entries = append(r.entries, entry)
		r.byServerID[event.Message.ID] = entry
	case FeedUpdate:
		entry, ok := r.byServerID[event.Message.ID]
		if !ok {
			return
		}
		entry.Message.ReadAt = event.Message.ReadAt
	}
}

// Snapshot returns the visible list in order. Entries are copied so
// callers can render without holding the lock.
func (r *Reconciler) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	for i, entry := range r.entries {
		out[i] = *entry
		msg := *entry.Message
		out[i].Message = &msg
	}
	return out
}

// Messages returns the confirmed-and-optimistic rows in list order,
// the input shape the grouping presenter expects.
func (r *Reconciler) Messages() []*message.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*message.Message, len(r.entries))
	for i, entry := range r.entries {
		out[i] = entry.Message
	}
	return out
}

// confirmLocked replaces an optimistic entry's identity with the
// server row in place, preserving list position. Safe to call twice;
// the second confirmation is a no-op.
func (r *Reconciler) confirmLocked(entry *Entry, msg *message.Message) {
	if entry.State == StateSent && entry.Message.ID == msg.ID {
		return
	}
	entry.Message = msg
	entry.State = StateSent
	entry.Error = ""
	r.byServerID[msg.ID] = entry
	delete(r.drafts, entry.ClientID)
}

// matchOptimisticLocked finds the in-flight entry a self-authored echo
// confirms: exact client-id match first, then the sender+content
// heuristic for rows missing a client id.
func (r *Reconciler) matchOptimisticLocked(msg *message.Message) *Entry {
	if msg.SenderID != r.selfID {
		return nil
	}
	if msg.ClientID != nil {
		if entry, ok := r.byClientID[*msg.ClientID]; ok {
			return entry
		}
	}
	for _, entry := range r.entries {
		if entry.State == StateSent || entry.ClientID == uuid.Nil {
			continue
		}
		if entry.Message.Content == msg.Content {
			return entry
		}
	}
	return nil
}
