package chatview

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// View is one open conversation: the reconciled message list plus the
// peer's typing state. It is the sink a Stream routes conversation
// events into.
type View struct {
	ConversationID uuid.UUID

	Reconciler *Reconciler
	Typing     *TypingTracker
}

// NewView wires a reconciler and typing tracker for one conversation.
// The broadcaster is typically the Stream carrying the subscription.
func NewView(
	conversationID, selfID uuid.UUID,
	sender MessageSender,
	broadcaster TypingBroadcaster,
	logger *zap.Logger,
) *View {
	return &View{
		ConversationID: conversationID,
		Reconciler:     NewReconciler(conversationID, selfID, sender, logger),
		Typing:         NewTypingTracker(conversationID, selfID, broadcaster, logger),
	}
}

func (v *View) Ingest(event FeedEvent) {
	v.Reconciler.Ingest(event)
}

func (v *View) HandleSync(states []PresenceState) {
	v.Typing.HandleSync(states)
}

// Close releases the view's ephemeral state. The owning Stream still
// has to unsubscribe the conversation.
func (v *View) Close() {
	v.Typing.Close()
}
