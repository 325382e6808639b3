package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/advisor"
	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

// RemoteChannel is the remote advisory service seen from the orchestrator:
// a streaming channel and a synchronous one.
type RemoteChannel interface {
	StreamMessage(ctx context.Context, conversationID, text string, onChunk func(string)) error
	SendMessage(ctx context.Context, conversationID, text string) (*models.MessageContent, error)
}

// Subscriber observes every published conversation state transition.
type Subscriber func(conv models.Conversation, ev Event)

// Orchestrator drives one message from submission to a completed answer
// through a degrading chain of channels: remote streaming, then remote
// synchronous, then the local engine. The local tier cannot fail, so every
// non-cancelled delivery completes.
type Orchestrator struct {
	log        *zap.Logger
	store      *ConversationStore
	remote     RemoteChannel // nil when no remote service is configured
	subscriber Subscriber

	locks sync.Map // conversation id -> *sync.Mutex
}

func NewOrchestrator(log *zap.Logger, store *ConversationStore, remote RemoteChannel) *Orchestrator {
	return &Orchestrator{
		log:    log,
		store:  store,
		remote: remote,
	}
}

// Subscribe registers an observer for state transitions. Not safe to call
// concurrently with Deliver.
func (o *Orchestrator) Subscribe(fn Subscriber) { o.subscriber = fn }

// Deliver runs one unit of work: append the user message, show the
// thinking placeholder, attempt the channel chain, install the final
// answer. Exactly one delivery is in flight per conversation; concurrent
// submissions for the same conversation serialize. A cancelled context
// aborts the delivery and discards partial state without triggering the
// local fallback.
func (o *Orchestrator) Deliver(ctx context.Context, conversationID, text string) (*models.Conversation, error) {
	mu := o.lock(conversationID)
	mu.Lock()
	defer mu.Unlock()

	current, err := o.store.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	conv := o.apply(ctx, *current, Event{Type: EventUserSubmitted, Text: text, At: time.Now().UTC()})
	conv = o.apply(ctx, conv, Event{Type: EventThinking, At: time.Now().UTC()})

	conv, tier, err := o.generate(ctx, conv, text)
	if err != nil {
		return nil, err
	}

	deliveriesTotal.WithLabelValues(tier).Inc()
	o.log.Info("message delivered",
		zap.String("conversation_id", conversationID),
		zap.String("tier", tier))

	return &conv, nil
}

// generate walks the fallback chain and returns the conversation holding
// the completed assistant message plus the tier that produced it.
func (o *Orchestrator) generate(ctx context.Context, conv models.Conversation, text string) (models.Conversation, string, error) {
	if o.remote != nil {
		streamed, ok, err := o.tryStreaming(ctx, conv, text)
		if ok {
			return streamed, TierStreaming, nil
		}
		if ctx.Err() != nil {
			// The request context is dead, but the discarded partial state
			// must still be published so no streaming residue outlives the
			// cancelled delivery.
			o.apply(context.WithoutCancel(ctx), streamed, Event{Type: EventPartialDiscarded, At: time.Now().UTC()})
			return conv, "", ctx.Err()
		}
		remoteFailuresTotal.WithLabelValues("streaming").Inc()
		o.log.Warn("streaming channel failed, trying synchronous channel",
			zap.String("conversation_id", conv.ID), zap.Error(err))

		// The partially streamed message must not survive.
		conv = o.apply(ctx, streamed, Event{Type: EventPartialDiscarded, At: time.Now().UTC()})

		if content, err := o.remote.SendMessage(ctx, conv.ID, text); err == nil {
			conv = o.apply(ctx, conv, Event{Type: EventCompleted, Content: *content, At: time.Now().UTC()})
			return conv, TierSync, nil
		} else {
			if ctx.Err() != nil {
				return conv, "", ctx.Err()
			}
			remoteFailuresTotal.WithLabelValues("sync").Inc()
			o.log.Warn("synchronous channel failed, falling back to local engine",
				zap.String("conversation_id", conv.ID), zap.Error(err))
		}
	}

	// Terminal tier: the local engine always produces a valid answer.
	payload := advisor.BuildAdvice(advisor.ExtractIntent(text))
	conv = o.apply(ctx, conv, Event{
		Type:    EventCompleted,
		Content: models.MessageContent{Advice: &payload},
		At:      time.Now().UTC(),
	})
	return conv, TierLocal, nil
}

// tryStreaming runs the streaming channel and reports whether it produced
// a complete answer. A stream that ends without emitting any content
// counts as a failed attempt.
func (o *Orchestrator) tryStreaming(ctx context.Context, conv models.Conversation, text string) (models.Conversation, bool, error) {
	conv = o.apply(ctx, conv, Event{Type: EventStreamStarted, At: time.Now().UTC()})

	received := false
	err := o.remote.StreamMessage(ctx, conv.ID, text, func(chunk string) {
		received = true
		streamChunksTotal.Inc()
		conv = o.apply(ctx, conv, Event{Type: EventStreamChunk, Text: chunk, At: time.Now().UTC()})
	})
	if err != nil || !received {
		return conv, false, err
	}

	conv = o.apply(ctx, conv, Event{Type: EventStreamEnded, At: time.Now().UTC()})
	return conv, true, nil
}

// apply advances the state through the reducer and publishes the new state:
// persisted via the store, then handed to the subscriber.
func (o *Orchestrator) apply(ctx context.Context, conv models.Conversation, ev Event) models.Conversation {
	next := Apply(conv, ev)

	if err := o.store.Save(ctx, next); err != nil {
		o.log.Warn("failed to publish conversation state",
			zap.String("conversation_id", next.ID), zap.Error(err))
	}
	if o.subscriber != nil {
		o.subscriber(next, ev)
	}

	return next
}

func (o *Orchestrator) lock(conversationID string) *sync.Mutex {
	mu, _ := o.locks.LoadOrStore(conversationID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
