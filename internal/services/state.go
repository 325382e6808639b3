package services

import (
	"time"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

// EventType identifies a conversation state transition.
type EventType string

const (
	// EventUserSubmitted appends the user message and, for the first user
	// message of a fresh conversation, derives the title from it.
	EventUserSubmitted EventType = "user_submitted"
	// EventThinking appends the transient thinking placeholder.
	EventThinking EventType = "thinking"
	// EventStreamStarted replaces the placeholder with an empty streaming
	// assistant message.
	EventStreamStarted EventType = "stream_started"
	// EventStreamChunk appends a text fragment to the streaming message.
	EventStreamChunk EventType = "stream_chunk"
	// EventStreamEnded finalizes the streaming message in place.
	EventStreamEnded EventType = "stream_ended"
	// EventPartialDiscarded drops any transient assistant message.
	EventPartialDiscarded EventType = "partial_discarded"
	// EventCompleted drops any transient assistant message and installs
	// the final answer.
	EventCompleted EventType = "completed"
)

// Event is one input to the conversation reducer.
type Event struct {
	Type    EventType
	Text    string                // user text or stream chunk
	Content models.MessageContent // final content for EventCompleted
	At      time.Time
}

// Apply is the pure conversation reducer: it returns the next state for an
// event without mutating the input. Chunk events concatenate in call order;
// the thinking placeholder never survives past the first real content; at
// most one transient assistant message exists at a time.
func Apply(conv models.Conversation, ev Event) models.Conversation {
	next := conv
	next.Messages = make([]models.ConversationMessage, len(conv.Messages))
	copy(next.Messages, conv.Messages)

	switch ev.Type {
	case EventUserSubmitted:
		if len(next.Messages) <= 1 && next.Title == DefaultTitle {
			next.Title = titleFromText(ev.Text)
		}
		next.Messages = append(next.Messages, models.ConversationMessage{
			Role:      models.RoleUser,
			Content:   models.MessageContent{Text: ev.Text},
			Timestamp: ev.At,
		})

	case EventThinking:
		next.Messages = append(dropTransient(next.Messages), models.ConversationMessage{
			Role:       models.RoleAssistant,
			Content:    models.MessageContent{Text: "thinking"},
			Timestamp:  ev.At,
			IsThinking: true,
		})

	case EventStreamStarted:
		next.Messages = append(dropTransient(next.Messages), models.ConversationMessage{
			Role:        models.RoleAssistant,
			Content:     models.MessageContent{},
			Timestamp:   ev.At,
			IsStreaming: true,
		})

	case EventStreamChunk:
		if i := len(next.Messages) - 1; i >= 0 && next.Messages[i].IsStreaming {
			next.Messages[i].Content.Text += ev.Text
		}

	case EventStreamEnded:
		if i := len(next.Messages) - 1; i >= 0 && next.Messages[i].IsStreaming {
			next.Messages[i].IsStreaming = false
		}

	case EventPartialDiscarded:
		next.Messages = dropTransient(next.Messages)

	case EventCompleted:
		next.Messages = append(dropTransient(next.Messages), models.ConversationMessage{
			Role:      models.RoleAssistant,
			Content:   ev.Content,
			Timestamp: ev.At,
		})
	}

	return next
}

func dropTransient(messages []models.ConversationMessage) []models.ConversationMessage {
	out := messages[:0:len(messages)]
	for _, m := range messages {
		if !m.Transient() {
			out = append(out, m)
		}
	}
	return out
}

func titleFromText(text string) string {
	r := []rune(text)
	if len(r) > 20 {
		return string(r[:20]) + "..."
	}
	return text
}
