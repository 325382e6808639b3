package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

func freshConversation() models.Conversation {
	return models.Conversation{
		ID:    "conv-1",
		Title: DefaultTitle,
		Messages: []models.ConversationMessage{{
			Role:      models.RoleAssistant,
			Content:   models.MessageContent{Text: Greeting},
			Timestamp: time.Now().UTC(),
		}},
		CreatedAt: time.Now().UTC(),
	}
}

func TestApply_UserSubmittedSetsTitle(t *testing.T) {
	conv := Apply(freshConversation(), Event{Type: EventUserSubmitted, Text: "帮我配置资产"})

	require.Len(t, conv.Messages, 2)
	assert.Equal(t, models.RoleUser, conv.Messages[1].Role)
	assert.Equal(t, "帮我配置资产", conv.Messages[1].Content.Text)
	assert.Equal(t, "帮我配置资产", conv.Title)
}

func TestApply_TitleTruncatedByRunes(t *testing.T) {
	long := strings.Repeat("稳", 25)
	conv := Apply(freshConversation(), Event{Type: EventUserSubmitted, Text: long})

	assert.Equal(t, strings.Repeat("稳", 20)+"...", conv.Title)
}

func TestApply_TitleKeptAfterFirstMessage(t *testing.T) {
	conv := Apply(freshConversation(), Event{Type: EventUserSubmitted, Text: "第一条"})
	conv = Apply(conv, Event{Type: EventCompleted, Content: models.MessageContent{Text: "答复"}})
	conv = Apply(conv, Event{Type: EventUserSubmitted, Text: "第二条"})

	assert.Equal(t, "第一条", conv.Title)
}

func TestApply_ThinkingThenStreamingLifecycle(t *testing.T) {
	conv := Apply(freshConversation(), Event{Type: EventUserSubmitted, Text: "问题"})
	conv = Apply(conv, Event{Type: EventThinking})

	require.Len(t, conv.Messages, 3)
	assert.True(t, conv.Messages[2].IsThinking)

	// The placeholder is gone the moment streaming starts.
	conv = Apply(conv, Event{Type: EventStreamStarted})
	require.Len(t, conv.Messages, 3)
	assert.False(t, conv.Messages[2].IsThinking)
	assert.True(t, conv.Messages[2].IsStreaming)
	assert.Equal(t, "", conv.Messages[2].Content.Text)

	conv = Apply(conv, Event{Type: EventStreamChunk, Text: "建议"})
	conv = Apply(conv, Event{Type: EventStreamChunk, Text: "如下："})
	assert.Equal(t, "建议如下：", conv.Messages[2].Content.Text)

	conv = Apply(conv, Event{Type: EventStreamEnded})
	assert.False(t, conv.Messages[2].IsStreaming)
	assert.Equal(t, "建议如下：", conv.Messages[2].Content.Text)
}

func TestApply_PartialDiscardedDropsStreamingMessage(t *testing.T) {
	conv := Apply(freshConversation(), Event{Type: EventUserSubmitted, Text: "问题"})
	conv = Apply(conv, Event{Type: EventStreamStarted})
	conv = Apply(conv, Event{Type: EventStreamChunk, Text: "半截"})

	conv = Apply(conv, Event{Type: EventPartialDiscarded})

	require.Len(t, conv.Messages, 2)
	for _, m := range conv.Messages {
		assert.NotContains(t, m.Content.Text, "半截")
	}
}

func TestApply_CompletedReplacesTransient(t *testing.T) {
	payload := models.AdvicePayload{Risk: "平衡"}
	conv := Apply(freshConversation(), Event{Type: EventUserSubmitted, Text: "问题"})
	conv = Apply(conv, Event{Type: EventThinking})
	conv = Apply(conv, Event{Type: EventCompleted, Content: models.MessageContent{Advice: &payload}})

	require.Len(t, conv.Messages, 3)
	final := conv.Messages[2]
	assert.Equal(t, models.RoleAssistant, final.Role)
	assert.False(t, final.Transient())
	require.NotNil(t, final.Content.Advice)
	assert.Equal(t, "平衡", final.Content.Advice.Risk)
}

func TestApply_ChunkWithoutStreamingMessageIsIgnored(t *testing.T) {
	before := freshConversation()
	after := Apply(before, Event{Type: EventStreamChunk, Text: "无处可去"})

	assert.Equal(t, before.Messages, after.Messages)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	before := freshConversation()
	_ = Apply(before, Event{Type: EventUserSubmitted, Text: "变更"})

	assert.Len(t, before.Messages, 1)
	assert.Equal(t, DefaultTitle, before.Title)
}
