package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

func TestStreamMessage_ForwardsWellFormedFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/conv-1/messages/stream", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var msg outgoingMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, models.RoleUser, msg.Role)
		assert.Equal(t, "帮我配置", msg.Content)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"content\":\"建议\"}\n"))
		w.Write([]byte("not a data line\n"))
		w.Write([]byte("data: this is not json\n"))
		w.Write([]byte("data: {\"other\":\"field\"}\n"))
		w.Write([]byte("data: {\"content\":\"如下\"}\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")

	var chunks []string
	err := client.StreamMessage(context.Background(), "conv-1", "帮我配置", func(chunk string) {
		chunks = append(chunks, chunk)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"建议", "如下"}, chunks)
}

func TestStreamMessage_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	err := client.StreamMessage(context.Background(), "conv-1", "文本", func(string) {
		t.Fatal("no chunks expected on error")
	})

	assert.Error(t, err)
}

func TestStreamMessage_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"content\":\"第一块\"}\n"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, "")
	err := client.StreamMessage(ctx, "conv-1", "文本", func(string) {})

	assert.Error(t, err)
}

func TestSendMessage_TextContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/conv-1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":"这是完整答复"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	content, err := client.SendMessage(context.Background(), "conv-1", "帮我配置")

	require.NoError(t, err)
	assert.False(t, content.IsAdvice())
	assert.Equal(t, "这是完整答复", content.Text)
}

func TestSendMessage_AdviceContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":{
			"alloc":{"cash":20,"bond":55,"equity":25},
			"recommendations":[{"title":"综合资产配置方案","summary":"s","lines":["l"]}],
			"risk":"稳健","horizonText":"3 年","budgetText":"20 万元"
		}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	content, err := client.SendMessage(context.Background(), "conv-1", "帮我配置")

	require.NoError(t, err)
	require.True(t, content.IsAdvice())
	assert.Equal(t, models.Allocation{Cash: 20, Bond: 55, Equity: 25}, content.Advice.Allocation)
	assert.Equal(t, "稳健", content.Advice.Risk)
	require.Len(t, content.Advice.Recommendations, 1)
	assert.Equal(t, "综合资产配置方案", content.Advice.Recommendations[0].Title)
}

func TestSendMessage_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.SendMessage(context.Background(), "conv-1", "文本")

	assert.Error(t, err)
}
