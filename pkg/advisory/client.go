// Package advisory is the HTTP client for the remote advisory service,
// exposing its two delivery channels: a streaming endpoint that emits
// server-sent-event style fragments and a synchronous endpoint that
// returns a complete answer.
package advisory

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

type outgoingMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type syncResponse struct {
	Content models.MessageContent `json:"content"`
}

type streamFragment struct {
	Content string `json:"content"`
}

// SendMessage posts the user text to the synchronous channel and returns
// the complete answer, which may be plain text or a structured advice
// payload.
func (c *Client) SendMessage(ctx context.Context, conversationID, text string) (*models.MessageContent, error) {
	url := fmt.Sprintf("%s/conversations/%s/messages", c.baseURL, conversationID)

	resp, err := c.post(ctx, url, text)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("advisory service returned status %d", resp.StatusCode)
	}

	var out syncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	return &out.Content, nil
}

// StreamMessage posts the user text to the streaming channel and forwards
// the content of each well-formed "data: {...}" fragment to onChunk, in
// arrival order. Malformed fragments are skipped silently. Returns when
// the stream ends or the context is cancelled.
func (c *Client) StreamMessage(ctx context.Context, conversationID, text string, onChunk func(string)) error {
	url := fmt.Sprintf("%s/conversations/%s/messages/stream", c.baseURL, conversationID)

	resp, err := c.post(ctx, url, text)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("advisory stream returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var frag streamFragment
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frag); err != nil {
			continue
		}
		if frag.Content != "" {
			onChunk(frag.Content)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("advisory stream interrupted: %w", err)
	}

	return nil
}

func (c *Client) post(ctx context.Context, url, text string) (*http.Response, error) {
	body, err := json.Marshal(outgoingMessage{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return c.httpClient.Do(req)
}
