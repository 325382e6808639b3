package services

import (
	"strings"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
)

// ExportTranscript renders a conversation as plain text, one entry per
// message. Structured advice payloads collapse to a bracketed list of
// their block titles. Transient placeholders are skipped.
func ExportTranscript(conv models.Conversation) string {
	var entries []string

	for _, m := range conv.Messages {
		if m.Transient() {
			continue
		}

		role := "用户"
		if m.Role == models.RoleAssistant {
			role = "助手"
		}

		content := m.Content.Text
		if m.Content.IsAdvice() {
			titles := make([]string, len(m.Content.Advice.Recommendations))
			for i, r := range m.Content.Advice.Recommendations {
				titles[i] = r.Title
			}
			content = "【投资建议】[" + strings.Join(titles, ",") + "]"
		}

		entries = append(entries, "["+role+"] "+content)
	}

	return strings.Join(entries, "\n\n")
}
