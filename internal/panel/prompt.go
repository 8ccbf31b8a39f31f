package panel

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/tidwall/gjson"

	"inflow/internal/models"
)

const (
	SystemPrompt = "Be concise and helpful."

	promptHeader = "You are an assistant answering questions about the document the user is reading right now. " +
		"The visible part of the document is attached below; use it to understand what the user is asking about and answer accurately.\n\n" +
		"Do not mention or repeat the attached context. The user knows you can see it. Answer the question directly."

	titleLimit = 50
)

// BuildPrompt wraps the user's text with the instruction header and, when
// present, the page context captured for this session.
func BuildPrompt(ctx *models.Snapshot, text string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	if ctx != nil {
		fmt.Fprintf(&b, "\n\nDOMAIN: %s\nTITLE: %s\nVIEWPORT CONTEXT:\n%s", ctx.Domain, ctx.Title, ctx.ViewportText)
	}
	b.WriteString("\n\nUSER QUERY:\n")
	b.WriteString(text)
	return b.String()
}

// BuildMessages returns the outbound message list as JSON:
// the system prompt, the prior transcript, then the new user prompt.
func BuildMessages(transcript []models.Message, prompt string) (json.RawMessage, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(transcript)+2)
	params = append(params, openai.SystemMessage(SystemPrompt))
	for _, msg := range transcript {
		switch msg.Role {
		case models.RoleUser:
			params = append(params, openai.UserMessage(msg.Content))
		case models.RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		}
	}
	params = append(params, openai.UserMessage(prompt))

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return raw, nil
}

// ParseChunk extracts the assistant text carried by one relay chunk. Only
// "data:" lines count; [DONE] and malformed payloads are skipped.
func ParseChunk(chunk string) string {
	var out strings.Builder
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" || !gjson.Valid(payload) {
			continue
		}
		delta := gjson.Get(payload, "choices.0.delta.content").String()
		if delta == "" {
			delta = gjson.Get(payload, "choices.0.message.content").String()
		}
		out.WriteString(delta)
	}
	return out.String()
}

// TruncateTitle shortens a page title for the panel header.
func TruncateTitle(title string) string {
	r := []rune(strings.TrimSpace(title))
	if len(r) <= titleLimit {
		return string(r)
	}
	return string(r[:titleLimit-3]) + "..."
}
