package panel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"inflow/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(&models.Snapshot{Domain: "go.dev", Title: "Effective Go", ViewportText: "Names matter"}, "what is this?")
	assert.True(t, strings.HasPrefix(got, promptHeader))
	assert.Contains(t, got, "\n\nDOMAIN: go.dev\nTITLE: Effective Go\nVIEWPORT CONTEXT:\nNames matter")
	assert.True(t, strings.HasSuffix(got, "\n\nUSER QUERY:\nwhat is this?"))

	bare := BuildPrompt(nil, "hi")
	assert.Equal(t, promptHeader+"\n\nUSER QUERY:\nhi", bare)
}

func TestBuildMessages(t *testing.T) {
	transcript := []models.Message{
		{Role: models.RoleUser, Content: "q1"},
		{Role: models.RoleAssistant, Content: "a1"},
		{Role: models.RoleBot, Content: "never sent"},
	}
	raw, err := BuildMessages(transcript, "q2")
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(raw))

	msgs := gjson.ParseBytes(raw).Array()
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Get("role").String())
	assert.Equal(t, SystemPrompt, msgs[0].Get("content").String())
	assert.Equal(t, "q1", msgs[1].Get("content").String())
	assert.Equal(t, "assistant", msgs[2].Get("role").String())
	assert.Equal(t, "user", msgs[3].Get("role").String())
	assert.Equal(t, "q2", msgs[3].Get("content").String())
}

func TestParseChunk(t *testing.T) {
	cases := []struct {
		name  string
		chunk string
		want  string
	}{
		{"delta", `data: {"choices":[{"delta":{"content":"Hi"}}]}`, "Hi"},
		{"several events", "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n", "ab"},
		{"message fallback", `data: {"choices":[{"message":{"content":"full"}}]}`, "full"},
		{"done marker", "data: [DONE]\n\n", ""},
		{"malformed json", `data: {"choices":[{"delta":`, ""},
		{"comment line", ": keep-alive\n", ""},
		{"malformed then good", "data: {oops\ndata: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}", "ok"},
		{"no choices", `data: {"id":"x"}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseChunk(tc.chunk))
		})
	}
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "Short", TruncateTitle("  Short "))

	exact := strings.Repeat("x", 50)
	assert.Equal(t, exact, TruncateTitle(exact))

	long := strings.Repeat("é", 60)
	got := TruncateTitle(long)
	assert.Equal(t, strings.Repeat("é", 47)+"...", got)
	assert.Len(t, []rune(got), 50)
}
