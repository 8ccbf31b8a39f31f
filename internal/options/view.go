package options

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"inflow/internal/models"
)

var providerNames = map[models.Provider]string{
	models.ProviderOpenAI:     "OpenAI",
	models.ProviderGemini:     "Google Gemini",
	models.ProviderAnthropic:  "Anthropic",
	models.ProviderOpenRouter: "OpenRouter",
	models.ProviderCustom:     "Custom",
}

func (m *Model) View() string {
	if !m.open {
		return ""
	}
	st := m.cfg.Styles
	inner := Width - 4

	if !m.loaded {
		return st.Box.Width(Width - 2).Render(st.Title.Render("Settings") + "\n\n" + st.Hint.Render("Loading..."))
	}

	field := func(f Field, label, body string) string {
		box := st.Field
		if m.focus == f {
			box = st.FieldFocused
		}
		return lipgloss.JoinVertical(lipgloss.Left, st.FieldLabel.Render(label), box.Width(inner-2).Render(body))
	}

	rows := []string{st.Title.Render("Settings"), ""}

	provider := providerNames[m.provider]
	if provider == "" {
		provider = string(m.provider)
	}
	rows = append(rows, field(FieldProvider, "API Provider", "‹ "+provider+" ›"))

	if m.ShowBaseURL() {
		rows = append(rows, field(FieldBaseURL, "Base URL", m.baseURL.View()))
	}

	key := field(FieldAPIKey, "API Key", m.apiKey.View())
	note := "Stored locally only."
	if preview := KeyPreview(m.stored.APIKeys[m.provider]); preview != "" {
		note = fmt.Sprintf("Stored: %s", preview)
	}
	rows = append(rows, key, st.Hint.Render(note))

	rows = append(rows,
		field(FieldModel, "Model", m.model.View()),
		st.Hint.Render("Leave blank to use default."),
	)

	rows = append(rows,
		field(FieldPosition, "Chat Window Position", m.choice(
			[]string{string(models.PositionBottomRight), string(models.PositionTopRight)},
			[]string{"Bottom Right", "Top Right"},
			string(m.position),
		)),
		field(FieldInvocation, "Invocation", m.choice(
			[]string{string(models.InvokeTypingOrHotkey), string(models.InvokeTyping), string(models.InvokeHotkey)},
			[]string{"Typing + Hotkey", "Typing", "Hotkey"},
			string(m.method),
		)),
	)

	save := st.Button.Render("Save")
	if m.focus != FieldSave {
		save = st.SwitchOff.Render("Save")
	}
	rows = append(rows, "", save)

	if m.err != nil {
		rows = append(rows, st.Error.Render(m.err.Error()))
	}
	rows = append(rows, st.Hint.Render("tab: next • ←/→: change • ctrl+s: save • esc: close"))

	return st.Box.Width(Width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) choice(values, labels []string, current string) string {
	st := m.cfg.Styles
	out := make([]string, len(values))
	for i, v := range values {
		if v == current {
			out[i] = st.SwitchOn.Render(labels[i])
		} else {
			out[i] = st.SwitchOff.Render(labels[i])
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}
