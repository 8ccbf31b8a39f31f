package models

import (
	"strings"
)

// Config Store keys.
const (
	KeyProvider         = "api_provider"
	KeyAPIKeys          = "api_keys"
	KeyAPIModels        = "api_models"
	KeyBaseURL          = "api_base_url"
	KeyPanelPosition    = "chat_window_position"
	KeyInvocationMethod = "invocation_method"
)

// SettingsKeys is every key SaveSettings writes.
var SettingsKeys = []string{
	KeyProvider,
	KeyAPIKeys,
	KeyAPIModels,
	KeyBaseURL,
	KeyPanelPosition,
	KeyInvocationMethod,
}

const chatCompletionsSuffix = "/chat/completions"

var providerEndpoints = map[Provider]string{
	ProviderOpenAI:     "https://api.openai.com/v1/chat/completions",
	ProviderGemini:     "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions",
	ProviderAnthropic:  "https://api.anthropic.com/v1/chat/completions",
	ProviderOpenRouter: "https://openrouter.ai/api/v1/chat/completions",
}

// Settings is the user configuration held in the Config Store.
type Settings struct {
	Provider         Provider
	APIKeys          map[Provider]string
	APIModels        map[Provider]string
	BaseURL          string
	PanelPosition    PanelPosition
	InvocationMethod InvocationMethod
}

// DefaultSettings returns the values used for keys missing from the store.
func DefaultSettings() Settings {
	return Settings{
		Provider:         DefaultProvider,
		APIKeys:          map[Provider]string{},
		APIModels:        map[Provider]string{},
		PanelPosition:    PositionBottomRight,
		InvocationMethod: InvokeTypingOrHotkey,
	}
}

// APIKey returns the stored key for the selected provider.
func (s Settings) APIKey() string {
	return s.APIKeys[s.Provider]
}

// Model returns the stored model for the selected provider or DefaultModel.
func (s Settings) Model() string {
	if m := s.APIModels[s.Provider]; m != "" {
		return m
	}
	return DefaultModel
}

// Endpoint resolves the chat completions URL for the selected provider.
func (s Settings) Endpoint() (string, error) {
	if s.Provider != ProviderCustom {
		if u, ok := providerEndpoints[s.Provider]; ok {
			return u, nil
		}
		return providerEndpoints[ProviderOpenRouter], nil
	}

	base := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if base == "" {
		return "", ErrMissingBaseURL
	}
	if strings.HasSuffix(base, chatCompletionsSuffix) {
		return base, nil
	}
	return base + chatCompletionsSuffix, nil
}

// HotkeyEnabled reports whether an explicit hotkey may open the panel.
// Only the exact value "typing" disables it.
func (s Settings) HotkeyEnabled() bool {
	return s.InvocationMethod != InvokeTyping
}

// TypingEnabled reports whether the word-and-space gesture may open the panel.
func (s Settings) TypingEnabled() bool {
	return s.InvocationMethod != InvokeHotkey
}

// Clone returns a copy whose maps can be mutated independently.
func (s Settings) Clone() Settings {
	c := s
	c.APIKeys = make(map[Provider]string, len(s.APIKeys))
	for k, v := range s.APIKeys {
		c.APIKeys[k] = v
	}
	c.APIModels = make(map[Provider]string, len(s.APIModels))
	for k, v := range s.APIModels {
		c.APIModels[k] = v
	}
	return c
}
