package models

import "errors"

// Provider identifies the upstream chat completions API a request is sent to.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenRouter Provider = "openrouter"
	ProviderCustom     Provider = "custom"
)

// Providers lists the selectable providers in the order the options panel cycles them.
var Providers = []Provider{
	ProviderOpenAI,
	ProviderGemini,
	ProviderAnthropic,
	ProviderOpenRouter,
	ProviderCustom,
}

// PanelPosition is where the chat panel is anchored on the page.
type PanelPosition string

const (
	PositionBottomRight PanelPosition = "bottom-right"
	PositionTopRight    PanelPosition = "top-right"
)

// InvocationMethod controls which gestures may open the chat panel.
type InvocationMethod string

const (
	InvokeTypingOrHotkey InvocationMethod = "typing-or-hotkey"
	InvokeTyping         InvocationMethod = "typing"
	InvokeHotkey         InvocationMethod = "hotkey"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleBot       = "bot" // display-only; never sent upstream
)

const (
	DefaultProvider = ProviderOpenRouter
	DefaultModel    = "openai/gpt-4o-mini"
)

var (
	ErrMissingAPIKey  = errors.New("api key is not set")
	ErrMissingBaseURL = errors.New("custom base url is not set")
)

// Message is one transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Snapshot describes the visible part of the page at the moment it was taken.
type Snapshot struct {
	Domain       string
	Title        string
	ViewportText string
}

// Command is a registered hotkey command.
type Command struct {
	Name        string `json:"name"`
	Shortcut    string `json:"shortcut"`
	Description string `json:"description"`
}
