package models

import "encoding/json"

// Channel names.
const (
	ChannelStreamCompletion = "streamCompletion"
	ChannelRuntime          = "runtime"
	ChannelPage             = "page"
)

// Actions carried in Envelope.Action.
const (
	ActionStreamCompletion = "streamCompletion"
	ActionGetCommands      = "get_commands"
	ActionOpenShortcuts    = "open_shortcut_page"
	ActionToggleOptions    = "coflow_toggle_options"
	ActionInvokePanel      = "coflow_invoke_panel"
)

// CommandInvoke is the hotkey command that opens the chat panel.
const CommandInvoke = "invoke-inflow"

// StreamPayload is the body of a streamCompletion request.
type StreamPayload struct {
	APIURL   string          `json:"apiUrl"`
	Model    string          `json:"model"`
	Messages json.RawMessage `json:"messages"`
	APIKey   string          `json:"apiKey"`
	Provider string          `json:"provider"`
}

// Envelope is every message that crosses a channel. Requests set Action;
// responses set exactly one of Chunk, Done, Error or Commands.
type Envelope struct {
	Action   string         `json:"action,omitempty"`
	Payload  *StreamPayload `json:"payload,omitempty"`
	Chunk    string         `json:"chunk,omitempty"`
	Done     bool           `json:"done,omitempty"`
	Error    string         `json:"error,omitempty"`
	Commands []Command      `json:"commands,omitempty"`
}

// Terminal reports whether the envelope ends a stream.
func (e Envelope) Terminal() bool {
	return e.Done || e.Error != ""
}
