// Package config loads the inflow application configuration.
//
// The file lives at ~/.config/inflow/config.toml. Missing files and missing
// keys fall back to Default(); environment variables override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"inflow/internal/models"
)

const (
	AppDirName     = "inflow"
	ConfigFileName = "config.toml"
	DBFileName     = "inflow.db"
	LogFileName    = "inflow.log"
)

// Config is the application configuration. User-facing provider settings
// live in the Config Store, not here.
type Config struct {
	LogLevel string `toml:"log_level"`
	Dev      bool   `toml:"dev"`

	Relay    RelayConfig    `toml:"relay"`
	Store    StoreConfig    `toml:"store"`
	Keys     KeyConfig      `toml:"keys"`
	Gesture  GestureConfig  `toml:"gesture"`
	Typing   TypingConfig   `toml:"typewriter"`
	Commands []CommandEntry `toml:"commands"`
}

type RelayConfig struct {
	// Listen is the address `inflow relay` binds.
	Listen string `toml:"listen"`
	// URL of a running relay. Empty runs the relay inside the reader process.
	URL string `toml:"url"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

// KeyConfig holds the reader key bindings for the explicit triggers.
type KeyConfig struct {
	Invoke  string `toml:"invoke"`
	Options string `toml:"options"`
}

type GestureConfig struct {
	WordWindowMs int `toml:"word_window_ms"`
}

type TypingConfig struct {
	IntervalMs int `toml:"interval_ms"`
	MinChars   int `toml:"min_chars"`
	MaxChars   int `toml:"max_chars"`
}

type CommandEntry struct {
	Name        string `toml:"name"`
	Shortcut    string `toml:"shortcut"`
	Description string `toml:"description"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Relay: RelayConfig{
			Listen: "127.0.0.1:7878",
		},
		Keys: KeyConfig{
			Invoke:  "ctrl+k",
			Options: "ctrl+o",
		},
		Gesture: GestureConfig{WordWindowMs: 1200},
		Typing: TypingConfig{
			IntervalMs: 25,
			MinChars:   2,
			MaxChars:   4,
		},
	}
}

// Dir returns the inflow data directory.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("could not determine config directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppDirName), nil
}

// Path returns the TOML config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Load reads the config file if present, then applies defaults and env overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load for an explicit file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies INFLOW_* variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("INFLOW_RELAY_URL"); v != "" {
		c.Relay.URL = v
	}
	if v := os.Getenv("INFLOW_LISTEN"); v != "" {
		c.Relay.Listen = v
	}
	if v := os.Getenv("INFLOW_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("INFLOW_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// SetDefaults fills zero values left by a partial file.
func (c *Config) SetDefaults() error {
	d := Default()
	if c.Relay.Listen == "" {
		c.Relay.Listen = d.Relay.Listen
	}
	if c.Keys.Invoke == "" {
		c.Keys.Invoke = d.Keys.Invoke
	}
	if c.Keys.Options == "" {
		c.Keys.Options = d.Keys.Options
	}
	if c.Gesture.WordWindowMs <= 0 {
		c.Gesture.WordWindowMs = d.Gesture.WordWindowMs
	}
	if c.Typing.IntervalMs <= 0 {
		c.Typing.IntervalMs = d.Typing.IntervalMs
	}
	if c.Typing.MinChars <= 0 {
		c.Typing.MinChars = d.Typing.MinChars
	}
	if c.Typing.MaxChars <= 0 {
		c.Typing.MaxChars = d.Typing.MaxChars
	}
	if c.Store.Path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		c.Store.Path = filepath.Join(dir, DBFileName)
	}
	return nil
}

// Validate rejects settings the reader cannot run with.
func (c *Config) Validate() error {
	if c.Typing.MinChars > c.Typing.MaxChars {
		return fmt.Errorf("typewriter.min_chars (%d) exceeds max_chars (%d)", c.Typing.MinChars, c.Typing.MaxChars)
	}
	if c.Relay.URL != "" && !strings.HasPrefix(c.Relay.URL, "http://") && !strings.HasPrefix(c.Relay.URL, "https://") {
		return fmt.Errorf("relay.url must be an http(s) URL, got %q", c.Relay.URL)
	}
	return nil
}

func (c *Config) WordWindow() time.Duration {
	return time.Duration(c.Gesture.WordWindowMs) * time.Millisecond
}

func (c *Config) TypeInterval() time.Duration {
	return time.Duration(c.Typing.IntervalMs) * time.Millisecond
}

// RegisteredCommands returns the hotkey commands reported by get_commands.
func (c *Config) RegisteredCommands() []models.Command {
	cmds := []models.Command{
		{Name: models.CommandInvoke, Shortcut: c.Keys.Invoke, Description: "Open the chat panel"},
		{Name: "_execute_action", Shortcut: c.Keys.Options, Description: "Toggle the options panel"},
	}
	for _, e := range c.Commands {
		if e.Name == models.CommandInvoke || e.Name == "_execute_action" {
			continue
		}
		cmds = append(cmds, models.Command{Name: e.Name, Shortcut: e.Shortcut, Description: e.Description})
	}
	return cmds
}
