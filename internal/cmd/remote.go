package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"inflow/internal/models"
	"inflow/internal/port"
)

const remoteTimeout = 5 * time.Second

var remoteRelayURL string

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Open the chat panel in the active reader",
	Long: `# Invoke

**Fire the invoke-inflow hotkey command at the relay.**

The relay ignores it when the invocation method is set to typing only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemotePost(cmd, "/v2/commands/"+models.CommandInvoke)
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Toggle the options panel in the active reader",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemotePost(cmd, "/v2/action")
	},
}

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the registered hotkey commands",
	Args:  cobra.NoArgs,
	RunE:  runCommands,
}

var shortcutsCmd = &cobra.Command{
	Use:   "shortcuts",
	Short: "Open the file where key bindings are configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := remoteBase()
		if err != nil {
			return err
		}
		if _, err := runtimeRequest(cmd.Context(), port.NewWebsocketDialer(base), models.ActionOpenShortcuts); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Opened shortcut configuration.")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{invokeCmd, optionsCmd, commandsCmd, shortcutsCmd} {
		c.Flags().StringVar(&remoteRelayURL, "relay", "", "Relay URL (default from config)")
		rootCmd.AddCommand(c)
	}
}

func remoteBase() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	configureStderrLogging(cfg)
	return relayURL(remoteRelayURL, cfg), nil
}

func runRemotePost(cmd *cobra.Command, path string) error {
	base, err := remoteBase()
	if err != nil {
		return err
	}
	status, err := postRelay(base + path)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), status)
	return nil
}

// postRelay POSTs to a relay endpoint and returns the reported status.
func postRelay(url string) (string, error) {
	agent := fiber.Post(url).Timeout(remoteTimeout)
	if err := agent.Parse(); err != nil {
		return "", err
	}
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("relay request failed: %w", errors.Join(errs...))
	}

	res := gjson.ParseBytes(body)
	if code != fiber.StatusOK {
		if msg := res.Get("error").String(); msg != "" {
			return "", fmt.Errorf("relay answered %d: %s", code, msg)
		}
		return "", fmt.Errorf("relay answered %d", code)
	}
	return res.Get("status").String(), nil
}

// runtimeRequest sends one request over the runtime channel and waits for its answer.
func runtimeRequest(ctx context.Context, dialer port.Dialer, action string) (models.Envelope, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	p, err := dialer.Connect(ctx, models.ChannelRuntime)
	if err != nil {
		return models.Envelope{}, err
	}
	defer p.Close()

	if err := p.Post(models.Envelope{Action: action}); err != nil {
		return models.Envelope{}, err
	}
	env, err := p.Receive()
	if err != nil {
		return models.Envelope{}, err
	}
	if env.Error != "" {
		return env, errors.New(env.Error)
	}
	return env, nil
}

func runCommands(cmd *cobra.Command, args []string) error {
	base, err := remoteBase()
	if err != nil {
		return err
	}
	env, err := runtimeRequest(cmd.Context(), port.NewWebsocketDialer(base), models.ActionGetCommands)
	if err != nil {
		return err
	}
	printCommands(cmd.OutOrStdout(), env.Commands)
	return nil
}

func printCommands(w io.Writer, cmds []models.Command) {
	name := lipgloss.NewStyle().Bold(true).Width(20)
	shortcut := lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Width(12)
	for _, c := range cmds {
		key := c.Shortcut
		if key == "" {
			key = "(unset)"
		}
		fmt.Fprintln(w, name.Render(c.Name)+shortcut.Render(key)+c.Description)
	}
}
