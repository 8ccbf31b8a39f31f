package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"inflow/internal/config"
	"inflow/internal/logger"
	"inflow/internal/panel"
	"inflow/internal/port"
	"inflow/internal/relay"
	"inflow/internal/theme"
	"inflow/internal/ui"
)

var readCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "Open the reader on a document",
	Long: `# Read a Document

**Open a markdown or text file in the reader.**

## Asking

- Type a word and press **space** within a moment to open the chat panel with that word.
- Press **ctrl+k** to open or close the chat panel.
- Press **ctrl+o** for provider, API key, model and panel position.
- Press **/** to search the document, **ctrl+c** to quit.

## Relay

Without **--relay** the relay runs inside the reader and also listens on the
configured address, so **inflow invoke** and **inflow options** work from another terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runReader,
}

var readRelayURL string

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().StringVar(&readRelayURL, "relay", "", "URL of a running relay (default: run the relay in-process)")
}

func runReader(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	logFile, err := logger.ToFile(logger.GetLogLevelFromEnv(cfg.LogLevel), filepath.Join(dir, config.LogFileName))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	doc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	url := readRelayURL
	if url == "" {
		url = cfg.Relay.URL
	}

	var dialer port.Dialer
	if url != "" {
		logger.Infof("using relay at %s", url)
		dialer = port.NewWebsocketDialer(url)
	} else {
		srv := relay.New(relay.Options{
			Store:         store,
			Commands:      cfg.RegisteredCommands(),
			OpenShortcuts: openShortcutPage(cfg),
		})
		defer func() {
			if err := srv.Shutdown(); err != nil {
				logger.Debugf("relay shutdown: %v", err)
			}
		}()
		go func() {
			if err := srv.Listen(cfg.Relay.Listen); err != nil {
				logger.Warnf("in-process relay is not reachable from other processes: %v", err)
			}
		}()
		dialer = srv.Dialer()
	}

	// Ask the terminal once, before the program owns stdin.
	bg, sampled := theme.TerminalSampler{}.SampleBackground()
	dark := lipgloss.HasDarkBackground()
	if sampled {
		dark = !theme.IsLight(bg)
	}

	p := ui.NewProgram(ui.Options{
		Path:       args[0],
		Document:   string(doc),
		Store:      store,
		Dialer:     dialer,
		Keys:       cfg.Keys,
		WordWindow: cfg.WordWindow(),
		Typing: panel.TypingConfig{
			Interval: cfg.TypeInterval(),
			MinChars: cfg.Typing.MinChars,
			MaxChars: cfg.Typing.MaxChars,
		},
		Terminal:       theme.Fixed{Color: bg, OK: sampled},
		DarkBackground: dark,
	})

	logger.Infof("reading %s", args[0])
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("reader exited: %w", err)
	}
	return nil
}
