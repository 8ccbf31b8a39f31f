package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"inflow/internal/config"
	"inflow/internal/logger"
	"inflow/internal/relay"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the background relay",
	Long: `# Background Relay

**Run the relay that owns every call to the LLM provider.**

Readers started with **--relay** connect here, and **inflow invoke** / **inflow options**
push commands to the reader that connected last.

## Endpoints

- **GET /v2/channel/:name** - websocket channel (streamCompletion, runtime, page)
- **POST /v2/commands/invoke-inflow** - open the chat panel
- **POST /v2/action** - toggle the options panel`,
	Args: cobra.NoArgs,
	RunE: runRelay,
}

var relayListen string

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().StringVarP(&relayListen, "listen", "l", "", "Address to listen on (default from config)")
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	configureStderrLogging(cfg)

	if relayListen != "" {
		cfg.Relay.Listen = relayListen
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := relay.New(relay.Options{
		Store:         store,
		Commands:      cfg.RegisteredCommands(),
		OpenShortcuts: openShortcutPage(cfg),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Relay.Listen)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("relay stopped: %w", err)
	case <-ctx.Done():
		logger.Infof("shutting down relay")
		return srv.Shutdown()
	}
}

// openShortcutPage opens the config file that holds the key bindings,
// writing the current configuration first when there is no file yet.
func openShortcutPage(cfg *config.Config) func() error {
	return func() error {
		path := configPath
		if path == "" {
			p, err := config.Path()
			if err != nil {
				return err
			}
			path = p
		}
		if err := ensureConfigFile(path, cfg); err != nil {
			return err
		}
		logger.Infof("opening %s", path)
		return browser.OpenFile(path)
	}
}

func ensureConfigFile(path string, cfg *config.Config) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
