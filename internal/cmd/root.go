package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"inflow/internal/config"
	"inflow/internal/db"
	"inflow/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "inflow",
	Short: "Ask an LLM about the document you are reading",
	Long: `# inflow

**Read a document in the terminal and ask an LLM about what is on screen.**

## Getting Started

Run **inflow read notes.md**, type a word and press space, or press **ctrl+k**.
Press **ctrl+o** to choose a provider and set your API key.

A background relay owns every call to the provider. **inflow read** starts one
in-process unless **--relay** points at a running **inflow relay**.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/inflow/config.toml)")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderMarkdownHelp(cmd)
	})
}

// renderMarkdownHelp prints command help through glamour.
func renderMarkdownHelp(cmd *cobra.Command) {
	var help strings.Builder

	if cmd.Long != "" {
		help.WriteString(cmd.Long)
	} else {
		help.WriteString("# " + cmd.Short)
	}
	help.WriteString("\n\n## Usage\n\n```bash\n")
	help.WriteString(cmd.UseLine())
	help.WriteString("\n```\n\n")

	if cmd.HasAvailableSubCommands() {
		help.WriteString("## Commands\n\n")
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				fmt.Fprintf(&help, "- **%s** - %s\n", sub.Name(), sub.Short)
			}
		}
		help.WriteString("\n")
	}

	if cmd.HasAvailableLocalFlags() {
		help.WriteString("## Flags\n\n```\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString("```\n\n")
	}
	if cmd.HasAvailableInheritedFlags() {
		help.WriteString("## Global Flags\n\n```\n")
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("```\n")
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		_ = cmd.Usage()
		return
	}
	out, err := r.Render(help.String())
	if err != nil {
		_ = cmd.Usage()
		return
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

func openStore(cfg *config.Config) (*db.Store, error) {
	conn, err := db.OpenInflowDB(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config store %s: %w", cfg.Store.Path, err)
	}
	return db.NewStore(conn), nil
}

// relayURL is where a running relay can be reached: the flag, then the
// config file, then the default listen address.
func relayURL(flag string, cfg *config.Config) string {
	switch {
	case flag != "":
		return strings.TrimRight(flag, "/")
	case cfg.Relay.URL != "":
		return strings.TrimRight(cfg.Relay.URL, "/")
	}
	return "http://" + cfg.Relay.Listen
}

func configureStderrLogging(cfg *config.Config) {
	logger.Configure(logger.GetLogLevelFromEnv(cfg.LogLevel), cfg.Dev)
}
