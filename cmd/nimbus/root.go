package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nimbus/internal/config"
	"nimbus/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// cfg is the resolved configuration, loaded before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nimbus",
	Short: "Weather tools over the Model Context Protocol",
	Long: "Nimbus serves National Weather Service alerts and forecasts as MCP tools,\n" +
		"chats with an MCP server through an LLM, and registers servers with the\n" +
		"desktop host's config file.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}

	levelName := rootFlags.logLevel
	if levelName == "" {
		levelName = cfg.LogLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	format := rootFlags.logFormat
	if format == "" {
		format = cfg.LogFormat
	}
	logging.Init(level, format)
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to nimbus config file (YAML or JSON)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(serversCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
