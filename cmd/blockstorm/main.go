// Package main is the entry point for the blockstorm command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/plugin"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	configPath  string
	pluginPaths []string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "blockstorm",
	Short: "Headless block editor core",
	Long: `blockstorm drives the block editor core without a browser.

It replays scripted input against a document, lists plugins and reports
how the keymap and history behave for a given configuration.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML or YAML configuration file")
	rootCmd.PersistentFlags().StringSliceVarP(&pluginPaths, "plugins", "p", nil, "plugin search directories (default: user and project plugin dirs)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(replayCmd, pluginsCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "blockstorm %s (commit %s, built %s)\n", version, commit, date)
	},
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if len(pluginPaths) > 0 {
		c.Plugins.Paths = pluginPaths
	} else if len(c.Plugins.Paths) == 0 {
		c.Plugins.Paths = plugin.DefaultPluginPaths()
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
