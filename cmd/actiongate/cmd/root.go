// Package cmd provides the CLI commands for the action gateway.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/actiongate/actiongate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "actiongate",
	Short: "Action Gateway - web front-end for serverless actions",
	Long: `Action Gateway exposes serverless actions as anonymous web endpoints.

It resolves fully-qualified action names from URL paths, merges bound and
request parameters under a strict precedence order, enforces authentication
annotations and activation-rate quotas, and shapes the action result into an
HTTP response according to the media extension (.http, .json, .html, .svg,
.text).

Quick start:
  1. Create a config file: actiongate.yaml
  2. Run: actiongate start

Configuration:
  Config is loaded from actiongate.yaml in the current directory,
  $HOME/.actiongate/, or /etc/actiongate/.

  Environment variables can override config values with the ACTIONGATE_ prefix.
  Example: ACTIONGATE_SERVER_HTTP_ADDR=:9090

Commands:
  start       Start the gateway server
  keygen      Generate a namespace credential (UUID + secret)
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./actiongate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
