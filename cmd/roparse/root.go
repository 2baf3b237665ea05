package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"roparse/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	notifications bool
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roparse [groupId]",
	Short: "Collect the usernames of every member of a Roblox group",
	Long: `roparse walks the public member listing of a Roblox group page by page
and writes every unique username, sorted, to users_<groupId>-<timestamp>.txt.

Features:
  - Sequential or coordinated concurrent page fetching
  - Optional cap on the number of collected users
  - Request pacing between pages
  - Graceful stop on Ctrl+C with partial results saved
  - Live terminal UI and desktop notifications
  - Prometheus metrics

Run without arguments in a terminal to be prompted for the group id.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// persistentPreRun applies the verbosity flags and prints the logo before any command runs.
func persistentPreRun(cmd *cobra.Command, args []string) {
	if quiet {
		logLevel = "error"
	} else if verbose {
		logLevel = "debug"
	}

	// The TUI draws its own logo
	if quiet || useTUI {
		return
	}
	if cmd == rootCmd || cmd == scrapeCmd {
		ui.PrintLogo()
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.roparse.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "enable desktop notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress logs and progress, print only the result")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug logs")

	rootCmd.SetVersionTemplate(`roparse {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentPreRun = persistentPreRun
}
