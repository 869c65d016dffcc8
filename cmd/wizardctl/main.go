// Command wizardctl runs the tenderdesk wizards in a terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tenderdesk/internal/config"
	"tenderdesk/internal/lib/logger"
)

var (
	backendURL string
	locale     string
	timeout    time.Duration
	logDir     string
)

var rootCmd = &cobra.Command{
	Use:   "wizardctl",
	Short: "Run tenderdesk wizards from the terminal",
	Long: `wizardctl drives the same step tables and validation as the web forms.

Available subcommands:
  signup - Create an account interactively
  scan   - Report contact details found in a text`,
	SilenceUsage: true,
}

func init() {
	conf, err := config.Default()
	if err != nil {
		conf = &config.Config{}
	}
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", conf.Backend.BaseURL, "backend API base URL")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "en", "message locale (en, ar)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", conf.Backend.Timeout, "backend request timeout")
	rootCmd.PersistentFlags().StringVar(&logDir, "log", "", "write a JSON log to this directory")

	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(scanCmd)
}

func newLogger() *slog.Logger {
	if logDir == "" {
		return slog.New(slog.DiscardHandler)
	}
	return logger.SetupLogger("dev", logDir)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
