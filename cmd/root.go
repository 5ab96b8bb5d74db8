package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pathweaver/pathweaver/internal/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "pathweaver",
	Short: "Story direction suggestion engine",
	Long: `pathweaver generates story direction suggestions for an ongoing
roleplay conversation.

Commands:
  pathweaver serve     Run the HTTP service the host UI talks to
  pathweaver suggest   Generate suggestions for a host-state JSON file
  pathweaver models    List models on the configured ollama server
  pathweaver version   Print the version`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error, fatal, panic")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
