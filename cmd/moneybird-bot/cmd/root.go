// Package cmd provides CLI commands for moneybird-bot.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "moneybird-bot",
	Short: "Slack assistant for incoming Moneybird documents",
	Long: `moneybird-bot bridges Moneybird and Slack. When Moneybird delivers a
webhook for a new receipt or purchase invoice, the bot fetches the
document, asks Claude for a journal entry suggestion and likely payment
matches among unreconciled bank transactions, and posts an interactive
Slack message. Button decisions (book, skip, link payment) are applied
back to Moneybird.

Example:
  moneybird-bot serve
  moneybird-bot register-webhook --url https://bot.example.com/webhook`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registerWebhookCmd)
}
