package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/internal/bot"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/internal/server"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/internal/worker"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/ai"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/config"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/moneybird"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/notifier"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Starts the HTTP server that receives Moneybird document webhooks and
Slack interactivity callbacks. Document events are processed on a
bounded background worker pool; the webhook caller is always
acknowledged immediately.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var hints *ai.AccountHints
	if cfg.AccountHintsPath != "" {
		hints, err = ai.LoadAccountHints(cfg.AccountHintsPath)
		if err != nil {
			return fmt.Errorf("failed to load account hints: %w", err)
		}
		slog.Info("account hints loaded", "path", cfg.AccountHintsPath, "entries", len(hints.Accounts))
	}

	accounting := moneybird.NewClient(moneybird.ClientConfig{
		BaseURL:          cfg.Moneybird.APIURL,
		AdministrationID: cfg.Moneybird.AdministrationID,
		Token:            cfg.Moneybird.Token,
	})

	suggester := ai.NewClient(ai.ClientConfig{
		APIKey:  cfg.Anthropic.APIKey,
		BaseURL: cfg.Anthropic.APIURL,
	})

	notify := notifier.New(cfg.Slack.BotToken, cfg.Slack.ChannelID)

	processor := bot.NewProcessor(accounting, suggester, notify, hints, slog.Default())

	pool := worker.NewPool(cfg.Worker.Count, cfg.Worker.QueueSize, slog.Default())

	srv := server.New(processor, pool, cfg.Slack.SigningSecret, slog.Default())

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := httpServer.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting moneybird-bot server",
		"addr", addr, "workers", cfg.Worker.Count, "queue_size", cfg.Worker.QueueSize)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	// Drain queued background work before exiting.
	pool.Stop()
	slog.Info("server stopped")

	return nil
}
