package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/config"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/moneybird"
)

var webhookURL string

// webhookEvents are the Moneybird events the bot subscribes to.
var webhookEvents = []string{
	"receipt_created",
	"receipt_updated",
	"purchase_invoice_created",
	"purchase_invoice_updated",
}

var registerWebhookCmd = &cobra.Command{
	Use:   "register-webhook",
	Short: "Register the bot's webhook URL with Moneybird",
	Long: `Registers the webhook endpoint for receipt and purchase invoice events
in the configured Moneybird administration. Run once per deployment.`,
	RunE: runRegisterWebhook,
}

func init() {
	registerWebhookCmd.Flags().StringVar(&webhookURL, "url", "", "public URL of the /webhook endpoint (required)")
	_ = registerWebhookCmd.MarkFlagRequired("url")
}

func runRegisterWebhook(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Moneybird.Token == "" || cfg.Moneybird.AdministrationID == "" {
		return fmt.Errorf("MONEYBIRD_TOKEN and MONEYBIRD_ADMINISTRATION_ID must be set")
	}

	client := moneybird.NewClient(moneybird.ClientConfig{
		BaseURL:          cfg.Moneybird.APIURL,
		AdministrationID: cfg.Moneybird.AdministrationID,
		Token:            cfg.Moneybird.Token,
	})

	webhook, err := client.CreateWebhook(cmd.Context(), webhookURL, webhookEvents)
	if err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}

	slog.Info("webhook registered", "id", webhook.ID, "url", webhook.URL, "events", webhook.Events)
	fmt.Printf("Registered webhook %s for %s\n", webhook.ID, webhook.URL)

	return nil
}
