// Package notifier posts and updates the interactive Slack messages that
// drive the human accept/skip/link decisions.
package notifier

import (
	"bytes"
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/ai"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/document"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/matching"
)

// Action identifiers carried by the interactive buttons. The button value
// encodes "{kind}:{id}" (book, skip) or "{kind}:{id}:{transactionId}"
// (link payment).
const (
	ActionBookDocument = "book_document"
	ActionSkipDocument = "skip_document"
	ActionLinkPayment  = "link_payment"
)

// maxCandidates caps how many payment candidates are shown per message.
const maxCandidates = 3

// Notifier posts document notifications to a fixed Slack channel and
// updates them in place once a decision has been applied.
type Notifier struct {
	api       *slack.Client
	channelID string
}

// New creates a Notifier posting to the given channel.
func New(botToken, channelID string) *Notifier {
	return &Notifier{
		api:       slack.New(botToken),
		channelID: channelID,
	}
}

// UploadAttachment uploads a document attachment to the notification
// channel and returns its permalink.
func (n *Notifier) UploadAttachment(ctx context.Context, data []byte, filename string) (string, error) {
	summary, err := n.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:   bytes.NewReader(data),
		FileSize: len(data),
		Filename: filename,
		Title:    filename,
		Channel:  n.channelID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	// files.upload_v2 returns only the file id; the permalink needs a
	// second lookup.
	file, _, _, err := n.api.GetFileInfoContext(ctx, summary.ID, 0, 0)
	if err != nil {
		return "", fmt.Errorf("failed to fetch uploaded file info: %w", err)
	}

	return file.Permalink, nil
}

// PostDocumentNotification posts the interactive notification for a newly
// received document.
func (n *Notifier) PostDocumentNotification(ctx context.Context, doc document.Document, entry ai.JournalEntry, candidates []matching.Candidate, attachmentPermalink string) error {
	fallback := fmt.Sprintf("New %s from %s - %s %s",
		doc.Kind.Label(), doc.CounterpartyName, doc.Currency, doc.Amount)

	_, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(buildDocumentBlocks(doc, entry, candidates, attachmentPermalink)...),
	)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	return nil
}

// MarkBooked replaces the message with a booked confirmation.
func (n *Notifier) MarkBooked(ctx context.Context, channelID, timestamp, label, counterparty string) error {
	text := fmt.Sprintf("✅ *%s* from *%s* has been booked in Moneybird.", label, counterparty)
	return n.update(ctx, channelID, timestamp, text)
}

// MarkSkipped replaces the message with a skipped notice.
func (n *Notifier) MarkSkipped(ctx context.Context, channelID, timestamp, label, counterparty string) error {
	text := fmt.Sprintf("⏭ *%s* from *%s* was skipped.", label, counterparty)
	return n.update(ctx, channelID, timestamp, text)
}

// MarkPaymentLinked replaces the message with a payment-linked notice.
func (n *Notifier) MarkPaymentLinked(ctx context.Context, channelID, timestamp, label, counterparty string) error {
	text := fmt.Sprintf("💳 Payment linked for *%s* from *%s*.", label, counterparty)
	return n.update(ctx, channelID, timestamp, text)
}

func (n *Notifier) update(ctx context.Context, channelID, timestamp, text string) error {
	_, _, _, err := n.api.UpdateMessageContext(ctx, channelID, timestamp,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return nil
}
