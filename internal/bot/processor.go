// Package bot implements the document processing pipeline and the
// callback actions behind the Slack buttons.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/ai"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/document"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/matching"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/moneybird"
)

// verdictLimit caps how many candidates get an LLM verdict per document.
const verdictLimit = 3

// AccountingClient is the subset of the Moneybird client the pipeline uses.
type AccountingClient interface {
	GetReceipt(ctx context.Context, receiptID string) (*moneybird.Document, error)
	GetPurchaseInvoice(ctx context.Context, invoiceID string) (*moneybird.Document, error)
	GetTypelessDocument(ctx context.Context, documentID string) (*moneybird.Document, error)
	DownloadAttachment(ctx context.Context, documentType, documentID, attachmentID string) ([]byte, string, error)
	ListUnreconciledMutations(ctx context.Context) ([]moneybird.FinancialMutation, error)
	BookReceipt(ctx context.Context, receiptID string) error
	BookPurchaseInvoice(ctx context.Context, invoiceID string) error
	LinkPaymentToReceipt(ctx context.Context, receiptID, mutationID string) error
	LinkPaymentToPurchaseInvoice(ctx context.Context, invoiceID, mutationID string) error
}

// Suggester drafts journal entries and payment-match verdicts.
type Suggester interface {
	SuggestJournalEntry(ctx context.Context, doc document.Document, hints *ai.AccountHints) (ai.JournalEntry, error)
	SuggestPaymentMatch(ctx context.Context, candidate matching.Candidate, doc document.Document) (string, error)
}

// Notifier posts and updates the Slack notifications.
type Notifier interface {
	UploadAttachment(ctx context.Context, data []byte, filename string) (string, error)
	PostDocumentNotification(ctx context.Context, doc document.Document, entry ai.JournalEntry, candidates []matching.Candidate, attachmentPermalink string) error
	MarkBooked(ctx context.Context, channelID, timestamp, label, counterparty string) error
	MarkSkipped(ctx context.Context, channelID, timestamp, label, counterparty string) error
	MarkPaymentLinked(ctx context.Context, channelID, timestamp, label, counterparty string) error
}

// Processor wires the accounting platform, the suggestion model and the
// notification channel together. All clients are injected so tests can
// substitute fakes.
type Processor struct {
	accounting AccountingClient
	suggester  Suggester
	notifier   Notifier
	hints      *ai.AccountHints
	tolerance  int64
	logger     *slog.Logger
}

// NewProcessor creates a Processor. hints may be nil.
func NewProcessor(accounting AccountingClient, suggester Suggester, notifier Notifier, hints *ai.AccountHints, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		accounting: accounting,
		suggester:  suggester,
		notifier:   notifier,
		hints:      hints,
		tolerance:  matching.DefaultTolerance,
		logger:     logger,
	}
}

// ProcessDocument runs the full pipeline for one inbound document event:
// fetch, normalize, upload attachment, draft journal entry, score payment
// candidates and post the notification. Data is fetched fresh on every
// invocation; nothing is shared across concurrent runs.
func (p *Processor) ProcessDocument(ctx context.Context, kind document.Kind, documentID string) error {
	raw, err := p.fetch(ctx, kind, documentID)
	if err != nil {
		return fmt.Errorf("fetch %s %s: %w", kind, documentID, err)
	}

	doc := document.Normalize(raw, kind)

	attachmentPermalink := p.uploadFirstAttachment(ctx, doc)

	entry, err := p.suggester.SuggestJournalEntry(ctx, doc, p.hints)
	if err != nil {
		return fmt.Errorf("journal suggestion for %s %s: %w", kind, documentID, err)
	}

	candidates := p.findCandidates(ctx, doc)
	for i := range candidates {
		if i >= verdictLimit {
			break
		}
		verdict, err := p.suggester.SuggestPaymentMatch(ctx, candidates[i], doc)
		if err != nil {
			p.logger.Warn("payment match verdict failed",
				"document_id", doc.ID, "mutation_id", candidates[i].ID, "error", err)
			continue
		}
		candidates[i].Verdict = verdict
	}

	if err := p.notifier.PostDocumentNotification(ctx, doc, entry, candidates, attachmentPermalink); err != nil {
		return fmt.Errorf("post notification for %s %s: %w", kind, documentID, err)
	}

	return nil
}

// Book marks the document as booked in Moneybird and updates the Slack
// message to its terminal state.
func (p *Processor) Book(ctx context.Context, kind document.Kind, documentID, channelID, timestamp string) error {
	raw, err := p.fetch(ctx, kind, documentID)
	if err != nil {
		return fmt.Errorf("fetch %s %s: %w", kind, documentID, err)
	}
	doc := document.Normalize(raw, kind)

	if kind == document.KindReceipt {
		err = p.accounting.BookReceipt(ctx, documentID)
	} else {
		err = p.accounting.BookPurchaseInvoice(ctx, documentID)
	}
	if err != nil {
		return fmt.Errorf("book %s %s: %w", kind, documentID, err)
	}

	if err := p.notifier.MarkBooked(ctx, channelID, timestamp, kind.Label(), doc.CounterpartyName); err != nil {
		return fmt.Errorf("update message for %s %s: %w", kind, documentID, err)
	}
	return nil
}

// Skip leaves the document untouched in Moneybird and updates the Slack
// message to show it was skipped.
func (p *Processor) Skip(ctx context.Context, kind document.Kind, documentID, channelID, timestamp string) error {
	raw, err := p.fetch(ctx, kind, documentID)
	if err != nil {
		return fmt.Errorf("fetch %s %s: %w", kind, documentID, err)
	}
	doc := document.Normalize(raw, kind)

	if err := p.notifier.MarkSkipped(ctx, channelID, timestamp, kind.Label(), doc.CounterpartyName); err != nil {
		return fmt.Errorf("update message for %s %s: %w", kind, documentID, err)
	}
	return nil
}

// LinkPayment attaches a bank transaction to the document as payment and
// updates the Slack message.
func (p *Processor) LinkPayment(ctx context.Context, kind document.Kind, documentID, mutationID, channelID, timestamp string) error {
	raw, err := p.fetch(ctx, kind, documentID)
	if err != nil {
		return fmt.Errorf("fetch %s %s: %w", kind, documentID, err)
	}
	doc := document.Normalize(raw, kind)

	if kind == document.KindReceipt {
		err = p.accounting.LinkPaymentToReceipt(ctx, documentID, mutationID)
	} else {
		err = p.accounting.LinkPaymentToPurchaseInvoice(ctx, documentID, mutationID)
	}
	if err != nil {
		return fmt.Errorf("link payment %s to %s %s: %w", mutationID, kind, documentID, err)
	}

	if err := p.notifier.MarkPaymentLinked(ctx, channelID, timestamp, kind.Label(), doc.CounterpartyName); err != nil {
		return fmt.Errorf("update message for %s %s: %w", kind, documentID, err)
	}
	return nil
}

// fetch loads the raw document. Receipts that were never classified only
// exist as typeless documents, so a failed receipt fetch falls back to
// the typeless endpoint.
func (p *Processor) fetch(ctx context.Context, kind document.Kind, documentID string) (*moneybird.Document, error) {
	if kind == document.KindReceipt {
		raw, err := p.accounting.GetReceipt(ctx, documentID)
		if err != nil {
			p.logger.Debug("receipt fetch failed, trying typeless document",
				"document_id", documentID, "error", err)
			return p.accounting.GetTypelessDocument(ctx, documentID)
		}
		return raw, nil
	}
	return p.accounting.GetPurchaseInvoice(ctx, documentID)
}

// uploadFirstAttachment uploads the document's first attachment to Slack
// and returns its permalink. Failures degrade to no attachment link.
func (p *Processor) uploadFirstAttachment(ctx context.Context, doc document.Document) string {
	if len(doc.AttachmentRefs) == 0 {
		return ""
	}

	att := doc.AttachmentRefs[0]
	filename := att.Filename
	if filename == "" {
		filename = fmt.Sprintf("attachment_%s", att.ID)
	}

	data, _, err := p.accounting.DownloadAttachment(ctx, doc.Kind.APIPath(), doc.ID, att.ID)
	if err != nil {
		p.logger.Warn("attachment download failed", "document_id", doc.ID, "attachment_id", att.ID, "error", err)
		return ""
	}

	permalink, err := p.notifier.UploadAttachment(ctx, data, filename)
	if err != nil {
		p.logger.Warn("attachment upload failed", "document_id", doc.ID, "attachment_id", att.ID, "error", err)
		return ""
	}

	return permalink
}

// findCandidates lists unreconciled transactions and filters them by
// amount tolerance. An unparsable document amount matches as zero and a
// listing failure degrades to no candidates; neither aborts the pipeline.
func (p *Processor) findCandidates(ctx context.Context, doc document.Document) []matching.Candidate {
	target, err := matching.ParseMinorUnits(doc.Amount)
	if err != nil {
		p.logger.Warn("unparsable document amount", "document_id", doc.ID, "amount", doc.Amount)
		target = 0
	}

	mutations, err := p.accounting.ListUnreconciledMutations(ctx)
	if err != nil {
		p.logger.Warn("listing unreconciled mutations failed", "document_id", doc.ID, "error", err)
		return nil
	}

	return matching.FindCandidates(target, doc.CounterpartyName, mutations, p.tolerance)
}
