package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/document"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/matching"
)

// JournalEntry is a suggested double-entry booking for a document.
type JournalEntry struct {
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Explanation string `json:"explanation"`
}

const (
	fallbackDebit  = "Uncategorized Expense"
	fallbackCredit = "Accounts Payable"
)

// SuggestJournalEntry asks the model to propose a journal entry for the
// document. Output that cannot be parsed as the expected JSON structure
// degrades to a fixed fallback pair carrying the raw model text as the
// explanation; the hints file, when present, can refine the fallback
// debit account from the line item descriptions.
func (c *Client) SuggestJournalEntry(ctx context.Context, doc document.Document, hints *AccountHints) (JournalEntry, error) {
	raw, err := c.complete(ctx, journalModel, 256, journalPrompt(doc, hints))
	if err != nil {
		return JournalEntry{}, err
	}

	var entry JournalEntry
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &entry); err != nil || entry.Debit == "" || entry.Credit == "" {
		return JournalEntry{
			Debit:       hints.DebitFor(lineItemText(doc), fallbackDebit),
			Credit:      fallbackCredit,
			Explanation: raw,
		}, nil
	}

	return entry, nil
}

// SuggestPaymentMatch asks the model whether a bank transaction looks like
// a payment for the document. The returned verdict is one short free-text
// sentence expected to begin with YES or NO.
func (c *Client) SuggestPaymentMatch(ctx context.Context, candidate matching.Candidate, doc document.Document) (string, error) {
	return c.complete(ctx, verdictModel, 64, verdictPrompt(candidate, doc))
}

func journalPrompt(doc document.Document, hints *AccountHints) string {
	var lineItems strings.Builder
	for _, item := range doc.LineItems {
		lineItems.WriteString(fmt.Sprintf("  - %s: %s %s\n",
			orDefault(item.Description, "N/A"), orDefault(item.Amount, "N/A"), doc.Currency))
	}
	if lineItems.Len() == 0 {
		lineItems.WriteString("  (none)")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are an accountant. Based on the following %s, suggest a journal entry using English account names.

Document details:
- Type: %s
- Contact/Vendor: %s
- Date: %s
- Total Amount: %s %s
- Description: %s
- Line items:
%s
`,
		doc.Kind.Label(), doc.Kind.Label(),
		orDefault(doc.CounterpartyName, "Unknown"),
		orDefault(doc.Date, "Unknown"),
		doc.Amount, doc.Currency,
		orDefault(doc.Memo, "N/A"),
		lineItems.String())

	if section := hints.PromptSection(); section != "" {
		fmt.Fprintf(&b, "\nPrefer these debit accounts when one fits:\n%s\n", section)
	}

	b.WriteString(`
Respond ONLY with a JSON object in this exact format:
{
  "debit": "<account name, e.g. Office Supplies, Travel Expense, Utilities>",
  "credit": "<account name, e.g. Accounts Payable, Cash, Bank>",
  "explanation": "<one sentence explaining why>"
}`)

	return b.String()
}

func verdictPrompt(candidate matching.Candidate, doc document.Document) string {
	return fmt.Sprintf(`Does this bank transaction look like a payment for the document below?

Document:
- Contact: %s
- Amount: %s %s
- Date: %s

Bank transaction:
- Date: %s
- Amount: %s
- Description: %s
- Counter-party: %s

Reply in one short sentence (15 words max) starting with YES or NO.`,
		orDefault(doc.CounterpartyName, "Unknown"),
		doc.Amount, doc.Currency,
		orDefault(doc.Date, "Unknown"),
		candidate.Date,
		candidate.Amount,
		candidate.Description,
		orDefault(candidate.CounterpartyName, "Unknown"))
}

// stripCodeFence removes an optional markdown code fence (with or without
// a "json" language tag) wrapping the model output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "json")

	return strings.TrimSpace(s)
}

func lineItemText(doc document.Document) string {
	parts := make([]string, 0, len(doc.LineItems)+1)
	parts = append(parts, doc.Memo)
	for _, item := range doc.LineItems {
		parts = append(parts, item.Description)
	}
	return strings.Join(parts, " ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
