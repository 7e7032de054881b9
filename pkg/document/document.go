// Package document normalizes the heterogeneous Moneybird document shapes
// (receipts and purchase invoices use divergent field names) into one
// canonical record used by the rest of the pipeline.
package document

import "github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/moneybird"

// Kind identifies the two document kinds the bot processes. The string
// value doubles as the wire token in Slack callback values.
type Kind string

const (
	KindReceipt         Kind = "receipt"
	KindPurchaseInvoice Kind = "purchase_invoice"
)

// Label returns the human-readable name used in Slack messages.
func (k Kind) Label() string {
	switch k {
	case KindReceipt:
		return "Receipt"
	case KindPurchaseInvoice:
		return "Purchase Invoice"
	default:
		return "Document"
	}
}

// APIPath returns the plural documents path segment for this kind.
func (k Kind) APIPath() string {
	return string(k) + "s"
}

// ParseKind maps a callback token back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindReceipt:
		return KindReceipt, true
	case KindPurchaseInvoice:
		return KindPurchaseInvoice, true
	default:
		return "", false
	}
}

// LineItem is a single normalized line entry.
type LineItem struct {
	Description string
	Amount      string
}

// AttachmentRef is an opaque reference to an attachment on the source document.
type AttachmentRef struct {
	ID       string
	Filename string
}

// Document is the canonical, normalized view of a receipt or purchase
// invoice. It is constructed once per inbound event and immutable
// thereafter; it is never persisted.
//
// Amount and Date are passed through in the source's string format;
// amounts are not parsed to a numeric type at this layer.
type Document struct {
	ID               string
	Kind             Kind
	CounterpartyName string
	Date             string
	Amount           string
	Currency         string
	Memo             string
	LineItems        []LineItem
	AttachmentRefs   []AttachmentRef
}

// Normalize maps a raw Moneybird document into a canonical Document.
// Every field falls back to a safe default when absent: Amount is never
// empty (falls back to "0"), Currency defaults to "EUR" and LineItems is
// never nil. Normalize performs no I/O and cannot fail.
func Normalize(raw *moneybird.Document, kind Kind) Document {
	doc := Document{
		ID:               raw.ID,
		Kind:             kind,
		CounterpartyName: counterpartyName(raw),
		Date:             firstNonEmpty(raw.Date, raw.InvoiceDate),
		Amount:           firstNonEmpty(raw.TotalAmountInclTax, raw.TotalAmount, "0"),
		Currency:         firstNonEmpty(raw.Currency, "EUR"),
		Memo:             firstNonEmpty(raw.Reference, raw.InvoiceSequenceIdentifier),
		LineItems:        make([]LineItem, 0, len(raw.Details)),
		AttachmentRefs:   make([]AttachmentRef, 0, len(raw.Attachments)),
	}

	for _, detail := range raw.Details {
		// Entries without a description are kept, never dropped.
		doc.LineItems = append(doc.LineItems, LineItem{
			Description: detail.Description,
			Amount:      firstNonEmpty(detail.TotalAmountInclTax, detail.TotalAmount),
		})
	}

	for _, att := range raw.Attachments {
		doc.AttachmentRefs = append(doc.AttachmentRefs, AttachmentRef{
			ID:       att.ID,
			Filename: att.Filename,
		})
	}

	return doc
}

// counterpartyName resolves the display name for the document's contact:
// the embedded contact's organization name, then its given name, then the
// bare contact id as a last-resort display string.
func counterpartyName(raw *moneybird.Document) string {
	if raw.Contact != nil {
		if name := firstNonEmpty(raw.Contact.CompanyName, raw.Contact.Firstname); name != "" {
			return name
		}
	}
	return raw.ContactID
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
