// Package moneybird provides a Moneybird Accounting API client and types.
package moneybird

// Contact represents the contact embedded in a Moneybird document.
type Contact struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
}

// Detail represents a line item in a Moneybird document.
type Detail struct {
	ID                 string `json:"id"`
	Description        string `json:"description"`
	TotalAmount        string `json:"total_amount"`
	TotalAmountInclTax string `json:"total_amount_incl_tax"`
}

// Attachment represents an attachment on a Moneybird document.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// Document represents a receipt, purchase invoice or typeless document as
// returned by the Moneybird documents endpoints. The three document kinds
// share this shape but populate different subsets of it: receipts carry
// "date" and "reference", purchase invoices carry "invoice_date" and
// "invoice_sequence_identifier".
type Document struct {
	ID                        string       `json:"id"`
	ContactID                 string       `json:"contact_id"`
	Contact                   *Contact     `json:"contact"`
	State                     string       `json:"state"`
	Date                      string       `json:"date"`
	InvoiceDate               string       `json:"invoice_date"`
	Reference                 string       `json:"reference"`
	InvoiceSequenceIdentifier string       `json:"invoice_sequence_identifier"`
	Currency                  string       `json:"currency"`
	TotalAmount               string       `json:"total_amount"`
	TotalAmountInclTax        string       `json:"total_amount_incl_tax"`
	Details                   []Detail     `json:"details"`
	Attachments               []Attachment `json:"attachments"`
}

// MutationContact represents the contact attached to a financial mutation.
type MutationContact struct {
	CompanyName string `json:"company_name"`
}

// FinancialMutation represents a bank transaction in the Moneybird
// administration. Amount is a decimal string as delivered by the API,
// using either "." or "," as the decimal separator.
type FinancialMutation struct {
	ID          string           `json:"id"`
	Date        string           `json:"date"`
	Amount      string           `json:"amount"`
	Message     string           `json:"message"`
	Description string           `json:"description"`
	State       string           `json:"state"`
	Contact     *MutationContact `json:"contact"`
}

// Webhook represents a registered Moneybird webhook.
type Webhook struct {
	ID      string   `json:"id"`
	URL     string   `json:"url"`
	Events  []string `json:"events"`
	Enabled bool     `json:"enabled"`
}

// ErrorResponse represents an error response from the Moneybird API.
type ErrorResponse struct {
	Error string `json:"error,omitempty"`
}
