package moneybird

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://moneybird.com/api/v2"

// ClientConfig represents the configuration for the Moneybird API client.
type ClientConfig struct {
	BaseURL          string
	AdministrationID string
	Token            string
	Timeout          time.Duration // Default: 30 seconds
}

// Client is a Moneybird Accounting API client. All requests are scoped to
// a single administration.
type Client struct {
	httpClient *http.Client
	baseURL    string
	adminID    string
}

// NewClient creates a new Moneybird API client authenticated with a
// personal API token.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token})
	httpClient := oauth2.NewClient(context.Background(), source)
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		adminID:    config.AdministrationID,
	}
}

// GetReceipt fetches a receipt by id.
func (c *Client) GetReceipt(ctx context.Context, receiptID string) (*Document, error) {
	var doc Document
	if err := c.get(ctx, fmt.Sprintf("documents/receipts/%s", receiptID), nil, &doc); err != nil {
		return nil, fmt.Errorf("failed to get receipt %s: %w", receiptID, err)
	}
	return &doc, nil
}

// GetPurchaseInvoice fetches a purchase invoice by id.
func (c *Client) GetPurchaseInvoice(ctx context.Context, invoiceID string) (*Document, error) {
	var doc Document
	if err := c.get(ctx, fmt.Sprintf("documents/purchase_invoices/%s", invoiceID), nil, &doc); err != nil {
		return nil, fmt.Errorf("failed to get purchase invoice %s: %w", invoiceID, err)
	}
	return &doc, nil
}

// GetTypelessDocument fetches a typeless document by id. Receipts that have
// not been classified yet live under this endpoint.
func (c *Client) GetTypelessDocument(ctx context.Context, documentID string) (*Document, error) {
	var doc Document
	if err := c.get(ctx, fmt.Sprintf("documents/typeless_documents/%s", documentID), nil, &doc); err != nil {
		return nil, fmt.Errorf("failed to get typeless document %s: %w", documentID, err)
	}
	return &doc, nil
}

// DownloadAttachment downloads an attachment's bytes. documentType is the
// plural API path segment ("receipts" or "purchase_invoices"). It returns
// the file content and the Content-Type reported by the API.
func (c *Client) DownloadAttachment(ctx context.Context, documentType, documentID, attachmentID string) ([]byte, string, error) {
	endpoint := fmt.Sprintf("%s/%s/documents/%s/%s/attachments/%s/download",
		c.baseURL, c.adminID, documentType, documentID, attachmentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", c.parseError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read attachment: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return data, contentType, nil
}

// ListUnreconciledMutations lists financial mutations that have not been
// reconciled against a document yet.
func (c *Client) ListUnreconciledMutations(ctx context.Context) ([]FinancialMutation, error) {
	params := url.Values{}
	params.Set("filter", "state:unprocessed")

	var mutations []FinancialMutation
	if err := c.get(ctx, "financial_mutations", params, &mutations); err != nil {
		return nil, fmt.Errorf("failed to list financial mutations: %w", err)
	}
	return mutations, nil
}

// BookReceipt marks a receipt as booked.
func (c *Client) BookReceipt(ctx context.Context, receiptID string) error {
	payload := map[string]any{
		"receipt": map[string]any{"state": "booked"},
	}
	if err := c.patch(ctx, fmt.Sprintf("documents/receipts/%s", receiptID), payload); err != nil {
		return fmt.Errorf("failed to book receipt %s: %w", receiptID, err)
	}
	return nil
}

// BookPurchaseInvoice marks a purchase invoice as booked.
func (c *Client) BookPurchaseInvoice(ctx context.Context, invoiceID string) error {
	payload := map[string]any{
		"purchase_invoice": map[string]any{"state": "booked"},
	}
	if err := c.patch(ctx, fmt.Sprintf("documents/purchase_invoices/%s", invoiceID), payload); err != nil {
		return fmt.Errorf("failed to book purchase invoice %s: %w", invoiceID, err)
	}
	return nil
}

// LinkPaymentToReceipt links a financial mutation to a receipt as payment.
func (c *Client) LinkPaymentToReceipt(ctx context.Context, receiptID, mutationID string) error {
	payload := map[string]any{
		"receipt": map[string]any{
			"financial_mutations_attributes": []map[string]any{
				{"financial_mutation_id": mutationID},
			},
		},
	}
	if err := c.patch(ctx, fmt.Sprintf("documents/receipts/%s", receiptID), payload); err != nil {
		return fmt.Errorf("failed to link payment to receipt %s: %w", receiptID, err)
	}
	return nil
}

// LinkPaymentToPurchaseInvoice links a financial mutation to a purchase
// invoice as payment. Purchase invoices use a different attribute name
// than receipts for the same operation.
func (c *Client) LinkPaymentToPurchaseInvoice(ctx context.Context, invoiceID, mutationID string) error {
	payload := map[string]any{
		"purchase_invoice": map[string]any{
			"payments_attributes": []map[string]any{
				{"financial_mutation_id": mutationID},
			},
		},
	}
	if err := c.patch(ctx, fmt.Sprintf("documents/purchase_invoices/%s", invoiceID), payload); err != nil {
		return fmt.Errorf("failed to link payment to purchase invoice %s: %w", invoiceID, err)
	}
	return nil
}

// CreateWebhook registers a webhook URL for the given events.
func (c *Client) CreateWebhook(ctx context.Context, webhookURL string, events []string) (*Webhook, error) {
	payload := map[string]any{
		"webhook": map[string]any{
			"url":    webhookURL,
			"events": events,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/webhooks", c.baseURL, c.adminID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var webhook Webhook
	if err := json.NewDecoder(resp.Body).Decode(&webhook); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &webhook, nil
}

// get performs a GET request against an administration-scoped path and
// decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.adminID, path)
	if len(params) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// patch performs a PATCH request against an administration-scoped path.
// Moneybird echoes the updated entity back; the body is discarded here
// since callers refetch when they need fresh state.
func (c *Client) patch(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.adminID, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	return nil
}

// parseError parses an error response from the Moneybird API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("moneybird API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("moneybird API error (status %d): %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("moneybird API error (status %d): %s", resp.StatusCode, errResp.Error)
}
