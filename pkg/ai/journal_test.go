package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/document"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/matching"
)

// fakeAnthropic returns a client pointed at a server that always responds
// with the given text content.
func fakeAnthropic(t *testing.T, text string, inspect func(r *http.Request, body []byte)) *Client {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if inspect != nil {
			inspect(r, body)
		}
		_ = json.NewEncoder(w).Encode(messagesResponse{
			Content: []contentBlock{{Type: "text", Text: text}},
		})
	}))
	t.Cleanup(ts.Close)

	return NewClient(ClientConfig{APIKey: "test-key", BaseURL: ts.URL})
}

func testDocument() document.Document {
	return document.Document{
		ID:               "777",
		Kind:             document.KindReceipt,
		CounterpartyName: "ACME B.V.",
		Date:             "2026-07-01",
		Amount:           "121.00",
		Currency:         "EUR",
		Memo:             "office chairs",
		LineItems: []document.LineItem{
			{Description: "Chair", Amount: "121.00"},
		},
	}
}

func TestSuggestJournalEntry(t *testing.T) {
	response := "```json\n{\"debit\": \"Office Supplies\", \"credit\": \"Accounts Payable\", \"explanation\": \"Furniture purchase.\"}\n```"

	var requested messagesRequest
	client := fakeAnthropic(t, response, func(r *http.Request, body []byte) {
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("X-Api-Key = %q, expected test-key", got)
		}
		if got := r.Header.Get("Anthropic-Version"); got == "" {
			t.Error("missing Anthropic-Version header")
		}
		if err := json.Unmarshal(body, &requested); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
	})

	entry, err := client.SuggestJournalEntry(context.Background(), testDocument(), nil)
	if err != nil {
		t.Fatalf("SuggestJournalEntry() error = %v", err)
	}

	if entry.Debit != "Office Supplies" || entry.Credit != "Accounts Payable" {
		t.Errorf("entry = %+v, expected parsed accounts", entry)
	}
	if len(requested.Messages) != 1 || requested.Messages[0].Role != "user" {
		t.Errorf("request messages = %+v, expected one user message", requested.Messages)
	}
	if !strings.Contains(requested.Messages[0].Content, "ACME B.V.") {
		t.Error("prompt does not mention the vendor")
	}
}

func TestSuggestJournalEntryFallback(t *testing.T) {
	raw := "I am not sure which account fits here."
	client := fakeAnthropic(t, raw, nil)

	entry, err := client.SuggestJournalEntry(context.Background(), testDocument(), nil)
	if err != nil {
		t.Fatalf("SuggestJournalEntry() error = %v", err)
	}

	if entry.Debit != "Uncategorized Expense" || entry.Credit != "Accounts Payable" {
		t.Errorf("entry = %+v, expected fixed fallback pair", entry)
	}
	if entry.Explanation != raw {
		t.Errorf("explanation = %q, expected raw model text", entry.Explanation)
	}
}

func TestSuggestJournalEntryFallbackUsesHints(t *testing.T) {
	client := fakeAnthropic(t, "no structured answer", nil)
	hints := &AccountHints{
		Accounts: []AccountHint{{Keyword: "chair", Debit: "Office Furniture"}},
	}

	entry, err := client.SuggestJournalEntry(context.Background(), testDocument(), hints)
	if err != nil {
		t.Fatalf("SuggestJournalEntry() error = %v", err)
	}

	if entry.Debit != "Office Furniture" {
		t.Errorf("debit = %q, expected hint-derived fallback", entry.Debit)
	}
}

func TestSuggestPaymentMatch(t *testing.T) {
	client := fakeAnthropic(t, "YES, same vendor and amount on the next day.", nil)

	candidate := matching.Candidate{ID: "31", Date: "2026-07-02", Amount: "121.00", Description: "SEPA ACME"}
	verdict, err := client.SuggestPaymentMatch(context.Background(), candidate, testDocument())
	if err != nil {
		t.Fatalf("SuggestPaymentMatch() error = %v", err)
	}

	if !strings.HasPrefix(verdict, "YES") {
		t.Errorf("verdict = %q, expected YES prefix", verdict)
	}
}

func TestCompleteError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	t.Cleanup(ts.Close)

	client := NewClient(ClientConfig{APIKey: "bad", BaseURL: ts.URL})
	_, err := client.SuggestJournalEntry(context.Background(), testDocument(), nil)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "authentication_error") {
		t.Errorf("error = %v, expected API error type", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no fence", `{"debit": "Cash"}`, `{"debit": "Cash"}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with surrounding space", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.input); got != tt.expected {
				t.Errorf("stripCodeFence(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
