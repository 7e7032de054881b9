package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/internal/worker"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/document"
)

// fakeProcessor records pipeline and action calls.
type fakeProcessor struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeProcessor) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeProcessor) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProcessor) ProcessDocument(ctx context.Context, kind document.Kind, documentID string) error {
	f.record("process:" + string(kind) + ":" + documentID)
	return nil
}

func (f *fakeProcessor) Book(ctx context.Context, kind document.Kind, documentID, channelID, timestamp string) error {
	f.record("book:" + string(kind) + ":" + documentID + ":" + channelID + ":" + timestamp)
	return nil
}

func (f *fakeProcessor) Skip(ctx context.Context, kind document.Kind, documentID, channelID, timestamp string) error {
	f.record("skip:" + string(kind) + ":" + documentID)
	return nil
}

func (f *fakeProcessor) LinkPayment(ctx context.Context, kind document.Kind, documentID, mutationID, channelID, timestamp string) error {
	f.record("link:" + string(kind) + ":" + documentID + ":" + mutationID)
	return nil
}

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func newTestServer(t *testing.T) (*Server, *fakeProcessor, *worker.Pool) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := &fakeProcessor{}
	pool := worker.NewPool(1, 8, logger)
	return New(processor, pool, testSigningSecret, logger), processor, pool
}

func TestClassifyEvent(t *testing.T) {
	tests := []struct {
		entityType string
		action     string
		kind       document.Kind
		ok         bool
	}{
		{"Receipt", "created", document.KindReceipt, true},
		{"Receipt", "updated", document.KindReceipt, true},
		{"Receipt", "document_saved", document.KindReceipt, true},
		{"PurchaseInvoice", "created", document.KindPurchaseInvoice, true},
		{"PurchaseInvoice", "updated", document.KindPurchaseInvoice, true},
		{"PurchaseInvoice", "document_saved", document.KindPurchaseInvoice, true},
		{"Receipt", "destroyed", "", false},
		{"Contact", "created", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.entityType+"/"+tt.action, func(t *testing.T) {
			kind, ok := classifyEvent(tt.entityType, tt.action)
			if kind != tt.kind || ok != tt.ok {
				t.Errorf("classifyEvent(%q, %q) = (%q, %v), expected (%q, %v)",
					tt.entityType, tt.action, kind, ok, tt.kind, tt.ok)
			}
		})
	}
}

func TestRawID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"446465287061243953"`, "446465287061243953"},
		{`446465287061243953`, "446465287061243953"},
		{`null`, "null"},
	}

	for _, tt := range tests {
		if got := rawID(json.RawMessage(tt.input)); got != tt.expected {
			t.Errorf("rawID(%s) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestHandleWebhookDispatches(t *testing.T) {
	srv, processor, pool := newTestServer(t)

	body := `{"entity_type":"Receipt","action":"created","entity_id":"777"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q, expected ok status", rec.Body.String())
	}

	pool.Stop()
	calls := processor.recorded()
	if len(calls) != 1 || calls[0] != "process:receipt:777" {
		t.Errorf("calls = %v, expected one receipt pipeline run", calls)
	}
}

func TestHandleWebhookNumericEntityID(t *testing.T) {
	srv, processor, pool := newTestServer(t)

	body := `{"entity_type":"PurchaseInvoice","action":"updated","entity_id":446465287061243953}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	pool.Stop()
	calls := processor.recorded()
	if len(calls) != 1 || calls[0] != "process:purchase_invoice:446465287061243953" {
		t.Errorf("calls = %v, expected full-precision id", calls)
	}
}

func TestHandleWebhookIgnored(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown entity", `{"entity_type":"Contact","action":"created","entity_id":"1"}`},
		{"unknown action", `{"entity_type":"Receipt","action":"destroyed","entity_id":"1"}`},
		{"garbage body", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, processor, pool := newTestServer(t)

			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, ignored events must still be acknowledged with 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"ignored"`) {
				t.Errorf("body = %q, expected ignored status", rec.Body.String())
			}

			pool.Stop()
			if calls := processor.recorded(); len(calls) != 0 {
				t.Errorf("calls = %v, expected none", calls)
			}
		})
	}
}

func TestHandleWebhookVerify(t *testing.T) {
	srv, _, pool := newTestServer(t)
	defer pool.Stop()

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, expected 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q, expected ok status", rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _, pool := newTestServer(t)
	defer pool.Stop()

	for _, path := range []string{"/", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, expected 200", path, rec.Code)
		}
	}
}
