package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/document"
)

// webhookEvent is the minimal shape of a Moneybird webhook delivery.
// EntityID is kept raw because Moneybird ids exceed float64 precision and
// have been observed both quoted and unquoted.
type webhookEvent struct {
	EntityType string          `json:"entity_type"`
	Action     string          `json:"action"`
	EntityID   json.RawMessage `json:"entity_id"`
}

// handleWebhook classifies the inbound event and dispatches background
// processing. The response is always 200 with a small status body; a
// downstream failure never surfaces to Moneybird.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var event webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.logger.Warn("undecodable webhook body", "error", err)
		writeStatus(w, http.StatusOK, "ignored")
		return
	}

	kind, ok := classifyEvent(event.EntityType, event.Action)
	if !ok {
		s.logger.Info("webhook ignored", "entity_type", event.EntityType, "action", event.Action)
		writeStatus(w, http.StatusOK, "ignored")
		return
	}

	documentID := rawID(event.EntityID)
	s.logger.Info("webhook received",
		"entity_type", event.EntityType, "action", event.Action, "entity_id", documentID)

	submitted := s.pool.Submit("process_document", func(ctx context.Context) error {
		return s.processor.ProcessDocument(ctx, kind, documentID)
	})
	if !submitted {
		s.logger.Warn("worker queue full, dropping event",
			"entity_type", event.EntityType, "entity_id", documentID)
	}

	writeStatus(w, http.StatusOK, "ok")
}

// classifyEvent maps the (entity type, action) tuple to a document kind.
// Anything outside the two entity types and three actions is ignored.
func classifyEvent(entityType, action string) (document.Kind, bool) {
	switch action {
	case "created", "updated", "document_saved":
	default:
		return "", false
	}

	switch entityType {
	case "Receipt":
		return document.KindReceipt, true
	case "PurchaseInvoice":
		return document.KindPurchaseInvoice, true
	default:
		return "", false
	}
}

// rawID renders a raw JSON scalar as an id string, stripping quotes from
// string-encoded ids.
func rawID(raw json.RawMessage) string {
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}
