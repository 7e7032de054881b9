package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/slack-go/slack"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/document"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/notifier"
)

// handleSlackActions authenticates and dispatches interactive callbacks.
// Signature or freshness failures are the only path that produces a
// non-200 response. Malformed callback values are silently ignored.
func (s *Server) handleSlackActions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusForbidden, "invalid signature")
		return
	}

	// NewSecretsVerifier rejects timestamps older than five minutes;
	// Ensure compares the v0 HMAC in constant time.
	verifier, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
	if err != nil {
		writeJSONError(w, http.StatusForbidden, "invalid signature")
		return
	}
	if _, err := verifier.Write(body); err != nil {
		writeJSONError(w, http.StatusForbidden, "invalid signature")
		return
	}
	if err := verifier.Ensure(); err != nil {
		writeJSONError(w, http.StatusForbidden, "invalid signature")
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		s.logger.Warn("unparsable interactivity form", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(form.Get("payload")), &callback); err != nil {
		s.logger.Warn("unparsable interactivity payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if len(callback.ActionCallback.BlockActions) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}

	action := callback.ActionCallback.BlockActions[0]
	channelID, timestamp := messageRef(&callback)

	s.dispatchAction(action.ActionID, action.Value, channelID, timestamp)

	writeJSON(w, http.StatusOK, struct{}{})
}

// dispatchAction parses the callback value and hands the decision to the
// background pool. A value with the wrong number of delimited parts, or
// an unknown kind token, produces no downstream call.
func (s *Server) dispatchAction(actionID, value, channelID, timestamp string) {
	switch actionID {
	case notifier.ActionBookDocument:
		kind, documentID, ok := splitDocumentValue(value)
		if !ok {
			s.logger.Warn("malformed callback value", "action", actionID, "value", value)
			return
		}
		s.submit("book_document", func(ctx context.Context) error {
			return s.processor.Book(ctx, kind, documentID, channelID, timestamp)
		})

	case notifier.ActionSkipDocument:
		kind, documentID, ok := splitDocumentValue(value)
		if !ok {
			s.logger.Warn("malformed callback value", "action", actionID, "value", value)
			return
		}
		s.submit("skip_document", func(ctx context.Context) error {
			return s.processor.Skip(ctx, kind, documentID, channelID, timestamp)
		})

	case notifier.ActionLinkPayment:
		parts := strings.SplitN(value, ":", 3)
		if len(parts) != 3 {
			s.logger.Warn("malformed callback value", "action", actionID, "value", value)
			return
		}
		kind, ok := document.ParseKind(parts[0])
		if !ok {
			s.logger.Warn("unknown document kind in callback", "action", actionID, "value", value)
			return
		}
		documentID, mutationID := parts[1], parts[2]
		s.submit("link_payment", func(ctx context.Context) error {
			return s.processor.LinkPayment(ctx, kind, documentID, mutationID, channelID, timestamp)
		})

	default:
		s.logger.Info("unknown action ignored", "action", actionID)
	}
}

func (s *Server) submit(name string, run func(ctx context.Context) error) {
	if !s.pool.Submit(name, run) {
		s.logger.Warn("worker queue full, dropping action", "job", name)
	}
}

// splitDocumentValue parses a "{kind}:{id}" callback value.
func splitDocumentValue(value string) (document.Kind, string, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	kind, ok := document.ParseKind(parts[0])
	if !ok {
		return "", "", false
	}
	return kind, parts[1], true
}

// messageRef resolves the channel and message timestamp of the message
// the action originated from, preferring the container fields.
func messageRef(callback *slack.InteractionCallback) (string, string) {
	channelID := callback.Container.ChannelID
	if channelID == "" {
		channelID = callback.Channel.ID
	}

	timestamp := callback.Container.MessageTs
	if timestamp == "" {
		timestamp = callback.Message.Timestamp
	}

	return channelID, timestamp
}
