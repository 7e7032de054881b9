package ai

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AccountHint maps a keyword found in document text to a preferred debit
// account name.
type AccountHint struct {
	Keyword string `yaml:"keyword"`
	Debit   string `yaml:"debit"`
}

// AccountHints is an optional chart-of-accounts hints file. The hints are
// folded into the journal entry prompt and used to pick a better fallback
// debit account when the model output cannot be parsed.
type AccountHints struct {
	Accounts       []AccountHint `yaml:"accounts"`
	FallbackDebit  string        `yaml:"fallback_debit"`
	FallbackCredit string        `yaml:"fallback_credit"`
}

// LoadAccountHints reads account hints from a YAML configuration file.
func LoadAccountHints(path string) (*AccountHints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hints file: %w", err)
	}

	var hints AccountHints
	if err := yaml.Unmarshal(data, &hints); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &hints, nil
}

// DebitFor returns the debit account for the first hint whose keyword
// occurs in text (case-insensitive), or fallback when nothing matches.
// Safe to call on a nil receiver.
func (h *AccountHints) DebitFor(text, fallback string) string {
	if h == nil {
		return fallback
	}

	lower := strings.ToLower(text)
	for _, hint := range h.Accounts {
		if hint.Keyword == "" || hint.Debit == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(hint.Keyword)) {
			return hint.Debit
		}
	}

	if h.FallbackDebit != "" {
		return h.FallbackDebit
	}
	return fallback
}

// PromptSection renders the hints as a bullet list for the journal prompt.
// Returns empty for a nil receiver or an empty hints file.
func (h *AccountHints) PromptSection() string {
	if h == nil || len(h.Accounts) == 0 {
		return ""
	}

	var b strings.Builder
	for _, hint := range h.Accounts {
		if hint.Keyword == "" || hint.Debit == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s (for %s)\n", hint.Debit, hint.Keyword)
	}

	return strings.TrimRight(b.String(), "\n")
}
