// Package matching filters unreconciled bank transactions by amount
// tolerance against a target amount in integer minor units (cents).
package matching

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/moneybird"
)

// DefaultTolerance is the maximum allowed difference, in minor units,
// between a transaction amount and the target amount.
const DefaultTolerance int64 = 100

// Candidate is a bank transaction considered as a possible settlement for
// a document. Verdict is empty until the suggestion step populates it.
type Candidate struct {
	ID               string
	Date             string
	Amount           string
	Description      string
	CounterpartyName string
	Verdict          string
}

// ParseMinorUnits parses a decimal amount string into integer minor units.
// Both "." and "," are accepted as the decimal separator ("12,34" and
// "12.34" both yield 1234). Digits beyond the second decimal place are
// truncated. The parse is exact string arithmetic; amounts never pass
// through floating point.
func ParseMinorUnits(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if intPart == "" {
		intPart = "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	// Truncate any sub-minor-unit remainder.
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	total := units*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

// FindCandidates returns the transactions whose amount lies within
// tolerance of target, in source order, converted to Candidates. A
// transaction whose amount fails to parse is silently excluded.
//
// counterpartyHint is accepted for future narrowing of the candidate set
// but does not currently affect the result.
func FindCandidates(target int64, counterpartyHint string, mutations []moneybird.FinancialMutation, tolerance int64) []Candidate {
	_ = counterpartyHint

	candidates := make([]Candidate, 0, len(mutations))
	for _, m := range mutations {
		amount, err := ParseMinorUnits(m.Amount)
		if err != nil {
			continue
		}

		if abs(amount-target) > tolerance {
			continue
		}

		var contactName string
		if m.Contact != nil {
			contactName = m.Contact.CompanyName
		}

		candidates = append(candidates, Candidate{
			ID:               m.ID,
			Date:             m.Date,
			Amount:           m.Amount,
			Description:      firstNonEmpty(m.Message, m.Description),
			CounterpartyName: contactName,
		})
	}

	return candidates
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
