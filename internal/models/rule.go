package models

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Sign constraints for rule matching.
const (
	SignAny    = "any"
	SignDebit  = "debit"
	SignCredit = "credit"
)

// Rule is a deterministic categorization policy. All configured matchers must
// hold for the rule to fire (a conjunction); unset matchers are ignored.
// Rules are immutable once loaded for a pipeline run.
type Rule struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	// Priority orders evaluation; lower values are evaluated first.
	Priority int `json:"priority"`

	Pattern   string           `json:"pattern,omitempty"`
	Contains  []string         `json:"contains,omitempty"`
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	Sign      string           `json:"sign,omitempty"`

	compiled *regexp.Regexp
}

// Compile validates and caches the rule's description pattern. Rules with no
// pattern compile trivially.
func (r *Rule) Compile() error {
	if r.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + r.Pattern)
	if err != nil {
		return err
	}
	r.compiled = re
	return nil
}

// Matches reports whether the full matcher conjunction holds for the
// transaction. Amount bounds compare against the absolute amount.
func (r *Rule) Matches(t *Transaction) bool {
	if r.compiled != nil && !r.compiled.MatchString(t.Description) {
		return false
	}

	if len(r.Contains) > 0 {
		desc := strings.ToLower(t.Description)
		for _, needle := range r.Contains {
			if !strings.Contains(desc, strings.ToLower(needle)) {
				return false
			}
		}
	}

	abs := t.Amount.Abs()
	if r.MinAmount != nil && abs.LessThan(*r.MinAmount) {
		return false
	}
	if r.MaxAmount != nil && abs.GreaterThan(*r.MaxAmount) {
		return false
	}

	switch r.Sign {
	case SignDebit:
		if !t.IsDebit() {
			return false
		}
	case SignCredit:
		if !t.IsCredit() {
			return false
		}
	}

	return true
}

// MergeRules places session rules ahead of built-in rules at equal priority
// and returns the combined set sorted ascending by priority. The input slices
// are not modified.
func MergeRules(session, builtin []Rule) []Rule {
	merged := make([]Rule, 0, len(session)+len(builtin))
	merged = append(merged, session...)
	merged = append(merged, builtin...)

	// Stable insertion sort keeps session rules first within a priority tier.
	for i := 1; i < len(merged); i++ {
		for j := i; j > 0 && merged[j].Priority < merged[j-1].Priority; j-- {
			merged[j], merged[j-1] = merged[j-1], merged[j]
		}
	}
	return merged
}
