package services

import (
	"errors"
	"time"

	"bankfeed/internal/models"

	"github.com/shopspring/decimal"
)

// ruleConfidence is the fixed confidence of a rule-stage match. Rule matches
// are deterministic and never flagged for review.
const ruleConfidence = 0.95

var ErrInvalidRulePattern = errors.New("rule pattern failed to compile")

type ruleEngine struct {
	builtin []models.Rule
}

// NewRuleEngine creates the deterministic rule stage with the built-in rule
// set compiled and sorted.
func NewRuleEngine() RuleEngineInterface {
	rules := builtinRules()
	for i := range rules {
		// Built-in patterns are static; a compile failure here is a
		// programming error, surfaced loudly in tests.
		if err := rules[i].Compile(); err != nil {
			panic("builtin rule " + rules[i].ID + ": " + err.Error())
		}
	}
	return &ruleEngine{builtin: models.MergeRules(nil, rules)}
}

func (e *ruleEngine) BuiltinRules() []models.Rule {
	return e.builtin
}

// CompileSessionRules validates caller-supplied rules before a run. A single
// bad pattern rejects the whole set so the caller can fix it, rather than
// silently skipping a rule mid-pipeline.
func CompileSessionRules(rules []models.Rule) error {
	for i := range rules {
		if err := rules[i].Compile(); err != nil {
			return ErrInvalidRulePattern
		}
	}
	return nil
}

func (e *ruleEngine) Evaluate(txn *models.Transaction, rules []models.Rule) *models.CategorizationResult {
	start := time.Now()

	for i := range rules {
		rule := &rules[i]
		if !rule.Matches(txn) {
			continue
		}
		return &models.CategorizationResult{
			Category:   rule.Category,
			Confidence: ruleConfidence,
			Source:     models.SourceRule,
			Explanation: &models.Explanation{
				Stage:    models.SourceRule,
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Elapsed:  time.Since(start),
			},
		}
	}

	return nil
}

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// builtinRules is the default policy set. Session rules supplied by a caller
// are merged ahead of these at equal priority.
func builtinRules() []models.Rule {
	return []models.Rule{
		{
			ID:       "coffee-shops",
			Name:     "Coffee shop purchases",
			Category: models.CategoryCoffeeShops,
			Priority: 10,
			Pattern:  `starbucks|dunkin|peet'?s|caribou coffee|costa coffee`,
			Sign:     models.SignDebit,
		},
		{
			ID:       "payroll-income",
			Name:     "Salary and payroll deposits",
			Category: models.CategoryIncome,
			Priority: 10,
			Pattern:  `direct deposit|payroll|salary`,
			Sign:     models.SignCredit,
		},
		{
			ID:       "rideshare",
			Name:     "Rideshare trips",
			Category: models.CategoryTransportation,
			Priority: 20,
			Pattern:  `\buber\b|\blyft\b`,
			Sign:     models.SignDebit,
		},
		{
			ID:       "streaming",
			Name:     "Streaming subscriptions",
			Category: models.CategoryEntertainment,
			Priority: 20,
			Pattern:  `netflix|spotify|hulu|disney\+|hbo max`,
			Sign:     models.SignDebit,
		},
		{
			ID:       "grocery-chains",
			Name:     "Grocery store chains",
			Category: models.CategoryGroceries,
			Priority: 20,
			Pattern:  `kroger|safeway|aldi|trader joe|whole foods|wal-?mart`,
			Sign:     models.SignDebit,
		},
		{
			ID:       "atm-withdrawal",
			Name:     "ATM and cash withdrawals",
			Category: models.CategoryFees,
			Priority: 30,
			Pattern:  `atm withdrawal|cash withdrawal`,
			Sign:     models.SignDebit,
		},
		{
			ID:       "bank-fees",
			Name:     "Bank service fees",
			Category: models.CategoryFees,
			Priority: 30,
			Contains: []string{"fee"},
			// Fees are small; an upper bound keeps large debits that merely
			// mention "fee" out of this bucket.
			MaxAmount: amountPtr("100"),
			Sign:      models.SignDebit,
		},
		{
			ID:       "internal-transfers",
			Name:     "Transfers between own accounts",
			Category: models.CategoryTransfers,
			Priority: 40,
			Pattern:  `online transfer|internal transfer|zelle|venmo`,
		},
		{
			ID:       "pharmacy",
			Name:     "Pharmacy purchases",
			Category: models.CategoryHealthcare,
			Priority: 40,
			Pattern:  `\bcvs\b|walgreens|rite aid|pharmacy`,
			Sign:     models.SignDebit,
		},
		{
			ID:       "air-travel",
			Name:     "Airline purchases",
			Category: models.CategoryTravel,
			Priority: 40,
			Pattern:  `delta air|united airlines|american airlines|southwest air`,
			Sign:     models.SignDebit,
		},
	}
}
