package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Categorization source tags. Exactly one is assigned when the pipeline
// resolves a transaction.
const (
	SourceRule       = "rule"
	SourceSimilarity = "similarity"
	SourceModel      = "model"
	SourceManual     = "manual"
)

// ReviewThreshold is the confidence below which a similarity- or
// model-sourced categorization is flagged for human review.
const ReviewThreshold = 0.7

var (
	ErrInvalidConfidence = errors.New("confidence must be between 0.0 and 1.0")
	ErrInvalidSource     = errors.New("invalid categorization source")
)

// Transaction is the canonical unit flowing through the ingestion pipeline.
//
// The parse-time fields are written once by a parser and never change.
// Duplicate is owned by the dedup tagger and Categorization by the
// categorization pipeline; export formatters read everything and write
// nothing.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Payee       string          `json:"payee,omitempty"`

	// Original strings retained for audit.
	RawDescription string `json:"raw_description,omitempty"`
	RawAmount      string `json:"raw_amount,omitempty"`
	RowIndex       int    `json:"row_index"`

	Duplicate      bool            `json:"duplicate,omitempty"`
	Categorization *Categorization `json:"categorization,omitempty"`
}

// Categorization is the pipeline-owned enrichment of a Transaction.
type Categorization struct {
	Category    string       `json:"category"`
	Confidence  float64      `json:"confidence"`
	NeedsReview bool         `json:"needs_review"`
	Source      string       `json:"source"`
	Explanation *Explanation `json:"explanation,omitempty"`
}

// Explanation carries stage-specific evidence for a categorization decision.
// Stage mirrors the Categorization source; only the fields belonging to that
// stage are populated.
type Explanation struct {
	Stage string `json:"stage"`

	// Rule stage
	RuleID   string `json:"rule_id,omitempty"`
	RuleName string `json:"rule_name,omitempty"`

	// Similarity stage
	KeywordGroup string  `json:"keyword_group,omitempty"`
	Score        float64 `json:"score,omitempty"`

	// Model stage
	ModelID string `json:"model_id,omitempty"`
	Hint    string `json:"hint,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// IsValidSource checks if a categorization source tag is valid
func IsValidSource(source string) bool {
	switch source {
	case SourceRule, SourceSimilarity, SourceModel, SourceManual:
		return true
	default:
		return false
	}
}

// Validate validates the categorization invariants
func (c *Categorization) Validate() error {
	if c.Confidence < 0.0 || c.Confidence > 1.0 {
		return ErrInvalidConfidence
	}
	if !IsValidSource(c.Source) {
		return ErrInvalidSource
	}
	return nil
}

// IsCategorized returns true once the pipeline has resolved the transaction.
func (t *Transaction) IsCategorized() bool {
	return t.Categorization != nil
}

// ClearCategorization strips pipeline enrichment so the transaction can be
// re-categorized. Parse-time fields and the duplicate flag are untouched.
func (t *Transaction) ClearCategorization() {
	t.Categorization = nil
}

// IsDebit returns true for money out.
func (t *Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// IsCredit returns true for money in.
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}
