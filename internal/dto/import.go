package dto

import (
	"bankfeed/internal/models"

	"github.com/shopspring/decimal"
)

// ImportRequest carries the multipart form fields of an import. The file
// itself travels as the "file" part and is read separately.
type ImportRequest struct {
	FileKind      string `form:"file_kind" validate:"omitempty,oneof=csv ofx qfx auto"`
	ExportDialect string `form:"export_dialect" validate:"required,oneof=audit quickbooks xero"`
	UseModel      bool   `form:"use_model"`
	// Rules is an optional JSON array of RuleInput.
	Rules string `form:"rules"`
}

// RuleInput is one caller-supplied categorization rule.
type RuleInput struct {
	ID        string   `json:"id" validate:"required"`
	Name      string   `json:"name"`
	Category  string   `json:"category" validate:"required,category"`
	Priority  int      `json:"priority"`
	Pattern   string   `json:"pattern"`
	Contains  []string `json:"contains"`
	MinAmount string   `json:"min_amount"`
	MaxAmount string   `json:"max_amount"`
	Sign      string   `json:"sign" validate:"omitempty,oneof=any debit credit"`
}

// ToModel converts the input into an uncompiled rule. Amount bounds that
// fail to parse are dropped rather than rejected; the pattern is validated
// later at compile time.
func (r RuleInput) ToModel() models.Rule {
	rule := models.Rule{
		ID:       r.ID,
		Name:     r.Name,
		Category: r.Category,
		Priority: r.Priority,
		Pattern:  r.Pattern,
		Contains: r.Contains,
		Sign:     r.Sign,
	}
	if r.Sign == "" {
		rule.Sign = models.SignAny
	}
	if d, err := decimal.NewFromString(r.MinAmount); err == nil && r.MinAmount != "" {
		rule.MinAmount = &d
	}
	if d, err := decimal.NewFromString(r.MaxAmount); err == nil && r.MaxAmount != "" {
		rule.MaxAmount = &d
	}
	return rule
}

// ColumnMappingResponse reports which input column fed each field.
// -1 means the column was absent.
type ColumnMappingResponse struct {
	Date        int `json:"date"`
	Description int `json:"description"`
	Amount      int `json:"amount"`
	Debit       int `json:"debit"`
	Credit      int `json:"credit"`
	Payee       int `json:"payee"`
}

// ImportResponse is the outcome of one import run.
type ImportResponse struct {
	Export           string                 `json:"export"`
	RowCount         int                    `json:"row_count"`
	SkippedCount     int                    `json:"skipped_count"`
	DuplicateCount   int                    `json:"duplicate_count"`
	NeedsReviewCount int                    `json:"needs_review_count"`
	StageCounts      map[string]int         `json:"stage_counts"`
	ColumnMapping    *ColumnMappingResponse `json:"column_mapping,omitempty"`
}
