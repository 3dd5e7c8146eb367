// Package export renders categorized transactions into downstream accounting
// CSV dialects. Transactions are consumed read-only; every text cell passes
// through the formula-injection sanitizer.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bankfeed/internal/models"
)

// Dialect selects a target CSV layout.
type Dialect string

const (
	// DialectAudit is the generic audit-oriented layout carrying the full
	// categorization evidence.
	DialectAudit Dialect = "audit"
	// DialectQuickBooks matches the three-column bank import layout.
	DialectQuickBooks Dialect = "quickbooks"
	// DialectXero matches the Xero bank statement import columns.
	DialectXero Dialect = "xero"
)

// ErrUnknownDialect is a caller error, rejected before any output is
// produced.
var ErrUnknownDialect = errors.New("unknown export dialect")

// IsValidDialect checks if a dialect is supported
func IsValidDialect(d Dialect) bool {
	switch d {
	case DialectAudit, DialectQuickBooks, DialectXero:
		return true
	default:
		return false
	}
}

// Format renders the transactions in the requested dialect.
func Format(transactions []*models.Transaction, dialect Dialect) (string, error) {
	switch dialect {
	case DialectAudit:
		return formatAudit(transactions), nil
	case DialectQuickBooks:
		return formatQuickBooks(transactions), nil
	case DialectXero:
		return formatXero(transactions), nil
	default:
		return "", ErrUnknownDialect
	}
}

const delimiter = ','

func writeRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteRune(delimiter)
		}
		b.WriteString(cell)
	}
	b.WriteString("\r\n")
}

func formatAudit(transactions []*models.Transaction) string {
	var b strings.Builder
	writeRow(&b, []string{
		"Date", "Description", "Payee", "Category", "Confidence",
		"Source", "NeedsReview", "Duplicate", "Amount", "Currency",
	})

	for _, txn := range transactions {
		category, confidence, source, review := categorization(txn)
		writeRow(&b, []string{
			txn.Date.Format("2006-01-02"),
			textCell(txn.Description, delimiter),
			textCell(txn.Payee, delimiter),
			textCell(category, delimiter),
			confidence,
			source,
			strconv.FormatBool(review),
			strconv.FormatBool(txn.Duplicate),
			txn.Amount.StringFixed(2),
			textCell(txn.Currency, delimiter),
		})
	}
	return b.String()
}

func formatQuickBooks(transactions []*models.Transaction) string {
	var b strings.Builder
	writeRow(&b, []string{"Date", "Description", "Amount"})

	for _, txn := range transactions {
		writeRow(&b, []string{
			txn.Date.Format("01/02/2006"),
			textCell(txn.Description, delimiter),
			txn.Amount.StringFixed(2),
		})
	}
	return b.String()
}

func formatXero(transactions []*models.Transaction) string {
	var b strings.Builder
	writeRow(&b, []string{"Date", "Amount", "Payee", "Description", "Reference"})

	for _, txn := range transactions {
		writeRow(&b, []string{
			txn.Date.Format("02/01/2006"),
			txn.Amount.StringFixed(2),
			textCell(txn.Payee, delimiter),
			textCell(txn.Description, delimiter),
			textCell(fmt.Sprintf("row-%d", txn.RowIndex), delimiter),
		})
	}
	return b.String()
}

func categorization(txn *models.Transaction) (category, confidence, source string, review bool) {
	if txn.Categorization == nil {
		return "", "", "", false
	}
	c := txn.Categorization
	return c.Category, strconv.FormatFloat(c.Confidence, 'f', 2, 64), c.Source, c.NeedsReview
}
