package models

// ColumnAbsent marks a target with no corresponding column in the file.
const ColumnAbsent = -1

// ColumnMapping maps each canonical field to a zero-based column index in a
// delimited file, or ColumnAbsent. Produced once per delimited parse.
type ColumnMapping struct {
	Date        int `json:"date"`
	Description int `json:"description"`
	Amount      int `json:"amount"`
	Debit       int `json:"debit"`
	Credit      int `json:"credit"`
	Payee       int `json:"payee"`
}

// NewColumnMapping returns a mapping with every target absent.
func NewColumnMapping() ColumnMapping {
	return ColumnMapping{
		Date:        ColumnAbsent,
		Description: ColumnAbsent,
		Amount:      ColumnAbsent,
		Debit:       ColumnAbsent,
		Credit:      ColumnAbsent,
		Payee:       ColumnAbsent,
	}
}

// HasAmountSignal reports whether the mapping can yield an amount for every
// row: either a direct amount column, or both debit and credit columns.
func (m ColumnMapping) HasAmountSignal() bool {
	if m.Amount != ColumnAbsent {
		return true
	}
	return m.Debit != ColumnAbsent && m.Credit != ColumnAbsent
}

// Usable reports whether parsing can proceed with this mapping.
func (m ColumnMapping) Usable() bool {
	return m.Date != ColumnAbsent && m.HasAmountSignal()
}

// ParseResult is the outcome of one successful parse run.
type ParseResult struct {
	Transactions []*Transaction `json:"transactions"`
	// ColumnMapping is set for delimited files only.
	ColumnMapping *ColumnMapping `json:"column_mapping,omitempty"`
	// RowCount is the number of data rows (or blocks) seen, including
	// malformed ones that were dropped.
	RowCount int `json:"row_count"`
	// SkippedCount is the number of malformed rows dropped during parsing.
	SkippedCount int `json:"skipped_count"`
	// DuplicateCount is filled in by the dedup tagger after parsing.
	DuplicateCount int `json:"duplicate_count"`
}
