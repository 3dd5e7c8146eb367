package parsers

import (
	"encoding/csv"
	"strings"

	"bankfeed/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Header synonyms, matched case-insensitively against the first row.
var headerSynonyms = map[string][]string{
	"date":        {"date", "posted", "post date", "posting date", "transaction date", "trans date", "value date"},
	"description": {"description", "memo", "details", "narrative", "transaction details", "reference"},
	"amount":      {"amount", "transaction amount", "value", "amt"},
	"debit":       {"debit", "withdrawal", "withdrawals", "money out", "paid out", "debit amount"},
	"credit":      {"credit", "deposit", "deposits", "money in", "paid in", "credit amount"},
	"payee":       {"payee", "merchant", "name", "vendor", "counterparty"},
}

// sampleRows is how many data rows the second mapping pass inspects.
const sampleRows = 10

// sampleMatchRatio is the share of sampled values that must look date- or
// amount-shaped for a column to be inferred.
const sampleMatchRatio = 0.8

// minDescriptionAvgLen disqualifies short columns from description inference.
const minDescriptionAvgLen = 10

func parseDelimited(data []byte) (*models.ParseResult, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) < 2 || strings.TrimSpace(content) == "" {
		return nil, ErrFileTooShort
	}

	delimiter := detectDelimiter(lines[0])

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		if err == nil {
			return nil, ErrFileTooShort
		}
		// A structurally broken quote can abort ReadAll; fall back to a
		// line-at-a-time read so isolated bad rows stay row-level defects.
		records = readLineWise(lines, delimiter)
		if len(records) < 2 {
			return nil, ErrFileTooShort
		}
	}

	header := records[0]
	rows := records[1:]

	mapping := mapColumns(header, rows)
	if !mapping.Usable() {
		return nil, ErrNoUsableColumns
	}

	result := &models.ParseResult{
		ColumnMapping: &mapping,
		RowCount:      len(rows),
	}

	for i, row := range rows {
		txn, ok := rowToTransaction(row, mapping, i)
		if !ok {
			result.SkippedCount++
			continue
		}
		result.Transactions = append(result.Transactions, txn)
	}

	return result, nil
}

// detectDelimiter counts candidate delimiters in the first line and picks the
// most frequent; semicolon and tab win ties against comma.
func detectDelimiter(firstLine string) rune {
	commas := strings.Count(firstLine, ",")
	semis := strings.Count(firstLine, ";")
	tabs := strings.Count(firstLine, "\t")

	switch {
	case tabs >= semis && tabs >= commas && tabs > 0:
		return '\t'
	case semis >= commas && semis > 0:
		return ';'
	default:
		return ','
	}
}

// readLineWise parses each line as its own CSV record, dropping lines that
// fail on their own instead of aborting the whole file.
func readLineWise(lines []string, delimiter rune) [][]string {
	var records [][]string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		r := csv.NewReader(strings.NewReader(line))
		r.Comma = delimiter
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		record, err := r.Read()
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records
}

// mapColumns derives a ColumnMapping in two passes: header-synonym matching,
// then content inference over the first sampled data rows for anything still
// unmapped.
func mapColumns(header []string, rows [][]string) models.ColumnMapping {
	mapping := models.NewColumnMapping()
	claimed := make(map[int]bool)

	assign := func(target *int, index int) {
		*target = index
		claimed[index] = true
	}

	// First pass: header names against the synonym lists.
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" || claimed[i] {
			continue
		}
		switch {
		case mapping.Date == models.ColumnAbsent && matchesSynonym("date", normalized):
			assign(&mapping.Date, i)
		case mapping.Debit == models.ColumnAbsent && matchesSynonym("debit", normalized):
			assign(&mapping.Debit, i)
		case mapping.Credit == models.ColumnAbsent && matchesSynonym("credit", normalized):
			assign(&mapping.Credit, i)
		case mapping.Amount == models.ColumnAbsent && matchesSynonym("amount", normalized):
			assign(&mapping.Amount, i)
		case mapping.Payee == models.ColumnAbsent && matchesSynonym("payee", normalized):
			assign(&mapping.Payee, i)
		case mapping.Description == models.ColumnAbsent && matchesSynonym("description", normalized):
			assign(&mapping.Description, i)
		}
	}

	sample := rows
	if len(sample) > sampleRows {
		sample = sample[:sampleRows]
	}

	// Second pass: shape-based inference on sampled values.
	if mapping.Date == models.ColumnAbsent {
		if i := inferColumn(sample, claimed, isDateShaped); i != models.ColumnAbsent {
			assign(&mapping.Date, i)
		}
	}
	if mapping.Amount == models.ColumnAbsent && !mapping.HasAmountSignal() {
		if i := inferColumn(sample, claimed, isAmountShaped); i != models.ColumnAbsent {
			assign(&mapping.Amount, i)
		}
	}
	if mapping.Description == models.ColumnAbsent {
		if i := inferDescriptionColumn(sample, claimed); i != models.ColumnAbsent {
			assign(&mapping.Description, i)
		}
	}

	return mapping
}

func matchesSynonym(target, header string) bool {
	for _, synonym := range headerSynonyms[target] {
		if header == synonym {
			return true
		}
	}
	return false
}

// inferColumn picks the first unclaimed column where at least 80% of sampled
// values satisfy the shape predicate.
func inferColumn(sample [][]string, claimed map[int]bool, shaped func(string) bool) int {
	if len(sample) == 0 {
		return models.ColumnAbsent
	}
	width := len(sample[0])

	for col := 0; col < width; col++ {
		if claimed[col] {
			continue
		}
		matches, seen := 0, 0
		for _, row := range sample {
			if col >= len(row) {
				continue
			}
			seen++
			if shaped(row[col]) {
				matches++
			}
		}
		if seen > 0 && float64(matches) >= sampleMatchRatio*float64(seen) {
			return col
		}
	}
	return models.ColumnAbsent
}

// inferDescriptionColumn picks the unclaimed column with the highest average
// non-empty value length, requiring a minimum average of 10 characters.
func inferDescriptionColumn(sample [][]string, claimed map[int]bool) int {
	if len(sample) == 0 {
		return models.ColumnAbsent
	}
	width := len(sample[0])

	best, bestAvg := models.ColumnAbsent, float64(minDescriptionAvgLen)
	for col := 0; col < width; col++ {
		if claimed[col] {
			continue
		}
		total, seen := 0, 0
		for _, row := range sample {
			if col >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[col])
			if value == "" {
				continue
			}
			seen++
			total += len(value)
		}
		if seen == 0 {
			continue
		}
		if avg := float64(total) / float64(seen); avg >= bestAvg {
			best, bestAvg = col, avg
		}
	}
	return best
}

func rowToTransaction(row []string, mapping models.ColumnMapping, index int) (*models.Transaction, bool) {
	cell := func(col int) string {
		if col == models.ColumnAbsent || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	// Rows without a parseable date are dropped, never kept with a null date.
	date, ok := parseDate(cell(mapping.Date))
	if !ok {
		return nil, false
	}

	rawAmount := cell(mapping.Amount)
	var amount decimal.Decimal
	if mapping.Amount != models.ColumnAbsent {
		amount, _ = parseAmount(rawAmount)
	} else {
		credit, _ := parseAmount(cell(mapping.Credit))
		debit, _ := parseAmount(cell(mapping.Debit))
		amount = credit.Sub(debit.Abs())
		rawAmount = amount.String()
	}

	rawDescription := cell(mapping.Description)
	description := cleanText(rawDescription)

	payee := cleanText(cell(mapping.Payee))
	if payee == "" {
		payee = derivePayee(description)
	}

	return &models.Transaction{
		ID:             uuid.New(),
		Date:           date,
		Description:    description,
		Amount:         amount,
		Payee:          payee,
		RawDescription: rawDescription,
		RawAmount:      rawAmount,
		RowIndex:       index,
	}, true
}
