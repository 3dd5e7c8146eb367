package parsers

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountShapedPattern recognizes values that look like money: optional sign,
// optional currency symbol, digit groups with optional thousands separators,
// optional two-decimal fraction. Used by column-mapping inference.
var amountShapedPattern = regexp.MustCompile(
	`^[-+]?[$€£¥]?\s*\(?[-+]?\d{1,3}(?:[,.\s]\d{3})*(?:[.,]\d{1,2})?\)?$`,
)

func isAmountShaped(value string) bool {
	return amountShapedPattern.MatchString(strings.TrimSpace(value))
}

var currencySymbols = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "")

// parseAmount coerces a raw cell into a signed decimal. Currency symbols,
// thousands separators and whitespace are stripped before conversion.
// Parenthesized values are treated as negative, per common bank exports.
// An unparseable value yields (zero, false); callers zero the field rather
// than abort the file.
func parseAmount(raw string) (decimal.Decimal, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		negative = true
		value = value[1 : len(value)-1]
	}

	value = currencySymbols.Replace(value)
	value = strings.ReplaceAll(value, " ", "")
	value = normalizeSeparators(value)

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, true
}

// normalizeSeparators reduces mixed thousands/decimal punctuation to a plain
// dot-decimal form. When both separators appear, whichever comes last is the
// decimal point. A lone comma followed by exactly two digits is a decimal
// comma; any other comma is a thousands separator.
func normalizeSeparators(value string) string {
	lastComma := strings.LastIndex(value, ",")
	lastDot := strings.LastIndex(value, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			value = strings.ReplaceAll(value, ".", "")
			value = strings.Replace(value, ",", ".", 1)
		} else {
			value = strings.ReplaceAll(value, ",", "")
		}
	case lastComma >= 0:
		if len(value)-lastComma == 3 {
			value = strings.Replace(value, ",", ".", 1)
		} else {
			value = strings.ReplaceAll(value, ",", "")
		}
	}
	return value
}
