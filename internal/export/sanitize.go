package export

import "strings"

// SanitizeCell defuses spreadsheet formula injection: a value whose first
// character is '=', '+', '-' or '@' is prefixed with a single quote, which
// spreadsheet tools render as plain text while leaving the visible value
// unchanged. Applied to every text cell; numeric cells are emitted directly
// and never pass through here.
func SanitizeCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@':
		return "'" + value
	}
	return value
}

// encodeCell quotes a cell when it contains the delimiter, a quote character
// or a newline, doubling internal quotes.
func encodeCell(value string, delimiter rune) string {
	if !strings.ContainsAny(value, string(delimiter)+"\"\r\n") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// textCell sanitizes then encodes a free-text value.
func textCell(value string, delimiter rune) string {
	return encodeCell(SanitizeCell(value), delimiter)
}
