package parsers

import (
	"errors"
	"strings"

	"bankfeed/internal/models"

	"github.com/google/uuid"
)

// ErrNoBlocks is returned when a tag-block file contains no transaction
// blocks at all. Individual malformed blocks never trigger it.
var ErrNoBlocks = errors.New("no transaction blocks found")

const (
	blockStartTag = "<STMTTRN>"
	blockEndTag   = "</STMTTRN>"
)

// parseTagBlock handles both tag-block dialects. They share one grammar:
// transactions are <STMTTRN> blocks of named sub-fields, written either as
// SGML-style open tags or as closed XML-style pairs. The dialect only affects
// detection, never extraction.
func parseTagBlock(data []byte, kind FileKind) (*models.ParseResult, error) {
	content := string(data)
	if strings.TrimSpace(content) == "" || !strings.Contains(strings.TrimSpace(content), "\n") {
		return nil, ErrFileTooShort
	}

	currency := tagValue(content, "CURDEF")

	blocks := extractBlocks(content)
	if len(blocks) == 0 {
		return nil, ErrNoBlocks
	}

	result := &models.ParseResult{RowCount: len(blocks)}

	for i, block := range blocks {
		txn, ok := blockToTransaction(block, i, currency)
		if !ok {
			result.SkippedCount++
			continue
		}
		result.Transactions = append(result.Transactions, txn)
	}

	return result, nil
}

// extractBlocks returns the raw text of every transaction block. A missing
// end tag terminates the block at the next block start.
func extractBlocks(content string) []string {
	var blocks []string

	pos := 0
	for {
		start := indexTagFold(content, blockStartTag, pos)
		if start < 0 {
			break
		}
		start += len(blockStartTag)

		end := indexTagFold(content, blockEndTag, start)
		next := indexTagFold(content, blockStartTag, start)
		if end < 0 || (next >= 0 && next < end) {
			end = next
		}

		if end < 0 {
			blocks = append(blocks, content[start:])
			break
		}
		blocks = append(blocks, content[start:end])
		pos = end
	}

	return blocks
}

// indexTagFold finds the next occurrence of an ASCII tag in s at or after
// from, ignoring case. Folding byte by byte keeps the returned offset valid
// for s itself; an uppercased copy would shift offsets whenever a rune's
// uppercase form has a different byte length.
func indexTagFold(s, tag string, from int) int {
	for i := from; i+len(tag) <= len(s); i++ {
		if equalFoldASCII(s[i:i+len(tag)], tag) {
			return i
		}
	}
	return -1
}

func equalFoldASCII(s, t string) bool {
	for i := 0; i < len(s); i++ {
		a, b := s[i], t[i]
		if 'a' <= a && a <= 'z' {
			a -= 'a' - 'A'
		}
		if 'a' <= b && b <= 'z' {
			b -= 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

// tagValue pulls the value following <TAG>, terminated by the next tag open
// or line end. Absent tags yield the empty string.
func tagValue(s, tag string) string {
	idx := indexTagFold(s, "<"+tag+">", 0)
	if idx < 0 {
		return ""
	}
	start := idx + len(tag) + 2

	rest := s[start:]
	if cut := strings.IndexAny(rest, "<\r\n"); cut >= 0 {
		rest = rest[:cut]
	}
	return strings.TrimSpace(rest)
}

func blockToTransaction(block string, index int, currency string) (*models.Transaction, bool) {
	rawDate := tagValue(block, "DTPOSTED")
	rawAmount := tagValue(block, "TRNAMT")
	name := cleanText(tagValue(block, "NAME"))
	memo := cleanText(tagValue(block, "MEMO"))
	trnType := cleanText(tagValue(block, "TRNTYPE"))

	// A block with neither a date nor an amount carries no transaction.
	if rawDate == "" && rawAmount == "" {
		return nil, false
	}

	// Posted dates are YYYYMMDD, often suffixed with time and zone info.
	digits := leadingDigits(rawDate)
	if len(digits) > 8 {
		digits = digits[:8]
	}
	date, ok := parseDate(digits)
	if !ok {
		return nil, false
	}

	amount, _ := parseAmount(rawAmount)

	var description string
	switch {
	case name != "" && memo != "":
		description = name + " - " + memo
	case name != "":
		description = name
	case memo != "":
		description = memo
	default:
		description = trnType
	}

	return &models.Transaction{
		ID:             uuid.New(),
		Date:           date,
		Description:    description,
		Amount:         amount,
		Currency:       currency,
		Payee:          derivePayee(description),
		RawDescription: description,
		RawAmount:      rawAmount,
		RowIndex:       index,
	}, true
}

func leadingDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			return s[:i]
		}
	}
	return s
}
