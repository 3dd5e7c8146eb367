package parsers

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"bankfeed/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

// FileKind discriminates the parser variants. Dispatch is an explicit switch
// on this value, not content-based duck typing.
type FileKind string

const (
	KindDelimited FileKind = "csv"
	KindOFX       FileKind = "ofx"
	KindQFX       FileKind = "qfx"
	KindAuto      FileKind = "auto"
)

// File-level parse errors. Anything below file level is recovered locally
// and counted, never escalated.
var (
	ErrFileTooShort    = errors.New("file must contain a header and at least one data row")
	ErrUnknownKind     = errors.New("unrecognized file kind")
	ErrNoUsableColumns = errors.New("no date or amount columns could be identified")
)

// IsValidKind checks if a file kind hint is recognized
func IsValidKind(kind FileKind) bool {
	switch kind {
	case KindDelimited, KindOFX, KindQFX, KindAuto:
		return true
	default:
		return false
	}
}

// Parse turns raw file bytes into normalized transactions according to the
// declared kind. KindAuto sniffs the content first.
func Parse(data []byte, kind FileKind) (*models.ParseResult, error) {
	if kind == KindAuto {
		kind = DetectKind(data)
	}

	switch kind {
	case KindDelimited:
		return parseDelimited(data)
	case KindOFX, KindQFX:
		return parseTagBlock(data, kind)
	default:
		return nil, ErrUnknownKind
	}
}

// DetectKind sniffs the file content. OFX/QFX carry a recognizable header or
// an OFX envelope tag; everything else is treated as delimited text.
func DetectKind(data []byte) FileKind {
	head := strings.ToUpper(string(data[:min(len(data), 512)]))
	switch {
	case strings.Contains(head, "OFXHEADER") || strings.Contains(head, "<OFX>"):
		if strings.Contains(head, "INTU.BID") {
			return KindQFX
		}
		return KindOFX
	default:
		return KindDelimited
	}
}

// descriptionPolicy strips any markup smuggled into bank descriptions before
// they enter the pipeline or an export.
var descriptionPolicy = bluemonday.StrictPolicy()

// cleanText sanitizes a free-text field: markup removed, unprintable runes
// dropped, surrounding whitespace trimmed. Original casing is preserved.
func cleanText(s string) string {
	s = descriptionPolicy.Sanitize(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(s)
}

// derivePayee derives a payee from a description when the file has no payee
// column: the first three whitespace tokens, capped at roughly 30 characters.
func derivePayee(description string) string {
	tokens := strings.Fields(description)
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	payee := strings.Join(tokens, " ")
	if len(payee) > 30 {
		cut := 30
		for !utf8.RuneStart(payee[cut]) {
			cut--
		}
		payee = strings.TrimSpace(payee[:cut])
	}
	return payee
}
