package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateShapedPattern recognizes values that look like calendar dates. Used by
// column-mapping inference, not by the actual date parser.
var dateShapedPattern = regexp.MustCompile(
	`^\d{4}[-/.]\d{1,2}[-/.]\d{1,2}$|^\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}$|^\d{8}$`,
)

func isDateShaped(value string) bool {
	return dateShapedPattern.MatchString(strings.TrimSpace(value))
}

// parseDate coerces a raw cell into a calendar date. ISO forms are tried
// first, then month/day/year, then day/month/year. Day-first is chosen only
// when the first numeric component exceeds 12; when both leading components
// are 12 or less the value is assumed month-first. That default is a known
// limitation for ambiguous locales, preserved deliberately.
func parseDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{"2006-01-02", "2006/01/02", "2006.01.02", "20060102"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	parts := splitDateComponents(value)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	first, err1 := strconv.Atoi(parts[0])
	second, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	if year < 100 {
		year += 2000
	}

	month, day := first, second
	if first > 12 {
		day, month = first, second
	}

	return makeDate(year, month, day)
}

func splitDateComponents(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
}

// makeDate validates the components against the real calendar; time.Date
// would silently normalize an overflow like February 30.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
