// Package dedup marks near-duplicate transactions using a content
// fingerprint tolerant of one day of posting-date drift.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"bankfeed/internal/models"
)

// Tag walks the transactions in parse order and sets Duplicate on every
// transaction whose fingerprint was already seen. The first occurrence is
// never marked; its fingerprints for the day before and after are
// pre-registered so a bank posting the same transaction a day early or late
// is still caught. Returns the number of duplicates tagged.
//
// The pass is intentionally single-timeline: first-seen-wins is only
// deterministic when the input order is respected.
func Tag(transactions []*models.Transaction) int {
	seen := make(map[string]struct{}, len(transactions)*3)
	duplicates := 0

	for _, txn := range transactions {
		key := fingerprint(txn.Date, txn)
		if _, exists := seen[key]; exists {
			txn.Duplicate = true
			duplicates++
			continue
		}

		// Register the transaction's own day plus one day of skew in each
		// direction.
		seen[key] = struct{}{}
		seen[fingerprint(txn.Date.AddDate(0, 0, -1), txn)] = struct{}{}
		seen[fingerprint(txn.Date.AddDate(0, 0, 1), txn)] = struct{}{}
	}

	return duplicates
}

// fingerprint hashes the ISO date, the amount rounded to whole currency
// units, and the normalized description.
func fingerprint(date time.Time, txn *models.Transaction) string {
	payload := date.Format("2006-01-02") + "|" +
		txn.Amount.Round(0).String() + "|" +
		normalizeDescription(txn.Description)

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// normalizeDescription lower-cases, strips every non-alphanumeric rune and
// collapses the remainder, so cosmetic differences don't defeat matching.
func normalizeDescription(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
