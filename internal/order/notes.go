package order

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Older records carry the weighing in the item notes instead of the
// weight_kg / price_per_kg columns, e.g. "weight=0.500kg price_per_kg=39.90".
// Writes still emit the note alongside the columns so receipts and older
// readers keep working.

var weightNoteRe = regexp.MustCompile(`weight=([0-9]+(?:\.[0-9]+)?)kg\s+price_per_kg=([0-9]+(?:\.[0-9]+)?)`)

// EncodeWeightNote renders the legacy notes encoding for a weighed line.
func EncodeWeightNote(weightKg, pricePerKg decimal.Decimal) string {
	return fmt.Sprintf("weight=%skg price_per_kg=%s", weightKg.StringFixed(3), pricePerKg.StringFixed(2))
}

// StripWeightNote removes the weight encoding from a note, keeping any
// surrounding free text. Returns "" when nothing else remains.
func StripWeightNote(notes string) string {
	return strings.TrimSpace(weightNoteRe.ReplaceAllString(notes, ""))
}

// ParseWeightNote extracts weight and price per kg from a legacy note.
// Returns ok=false when the note carries no weight encoding.
func ParseWeightNote(notes string) (weightKg, pricePerKg decimal.Decimal, ok bool) {
	m := weightNoteRe.FindStringSubmatch(notes)
	if m == nil {
		return decimal.Zero, decimal.Zero, false
	}
	w, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, decimal.Zero, false
	}
	p, err := decimal.NewFromString(m[2])
	if err != nil {
		return decimal.Zero, decimal.Zero, false
	}
	return w, p, true
}
