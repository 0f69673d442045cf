package cart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// LineKey identifies a cart line. Two selections with the same product,
// variety, and extras multiset produce the same key and merge into one line.
type LineKey string

// Sentinel segment for "no variety selected".
const noVariety = "-"

// NewLineKey builds the composite identity for a quantity-priced line.
// Extras are sorted by id before concatenation so the order the user
// toggled them in never affects the key.
func NewLineKey(productID uuid.UUID, varietyID *uuid.UUID, extras []ExtraSelection) LineKey {
	var b strings.Builder
	b.WriteString(productID.String())
	b.WriteByte('|')
	if varietyID != nil {
		b.WriteString(varietyID.String())
	} else {
		b.WriteString(noVariety)
	}

	sorted := make([]ExtraSelection, len(extras))
	copy(sorted, extras)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Extra.ID.String() < sorted[j].Extra.ID.String()
	})
	for _, e := range sorted {
		fmt.Fprintf(&b, "|%sx%d", e.Extra.ID, e.Quantity)
	}
	return LineKey(b.String())
}

// weighedKey returns a fresh unique key. Weight-priced lines never merge,
// even when two plates weigh exactly the same, so they bypass composite
// keying entirely.
func weighedKey() LineKey {
	return LineKey("w|" + uuid.NewString())
}
