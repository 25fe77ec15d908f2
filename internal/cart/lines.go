package cart

import (
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/enums"
)

// lineKey identifies a cart line. The same item can appear once per kind.
type lineKey struct {
	itemID string
	kind   enums.ItemKind
}

func keyOf(line backend.CartLine) lineKey {
	return lineKey{itemID: line.ItemID, kind: line.Kind}
}

func findLine(lines []backend.CartLine, key lineKey) int {
	for i, line := range lines {
		if keyOf(line) == key {
			return i
		}
	}
	return -1
}

// addLine inserts item with quantity 1 unless a line with the same key
// already exists, in which case the cart is returned untouched.
func addLine(lines []backend.CartLine, item backend.CartLine) ([]backend.CartLine, bool) {
	if findLine(lines, keyOf(item)) >= 0 {
		return lines, false
	}
	item.Quantity = 1
	out := make([]backend.CartLine, len(lines), len(lines)+1)
	copy(out, lines)
	return append(out, item), true
}

// bumpLine adjusts the quantity of the keyed line by delta, dropping the
// line when it reaches zero. Returns false when no such line exists.
func bumpLine(lines []backend.CartLine, key lineKey, delta int) ([]backend.CartLine, bool) {
	idx := findLine(lines, key)
	if idx < 0 {
		return lines, false
	}

	out := make([]backend.CartLine, len(lines))
	copy(out, lines)

	next := out[idx].Quantity + delta
	if next <= 0 {
		return append(out[:idx], out[idx+1:]...), true
	}
	out[idx].Quantity = next
	return out, true
}

func cloneLines(lines []backend.CartLine) []backend.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]backend.CartLine, len(lines))
	copy(out, lines)
	return out
}
