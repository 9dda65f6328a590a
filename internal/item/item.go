// Package item models consumable item kinds and their charge accounting.
// Charges are discrete units (a liter of water, a dose of detergent); a
// source such as a connected tap carries the Unbounded sentinel and never
// depletes.
package item

import (
	"math"
	"strconv"
)

// ID identifies an item kind in the catalog.
type ID string

// Charges counts consumable units of an item kind.
type Charges int

// Unbounded marks an effectively infinite supply. Arithmetic saturates at
// this value instead of overflowing.
const Unbounded Charges = math.MaxInt32

// IsUnbounded reports whether the supply is infinite.
func (c Charges) IsUnbounded() bool {
	return c >= Unbounded
}

// Add returns c grown by n, saturating at Unbounded.
func (c Charges) Add(n Charges) Charges {
	if c.IsUnbounded() || n.IsUnbounded() {
		return Unbounded
	}
	if sum := c + n; sum < Unbounded {
		return sum
	}
	return Unbounded
}

// Consume returns the supply after spending n charges and whether the
// supply covered them. An unbounded supply covers anything and never
// depletes; a bounded supply is only touched when it suffices.
func (c Charges) Consume(n Charges) (Charges, bool) {
	if n <= 0 {
		return c, true
	}
	if c.IsUnbounded() {
		return c, true
	}
	if c < n {
		return c, false
	}
	return c - n, true
}

// String renders the charge count, using "unlimited" for the sentinel.
func (c Charges) String() string {
	if c.IsUnbounded() {
		return "unlimited"
	}
	return strconv.Itoa(int(c))
}
