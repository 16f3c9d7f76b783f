// Package layout arranges the per-slot size controls into display rows.
//
// Each slot of the size selection is presented as one control: a toggle
// paired with a numeric size field. Controls are packed left to right into
// rows of a fixed capacity, so four slots at capacity two render as
//
//	[ size-0 | size-1 ]
//	[ size-2 | size-3 ]
//
// The grouping is pure and independent of any renderer; the terminal form
// and the HTTP API both consume [Rows].
package layout

import "fmt"

// DefaultRowCapacity is the number of controls per row.
const DefaultRowCapacity = 2

// ControlID identifies the control for one selection slot.
type ControlID struct {
	Slot int `json:"slot"`
}

// SizeName returns the name of the slot's size value, e.g. "size-0".
func (c ControlID) SizeName() string {
	return fmt.Sprintf("size-%d", c.Slot)
}

// ToggleName returns the name of the slot's enable toggle, e.g. "size-0-toggle".
func (c ControlID) ToggleName() string {
	return c.SizeName() + "-toggle"
}

// FrameName returns the name of the frame wrapping toggle and value.
func (c ControlID) FrameName() string {
	return fmt.Sprintf("toggle-frame-%d", c.Slot)
}

// Label returns the human-readable label shown next to the size field.
func (c ControlID) Label() string {
	return fmt.Sprintf("Layer %d size", c.Slot+1)
}

// Group partitions items into consecutive runs of at most capacity
// elements. Order is preserved within and across groups and the final
// group may be shorter; nothing is padded. A capacity below 1 is treated
// as 1. An empty input yields an empty, non-nil result.
func Group[T any](items []T, capacity int) [][]T {
	if capacity < 1 {
		capacity = 1
	}
	groups := make([][]T, 0, (len(items)+capacity-1)/capacity)
	for start := 0; start < len(items); start += capacity {
		end := min(start+capacity, len(items))
		row := make([]T, end-start)
		copy(row, items[start:end])
		groups = append(groups, row)
	}
	return groups
}

// Controls returns the controls for slots 0..n-1.
func Controls(n int) []ControlID {
	if n < 0 {
		n = 0
	}
	out := make([]ControlID, n)
	for i := range out {
		out[i] = ControlID{Slot: i}
	}
	return out
}

// Rows groups the controls for n slots into rows of the given capacity.
func Rows(n, capacity int) [][]ControlID {
	return Group(Controls(n), capacity)
}

// BoxName returns the name of the container holding row i, e.g. "box-0".
func BoxName(row int) string {
	return fmt.Sprintf("box-%d", row)
}
