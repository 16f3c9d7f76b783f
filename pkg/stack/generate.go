package stack

import (
	"cmp"
	"slices"
)

// Dimensions is a target width and height in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LayerOp describes one duplicate + rename + insert + scale effect.
//
// InsertAt is a stack position relative to the top of the image: 0 is the
// top, -1 is directly below the layer at 0, and so on.
type LayerOp struct {
	DuplicateFrom Handle     `json:"duplicate_from"`
	RenameTo      string     `json:"rename_to"`
	InsertAt      int        `json:"insert_at"`
	ScaleTo       Dimensions `json:"scale_to"`
}

// Size returns the square size the op scales to.
func (op LayerOp) Size() int {
	return op.ScaleTo.Width
}

// Generate returns the ordered plan that builds one scaled duplicate of
// source per enabled selection.
//
// Operations are emitted largest first. Equal sizes keep their input
// order. Op k is inserted at -k so the new layers form a contiguous block
// in descending size from the top. Disabled selections are skipped, and
// when nothing is enabled the result is empty rather than an error.
//
// Neither source nor selections is modified.
func Generate(source Handle, selections []Selection) []LayerOp {
	active := Enabled(selections)
	slices.SortStableFunc(active, func(a, b Selection) int {
		return cmp.Compare(b.Size, a.Size)
	})

	ops := make([]LayerOp, len(active))
	for k, sel := range active {
		ops[k] = LayerOp{
			DuplicateFrom: source,
			RenameTo:      LayerName(sel.Size),
			InsertAt:      -k,
			ScaleTo:       Dimensions{Width: sel.Size, Height: sel.Size},
		}
	}
	return ops
}

// Sizes returns the target size of each op in emission order.
func Sizes(ops []LayerOp) []int {
	out := make([]int, len(ops))
	for i, op := range ops {
		out[i] = op.Size()
	}
	return out
}
