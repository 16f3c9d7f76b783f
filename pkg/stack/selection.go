package stack

import "fmt"

const (
	// DefaultMaxLayers is the number of size slots offered at once.
	DefaultMaxLayers = 4

	// DefaultBaseExponent is the exponent of slot 0's default size (2^5 = 32).
	DefaultBaseExponent = 5
)

// Handle identifies a layer owned by the host. The stack package never
// dereferences it.
type Handle string

// Selection is the resolved toggle and size for one slot.
type Selection struct {
	Enabled bool `json:"enabled" toml:"enabled"`
	Size    int  `json:"size" toml:"size"`
}

// DefaultSize returns 2^(baseExponent+index), the default size of a slot.
// It returns 0 when the exponent is negative.
func DefaultSize(index, baseExponent int) int {
	exp := baseExponent + index
	if exp < 0 {
		return 0
	}
	return 1 << exp
}

// DefaultSelections returns maxLayers enabled selections carrying their
// slot's default size.
func DefaultSelections(maxLayers, baseExponent int) []Selection {
	if maxLayers < 0 {
		maxLayers = 0
	}
	out := make([]Selection, maxLayers)
	for i := range out {
		out[i] = Selection{Enabled: true, Size: DefaultSize(i, baseExponent)}
	}
	return out
}

// LayerName returns the name given to a generated layer, e.g. "64x64".
func LayerName(size int) string {
	return fmt.Sprintf("%dx%d", size, size)
}

// Enabled returns the enabled selections in their original order.
func Enabled(selections []Selection) []Selection {
	out := make([]Selection, 0, len(selections))
	for _, s := range selections {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
