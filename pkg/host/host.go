// Package host defines the contract between the layer planner and the image
// editor that owns the layers.
//
// The planner (package stack) only describes effects. A [Store] performs
// them with four primitives: duplicate, rename, insert and scale. [Apply]
// replays a plan against a Store strictly in order, because each op's
// insert position is relative to the layers created before it.
//
// Handles passed to a Store are owned by the host. The planner keeps them
// only while building a plan.
package host

import (
	"context"

	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// ImageID identifies an image in a Store.
type ImageID string

// Kind is the type of a drawable offered as a source.
type Kind int

const (
	KindLayer Kind = iota
	KindChannel
	KindMask
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindLayer:
		return "layer"
	case KindChannel:
		return "channel"
	case KindMask:
		return "mask"
	default:
		return "unknown"
	}
}

// Drawable is a selectable item of an image.
type Drawable struct {
	Handle stack.Handle
	Name   string
	Kind   Kind
}

// Store is the host image/layer store.
type Store interface {
	// Duplicate copies layer and returns the detached copy.
	Duplicate(ctx context.Context, layer stack.Handle) (stack.Handle, error)

	// Rename sets the display name of layer.
	Rename(ctx context.Context, layer stack.Handle, name string) error

	// Insert places layer into image at a position relative to the top
	// (0 is the top, -1 directly below it).
	Insert(ctx context.Context, image ImageID, layer stack.Handle, position int) error

	// Scale resizes layer to width x height with the named interpolation.
	// An empty interpolation selects the host default.
	Scale(ctx context.Context, layer stack.Handle, width, height int, interpolation string) error
}

// SelectSource picks the single source layer out of the caller's current
// selection. It fails with PRECONDITION when there is not exactly one
// candidate or when the candidate is not a layer. It has no side effects.
func SelectSource(candidates []Drawable) (Drawable, error) {
	switch len(candidates) {
	case 0:
		return Drawable{}, errors.New(errors.ErrCodePrecondition, "works with exactly one layer, none selected")
	case 1:
	default:
		return Drawable{}, errors.New(errors.ErrCodePrecondition, "works with exactly one layer, %d selected", len(candidates))
	}

	d := candidates[0]
	if d.Kind != KindLayer {
		return Drawable{}, errors.New(errors.ErrCodePrecondition, "works with layers only, %q is a %s", d.Name, d.Kind)
	}
	return d, nil
}
