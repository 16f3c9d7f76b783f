package host

import (
	"context"
	"fmt"

	"github.com/matzehuels/iconstack/pkg/stack"
)

// ApplyOptions configures [Apply].
type ApplyOptions struct {
	// Interpolation is passed through to Store.Scale.
	Interpolation string

	// OnOp is called after each op completes, with its index and the new
	// layer's handle.
	OnOp func(index int, op stack.LayerOp, created stack.Handle)
}

// Apply executes ops against store one after another, in slice order.
// Each op duplicates its source, renames the copy, inserts it into image
// and scales it.
//
// Apply returns the handles of the created layers in op order. If an op
// fails, the handles created so far are returned together with the error;
// rolling those back is the host's concern. The context is checked
// before each op.
func Apply(ctx context.Context, store Store, image ImageID, ops []stack.LayerOp, opts ApplyOptions) ([]stack.Handle, error) {
	created := make([]stack.Handle, 0, len(ops))
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		h, err := applyOne(ctx, store, image, op, opts.Interpolation)
		if h != "" {
			created = append(created, h)
		}
		if err != nil {
			return created, fmt.Errorf("op %d (%s): %w", i, op.RenameTo, err)
		}
		if opts.OnOp != nil {
			opts.OnOp(i, op, h)
		}
	}
	return created, nil
}

func applyOne(ctx context.Context, store Store, image ImageID, op stack.LayerOp, interp string) (stack.Handle, error) {
	h, err := store.Duplicate(ctx, op.DuplicateFrom)
	if err != nil {
		return "", fmt.Errorf("duplicate: %w", err)
	}
	if err := store.Rename(ctx, h, op.RenameTo); err != nil {
		return h, fmt.Errorf("rename: %w", err)
	}
	if err := store.Insert(ctx, image, h, op.InsertAt); err != nil {
		return h, fmt.Errorf("insert: %w", err)
	}
	if err := store.Scale(ctx, h, op.ScaleTo.Width, op.ScaleTo.Height, interp); err != nil {
		return h, fmt.Errorf("scale: %w", err)
	}
	return h, nil
}
