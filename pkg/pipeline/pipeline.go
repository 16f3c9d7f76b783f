// Package pipeline runs the icon layer stack workflow end to end.
//
// A run has three stages:
//
//  1. Plan: check the source selection, resolve the slot selections
//     (explicit, profile, defaults or the interactive form) and generate
//     the ordered layer ops
//  2. Apply: execute the ops against a host.Store
//  3. Export: optionally encode the generated layers as one .ico file
//
// The CLI and the HTTP API both drive a [Runner], so defaults and caching
// behave the same for every entry point.
//
// # Usage
//
//	runner := pipeline.NewRunner(store, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Image:      imageID,
//	    Candidates: []host.Drawable{base},
//	    Export:     true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("app.ico", result.Icon, 0644)
package pipeline

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/iconstack/pkg/config"
	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/host"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// Outcome is the terminal state of a run.
type Outcome int

const (
	// OutcomeSuccess means at least one layer op was planned (and applied,
	// for Execute).
	OutcomeSuccess Outcome = iota
	// OutcomeNoOp means every slot was disabled; nothing was changed.
	OutcomeNoOp
	// OutcomeCancelled means the user dismissed the form.
	OutcomeCancelled
	// OutcomeRejected means the source selection failed the precondition.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoOp:
		return "no-op"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ErrCancelled is returned by a Prompter when the user cancels.
var ErrCancelled = errors.New(errors.ErrCodeCancelled, "cancelled by user")

// Prompter asks the user for slot selections, starting from defaults.
type Prompter interface {
	Prompt(ctx context.Context, cfg config.Config, defaults []stack.Selection) ([]stack.Selection, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, cfg config.Config, defaults []stack.Selection) ([]stack.Selection, error)

// Prompt implements Prompter.
func (f PrompterFunc) Prompt(ctx context.Context, cfg config.Config, defaults []stack.Selection) ([]stack.Selection, error) {
	return f(ctx, cfg, defaults)
}

func isCancelled(err error) bool {
	return stderrors.Is(err, ErrCancelled) || errors.Is(err, errors.ErrCodeCancelled) ||
		stderrors.Is(err, context.Canceled)
}

// Options configures a pipeline run.
type Options struct {
	// Config supplies bounds, defaults and the interpolation filter.
	// A zero Config is replaced by config.Default().
	Config config.Config `json:"config"`

	// Image is the image the new layers are inserted into.
	Image host.ImageID `json:"image"`

	// Candidates is the caller's current drawable selection. Exactly one
	// layer is required.
	Candidates []host.Drawable `json:"-"`

	// Selections, when non-nil, are used as-is (after validation).
	Selections []stack.Selection `json:"selections,omitempty"`

	// Profile is used when Selections is nil.
	Profile *config.Profile `json:"-"`

	// Interactive asks Prompter for the final selections, starting from
	// whatever Selections, Profile or the defaults resolve to.
	Interactive bool     `json:"-"`
	Prompter    Prompter `json:"-"`

	// Export encodes the generated layers into Result.Icon.
	Export bool `json:"export,omitempty"`

	// Refresh bypasses the icon cache.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults fills in defaults and checks the options.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config == (config.Config{}) {
		o.Config = config.Default()
	}
	if o.Config.Interpolation == "" {
		o.Config.Interpolation = config.DefaultInterpolation
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.Interactive && o.Prompter == nil {
		return errors.New(errors.ErrCodeInvalidInput, "interactive run needs a prompter")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Outcome Outcome

	// Source is the layer the copies were made from.
	Source host.Drawable

	// Selections are the resolved slot selections.
	Selections []stack.Selection

	// Ops is the generated plan, largest size first.
	Ops []stack.LayerOp

	// Created holds the handles of the new layers in op order. On an apply
	// failure it holds the layers created before the failure.
	Created []stack.Handle

	// Icon is the encoded .ico when Options.Export is set.
	Icon []byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Layers     int
	PlanTime   time.Duration
	ApplyTime  time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	IconHit bool // Whether the encoded icon came from cache
}
