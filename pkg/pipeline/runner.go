package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/iconstack/pkg/cache"
	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/host"
	"github.com/matzehuels/iconstack/pkg/ico"
	"github.com/matzehuels/iconstack/pkg/observability"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// PixelReader is implemented by stores that can hand out layer pixels.
// Export needs it; planning and applying do not.
type PixelReader interface {
	Pixels(h stack.Handle) (*image.NRGBA, error)
}

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state, so one Runner can serve concurrent
// runs as long as they target different images.
type Runner struct {
	Store  host.Store
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner over store.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(store host.Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  store,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Plan checks the source, resolves selections and generates the ops.
//
// A failed precondition returns a Result with OutcomeRejected together
// with the PRECONDITION error. A cancelled form returns OutcomeCancelled
// and a nil error. Invalid selections return an error and no Result.
// Plan never touches the store.
func (r *Runner) Plan(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	observability.Pipeline().OnPlanStart(ctx, candidateName(opts.Candidates), opts.Config.MaxLayers)
	result, err := r.plan(ctx, opts)
	dur := time.Since(start)
	ops := 0
	if result != nil {
		result.Stats.PlanTime = dur
		ops = len(result.Ops)
	}
	observability.Pipeline().OnPlanComplete(ctx, candidateName(opts.Candidates), ops, dur, err)
	return result, err
}

func (r *Runner) plan(ctx context.Context, opts Options) (*Result, error) {
	src, err := host.SelectSource(opts.Candidates)
	if err != nil {
		return &Result{Outcome: OutcomeRejected, Ops: []stack.LayerOp{}}, err
	}
	opts.Logger.Debug("base layer", "name", src.Name, "handle", src.Handle)

	sel, err := r.resolveSelections(opts)
	if err != nil {
		return nil, err
	}

	if opts.Interactive {
		sel, err = opts.Prompter.Prompt(ctx, opts.Config, sel)
		if isCancelled(err) {
			opts.Logger.Debug("selection cancelled")
			return &Result{Outcome: OutcomeCancelled, Source: src, Ops: []stack.LayerOp{}}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("prompt: %w", err)
		}
		if err := opts.Config.ValidateSelections(sel); err != nil {
			return nil, err
		}
	}

	ops := stack.Generate(src.Handle, sel)
	opts.Logger.Debug("copies to make", "count", len(ops))
	for _, op := range ops {
		opts.Logger.Debug("size", "value", op.Size(), "name", op.RenameTo)
	}

	result := &Result{
		Outcome:    OutcomeSuccess,
		Source:     src,
		Selections: sel,
		Ops:        ops,
	}
	if len(ops) == 0 {
		result.Outcome = OutcomeNoOp
	}
	return result, nil
}

// resolveSelections picks explicit selections, then the profile, then the
// configured defaults.
func (r *Runner) resolveSelections(opts Options) ([]stack.Selection, error) {
	switch {
	case opts.Selections != nil:
		if err := opts.Config.ValidateSelections(opts.Selections); err != nil {
			return nil, err
		}
		return append([]stack.Selection(nil), opts.Selections...), nil
	case opts.Profile != nil:
		return opts.Profile.Resolve(opts.Config)
	default:
		return opts.Config.DefaultSelections(), nil
	}
}

// Execute runs plan, apply and (optionally) export.
//
// Runs that end as rejected, cancelled or no-op return after planning
// without touching the store.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result, err := r.Plan(ctx, opts)
	if err != nil || result.Outcome != OutcomeSuccess {
		return result, err
	}
	if r.Store == nil {
		return result, errors.New(errors.ErrCodeInternal, "runner has no store")
	}

	// Stage 2: Apply
	applyStart := time.Now()
	observability.Pipeline().OnApplyStart(ctx, len(result.Ops))
	created, err := host.Apply(ctx, r.Store, opts.Image, result.Ops, host.ApplyOptions{
		Interpolation: opts.Config.Interpolation,
		OnOp: func(i int, op stack.LayerOp, h stack.Handle) {
			opts.Logger.Debug("created layer", "index", i, "name", op.RenameTo, "handle", h)
		},
	})
	result.Created = created
	result.Stats.ApplyTime = time.Since(applyStart)
	result.Stats.Layers = len(created)
	observability.Pipeline().OnApplyComplete(ctx, len(created), result.Stats.ApplyTime, err)
	if err != nil {
		return result, fmt.Errorf("apply: %w", err)
	}

	opts.Logger.Info("generated layers",
		"layers", len(created),
		"sizes", stack.Sizes(result.Ops),
		"duration", result.Stats.ApplyTime)

	if !opts.Export {
		return result, nil
	}

	// Stage 3: Export
	exportStart := time.Now()
	icon, hit, err := r.ExportWithCacheInfo(ctx, result, opts)
	result.Stats.ExportTime = time.Since(exportStart)
	if err != nil {
		return result, fmt.Errorf("export: %w", err)
	}
	result.Icon = icon
	result.CacheInfo.IconHit = hit

	opts.Logger.Info("encoded icon",
		"bytes", len(icon),
		"cached", hit,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// ExportWithCacheInfo encodes the layers created by result into an .ico
// and reports whether the bytes came from cache. The cache key is derived
// from the source pixels, the sizes and the interpolation filter.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, result *Result, opts Options) ([]byte, bool, error) {
	pr, ok := r.Store.(PixelReader)
	if !ok {
		return nil, false, errors.New(errors.ErrCodeUnsupported, "store %T cannot read pixels", r.Store)
	}

	src, err := pr.Pixels(result.Source.Handle)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.IconKey(pixelHash(src), cache.IconKeyOpts{
		Sizes:         stack.Sizes(result.Ops),
		Interpolation: opts.Config.Interpolation,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "icon")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "icon")
	}

	start := time.Now()
	observability.Pipeline().OnExportStart(ctx, len(result.Created))
	data, err := r.encode(pr, result.Created)
	observability.Pipeline().OnExportComplete(ctx, len(data), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.TTLIcon); err != nil {
		opts.Logger.Warn("cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "icon", len(data))
	}
	return data, false, nil
}

func (r *Runner) encode(pr PixelReader, handles []stack.Handle) ([]byte, error) {
	images := make([]image.Image, len(handles))
	for i, h := range handles {
		px, err := pr.Pixels(h)
		if err != nil {
			return nil, err
		}
		images[i] = px
	}
	var buf bytes.Buffer
	if err := ico.Encode(&buf, images); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func pixelHash(m *image.NRGBA) string {
	b := m.Bounds()
	h := fmt.Sprintf("%dx%d:", b.Dx(), b.Dy())
	return cache.Hash(append([]byte(h), m.Pix...))
}

func candidateName(c []host.Drawable) string {
	if len(c) == 1 {
		return c[0].Name
	}
	return ""
}
