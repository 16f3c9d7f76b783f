package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/iconstack/pkg/config"
	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/host"
	"github.com/matzehuels/iconstack/pkg/imageio"
	"github.com/matzehuels/iconstack/pkg/pipeline"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// selectionFlags are the flags shared by plan and generate that decide
// which slots are enabled.
type selectionFlags struct {
	profile string // TOML profile path
	sizes   []int  // explicit enabled sizes, slot order
	disable []int  // slot indexes to switch off
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.profile, "profile", "", "size profile (TOML)")
	cmd.Flags().IntSliceVar(&f.sizes, "sizes", nil, "enabled sizes in slot order, remaining slots off (e.g. 256,64,32)")
	cmd.Flags().IntSliceVar(&f.disable, "disable", nil, "slot indexes to disable")
}

// toProfile turns the flags into a profile for the pipeline to resolve,
// starting from the --profile file (or an empty profile, whose slots take
// the configured defaults). It returns nil when no flag was set so the
// pipeline falls back to its own defaults. Bounds are checked when the
// pipeline resolves the profile.
func (f *selectionFlags) toProfile(cfg config.Config) (*config.Profile, error) {
	if f.profile == "" && len(f.sizes) == 0 && len(f.disable) == 0 {
		return nil, nil
	}

	p := config.Profile{Name: "flags"}
	if f.profile != "" {
		var err error
		if p, err = config.LoadProfile(f.profile); err != nil {
			return nil, err
		}
	}

	if len(f.sizes) > 0 {
		if len(f.sizes) > cfg.MaxLayers {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"%d sizes given, max_layers is %d", len(f.sizes), cfg.MaxLayers)
		}
		padSlots(&p, cfg.MaxLayers)
		for i := range p.Slots {
			on := i < len(f.sizes)
			p.Slots[i].Enabled = &on
			if on {
				size := f.sizes[i]
				p.Slots[i].Size = &size
			}
		}
	}

	for _, i := range f.disable {
		if i < 0 || i >= cfg.MaxLayers {
			return nil, errors.New(errors.ErrCodeInvalidInput, "no slot %d (have %d)", i, cfg.MaxLayers)
		}
		padSlots(&p, cfg.MaxLayers)
		off := false
		p.Slots[i].Enabled = &off
	}
	return &p, nil
}

// padSlots extends p with unset slots up to n.
func padSlots(p *config.Profile, n int) {
	for len(p.Slots) < n {
		p.Slots = append(p.Slots, config.Slot{})
	}
}

// planOpts holds the command-line flags for the plan command.
type planOpts struct {
	selectionFlags
	layer string // name of the source layer
	json  bool   // print the plan as JSON
}

// planCommand creates the plan command, which prints the layer ops a
// generate run would perform without touching any image.
func (c *CLI) planCommand() *cobra.Command {
	opts := planOpts{layer: defaultLayerName}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the layers that would be created",
		Long: `Show the layer operations for the current selection: one copy of the
source layer per enabled size, largest first, each inserted directly below
the previous copy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlan(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.layer, "layer", opts.layer, "source layer name")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the plan as JSON")

	return cmd
}

func (c *CLI) runPlan(ctx context.Context, w io.Writer, opts planOpts) error {
	logger := loggerFromContext(ctx)

	if err := errors.ValidateLayerName(opts.layer); err != nil {
		return err
	}
	profile, err := opts.toProfile(c.cfg)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, nil, logger)
	res, err := runner.Plan(ctx, pipeline.Options{
		Config: c.cfg,
		Candidates: []host.Drawable{{
			Handle: stack.Handle(opts.layer),
			Name:   opts.layer,
			Kind:   host.KindLayer,
		}},
		Profile: profile,
	})
	if err != nil {
		return err
	}

	if opts.json {
		return imageio.WritePlan(w, res.Source.Handle, res.Ops)
	}
	if res.Outcome == pipeline.OutcomeNoOp {
		printWarning("No sizes enabled; nothing to do")
		return nil
	}
	renderPlan(w, res.Source.Handle, res.Ops)
	return nil
}
