package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/iconstack/pkg/host"
	"github.com/matzehuels/iconstack/pkg/host/memory"
	"github.com/matzehuels/iconstack/pkg/imageio"
	"github.com/matzehuels/iconstack/pkg/pipeline"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	selectionFlags
	output      string // .ico path, defaults to the input path with .ico
	layersDir   string // when set, every layer is also written as PNG
	interactive bool   // choose sizes in the terminal form
	noCache     bool   // disable the icon cache
	refresh     bool   // re-encode even when cached
}

// generateCommand creates the generate command. It loads an image as the
// single layer of an in-memory document, builds the layer stack and writes
// it as an .ico.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:               "generate <image>",
		Short:             "Build the icon layer stack for an image and export it",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(sourceExtensions...),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output .ico file")
	cmd.Flags().StringVar(&opts.layersDir, "layers-dir", "", "also write every layer as PNG into this directory")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "choose sizes interactively")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-encode even when a cached icon exists")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, path string, opts generateOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	src, format, err := imageio.Open(path)
	if err != nil {
		return err
	}
	prog.step("decoded source", "path", path, "format", format, "bounds", src.Bounds())

	store := memory.NewStore()
	id := store.AddImage(filepath.Base(path))
	h, err := store.AddLayer(id, defaultLayerName, src)
	if err != nil {
		return err
	}
	base, err := store.Drawable(h)
	if err != nil {
		return err
	}

	profile, err := opts.toProfile(c.cfg)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(store, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Config:     c.cfg,
		Image:      id,
		Candidates: []host.Drawable{base},
		Profile:    profile,
		Export:     true,
		Refresh:    opts.refresh,
		Logger:     logger,
	}
	if opts.interactive {
		popts.Interactive = true
		popts.Prompter = newFormPrompter(os.Stdin, os.Stderr)
	}

	res, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}
	prog.step("built stack", "outcome", res.Outcome, "layers", len(res.Created))
	switch res.Outcome {
	case pipeline.OutcomeCancelled:
		printWarning("Cancelled; no layers created")
		return nil
	case pipeline.OutcomeNoOp:
		printWarning("No sizes enabled; nothing to do")
		return nil
	}

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".ico"
	}
	if err := os.WriteFile(output, res.Icon, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	var written []string
	if opts.layersDir != "" {
		if written, err = writeLayers(store, id, opts.layersDir); err != nil {
			return err
		}
	}

	prog.done(fmt.Sprintf("Generated %d layers", len(res.Created)))
	printSuccess("Wrote %s", output)
	for _, p := range written {
		printFile(p)
	}
	printStats(stack.Sizes(res.Ops), res.CacheInfo.IconHit)
	return nil
}

// writeLayers writes every layer of image, top to bottom, as PNG into dir.
func writeLayers(store *memory.Store, id host.ImageID, dir string) ([]string, error) {
	layers, err := store.Layers(id)
	if err != nil {
		return nil, err
	}
	named := make([]imageio.NamedImage, len(layers))
	for i, l := range layers {
		px, err := store.Pixels(l.Handle)
		if err != nil {
			return nil, err
		}
		named[i] = imageio.NamedImage{Name: l.Name, Image: px}
	}
	return imageio.WriteLayers(dir, named)
}
