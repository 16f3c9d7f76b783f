package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/iconstack/pkg/config"
	"github.com/matzehuels/iconstack/pkg/errors"
)

// profileCommand creates the profile management command.
func (c *CLI) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage size profiles",
		Long: `Size profiles save a slot selection so generate and plan can run without
the interactive form. Slots a profile leaves out fall back to their
default size, enabled.`,
	}

	cmd.AddCommand(c.profileInitCommand())
	cmd.AddCommand(c.profileShowCommand())

	return cmd
}

// profileInitCommand creates the "profile init" subcommand.
func (c *CLI) profileInitCommand() *cobra.Command {
	var name string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a profile holding the default selection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := profilePath(args)
			if err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return errors.New(errors.ErrCodeInvalidPath, "%s exists (use --force to overwrite)", path)
				}
			}
			p := config.ProfileFromSelections(name, c.cfg.DefaultSelections())
			if err := config.SaveProfile(path, p); err != nil {
				return err
			}
			printSuccess("Wrote profile %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "default", "profile name")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

// profileShowCommand creates the "profile show" subcommand.
func (c *CLI) profileShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [path]",
		Short: "Show the selection a profile resolves to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := profilePath(args)
			if err != nil {
				return err
			}
			return c.runProfileShow(cmd.Context(), cmd.OutOrStdout(), path)
		},
	}
}

func (c *CLI) runProfileShow(ctx context.Context, w io.Writer, path string) error {
	p, err := config.LoadProfile(path)
	if err != nil {
		return err
	}
	sel, err := p.Resolve(c.cfg)
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("resolved profile", "path", path, "slots", len(p.Slots))

	fmt.Fprintln(w, StyleTitle.Render(p.Name))
	renderSelections(w, c.cfg, sel)
	return nil
}

// profilePath returns args[0] or the default profile location.
func profilePath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "profile.toml"), nil
}
