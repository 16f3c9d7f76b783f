package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/ico"
)

// inspectCommand creates the inspect command, which lists the entries of
// an .ico file.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "inspect <file.ico>",
		Short:             "List the images stored in an .ico file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles("ico"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				if os.IsNotExist(err) {
					return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
				}
				return err
			}
			defer f.Close()

			entries, err := ico.ReadDirectory(f)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("read directory", "path", path, "entries", len(entries))

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, StyleTitle.Render(path))
			renderEntries(w, entries)
			return nil
		},
	}
}
