// Package vol prints volume mappings and guest to host path translations.
package vol

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lunixbochs/amicorn/go/cmd"
	"github.com/lunixbochs/amicorn/go/kernel/amiga/path"
)

func translator() (*path.Translator, error) {
	config := cmd.Config()
	return path.New(config.Volumes, config.Cwd)
}

// PrintVolumes writes one "name: -> dir" line per volume, then the current dir.
func PrintVolumes(w io.Writer, t *path.Translator) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	for _, name := range t.Volumes() {
		dir, _ := t.VolumePath(name)
		fmt.Fprintf(tw, "%s:\t-> %s\n", name, dir)
	}
	fmt.Fprintf(tw, "cwd\t   %s\n", t.Cwd())
	return tw.Flush()
}

// PrintPaths writes "ami -> host" for each guest path, failing on the first
// one that does not resolve.
func PrintPaths(w io.Writer, t *path.Translator, names []string) error {
	for _, name := range names {
		sys, ok := t.AmiToSysPath(name)
		if !ok {
			return errors.Errorf("%s: no host path", name)
		}
		fmt.Fprintf(w, "%s -> %s\n", name, sys)
	}
	return nil
}

var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "list volume mappings",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		t, err := translator()
		if err != nil {
			return err
		}
		return PrintVolumes(c.OutOrStdout(), t)
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <ami path>...",
	Short: "translate guest paths to host paths",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		t, err := translator()
		if err != nil {
			return err
		}
		return PrintPaths(c.OutOrStdout(), t, args)
	},
}

func init() {
	cmd.Register(volumesCmd)
	cmd.Register(pathCmd)
}
