package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var root = &cobra.Command{
	Use:   "amicorn",
	Short: "AmigaOS dos/exec library emulation over the host filesystem",
	Example: "  amicorn --volume work:/tmp/work type work:readme\n" +
		"  amicorn makelib --vectors 0 --init 0x40 lib.bin",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Register adds a subcommand. Subcommand packages call it from init().
func Register(c *cobra.Command) {
	root.AddCommand(c)
}

func Main() {
	if err := root.Execute(); err != nil {
		PrintError(err)
		os.Exit(1)
	}
}
