// Package files exposes the dos file manager operations as commands.
package files

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	amicorn "github.com/lunixbochs/amicorn/go"
	"github.com/lunixbochs/amicorn/go/cmd"
	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	"github.com/lunixbochs/amicorn/go/kernel/amiga/dos"
)

const chunkSize = 4096

// eachPath runs op on every argument, stopping at the first failure.
func eachPath(op string, fn func(fm *dos.FileManager, name string) amiga.ErrCode) func(*cobra.Command, []string) error {
	return func(c *cobra.Command, args []string) error {
		return cmd.WithSession(func(s *amicorn.Session) error {
			for _, name := range args {
				if err := cmd.Check(op, name, fn(s.Files, name)); err != nil {
					return err
				}
			}
			return nil
		})
	}
}

// Type copies a guest file to the session's output handle.
func Type(fm *dos.FileManager, name string) error {
	f := fm.Open(name, dos.ModeRead)
	if f == nil {
		return cmd.Check("type", name, amiga.ERROR_OBJECT_NOT_FOUND)
	}
	defer fm.Close(f)
	for {
		data, err := fm.Read(f, chunkSize)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return nil
		}
		if _, err := fm.Write(fm.Output(), data); err != nil {
			return err
		}
	}
}

var typeCmd = &cobra.Command{
	Use:   "type <file>...",
	Short: "print guest files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return cmd.WithSession(func(s *amicorn.Session) error {
			for _, name := range args {
				if err := Type(s.Files, name); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <path>...",
	Short: "delete guest files or empty directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  eachPath("delete", (*dos.FileManager).Delete),
}

var makedirCmd = &cobra.Command{
	Use:   "makedir <path>...",
	Short: "create guest directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  eachPath("makedir", (*dos.FileManager).CreateDir),
}

var renameCmd = &cobra.Command{
	Use:   "rename <from> <to>",
	Short: "rename a guest file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		return cmd.WithSession(func(s *amicorn.Session) error {
			return cmd.Check("rename", args[0], s.Files.Rename(args[0], args[1]))
		})
	},
}

var protectCmd = &cobra.Command{
	Use:   "protect <path> <flags>",
	Short: "set protection flags (granted letters from hsparwed, or a raw mask)",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		p, err := dos.ParseProtection(args[1])
		if err != nil {
			return err
		}
		return cmd.WithSession(func(s *amicorn.Session) error {
			if err := cmd.Check("protect", args[0], s.Files.SetProtection(args[0], uint32(p))); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s %s\n", p, args[0])
			return nil
		})
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists <path>",
	Short: "exit non-zero unless path is on a filesystem volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return cmd.WithSession(func(s *amicorn.Session) error {
			if !s.Files.IsFileSystem(args[0]) {
				return errors.Errorf("%s: not on a filesystem", args[0])
			}
			return nil
		})
	},
}

func init() {
	cmd.Register(typeCmd)
	cmd.Register(deleteCmd)
	cmd.Register(makedirCmd)
	cmd.Register(renameCmd)
	cmd.Register(protectCmd)
	cmd.Register(existsCmd)
}
