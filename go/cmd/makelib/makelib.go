// Package makelib builds a library from a raw code image with exec's
// MakeLibrary and prints the resulting jump table.
package makelib

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mgutz/ansi"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	amicorn "github.com/lunixbochs/amicorn/go"
	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/cmd"
	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	"github.com/lunixbochs/amicorn/go/machine"
)

var (
	colorLVO    = ansi.ColorFunc("cyan")
	colorTarget = ansi.ColorFunc("yellow")
	colorBad    = ansi.ColorFunc("red+b")
)

// DumpLibrary prints the library header at base and one line per vector.
func DumpLibrary(w io.Writer, m *machine.Machine, base uint32, color bool) error {
	paint := func(f func(string) string, s string) string {
		if color {
			return f(s)
		}
		return s
	}
	var lib amiga.Library
	if err := machine.NewAccess(m.Cpu, uint64(base), amiga.LibraryDef).Unpack(&lib); err != nil {
		return err
	}
	name := "<unnamed>"
	if lib.Name != 0 {
		if s, err := m.ReadStr(uint64(lib.Name)); err == nil {
			name = s
		}
	}
	fmt.Fprintf(w, "%s base=%#08x version=%d neg_size=%d pos_size=%d\n", name, base, lib.Version, lib.NegSize, lib.PosSize)
	for lvo := -6; -lvo <= int(lib.NegSize); lvo -= 6 {
		addr := uint64(int64(base) + int64(lvo))
		op, err := m.R16(addr)
		if err != nil {
			return err
		}
		if op != m68k.OpJmpAbsL {
			fmt.Fprintf(w, "%5s  %s\n", paint(colorLVO, fmt.Sprint(lvo)), paint(colorBad, fmt.Sprintf("?? %04x", op)))
			continue
		}
		target, err := m.R32(addr + 2)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%5s  jmp %s\n", paint(colorLVO, fmt.Sprint(lvo)), paint(colorTarget, fmt.Sprintf("$%08x", target)))
	}
	return nil
}

var opts struct {
	vectors    uint32
	initStruct int64
	initFunc   int64
	posSize    uint32
	label      string
}

var makelibCmd = &cobra.Command{
	Use:   "makelib <code image>",
	Short: "run MakeLibrary on a raw m68k code image",
	Long: "Loads the image into guest memory and calls exec MakeLibrary with the given\n" +
		"offsets into it. --init runs the init routine on the emulated CPU.",
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		code, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "reading code image")
		}
		label := opts.label
		if label == "" {
			label = filepath.Base(args[0])
		}
		return cmd.WithSession(func(s *amicorn.Session) error {
			base, _, err := s.MakeLibrary(code, opts.vectors, opts.initStruct, opts.initFunc, opts.posSize, label)
			if err != nil {
				return err
			}
			color := false
			if f, ok := c.OutOrStdout().(*os.File); ok {
				color = term.IsTerminal(int(f.Fd()))
			}
			return DumpLibrary(c.OutOrStdout(), s.M, base, color)
		})
	},
}

func init() {
	fs := makelibCmd.Flags()
	fs.Uint32Var(&opts.vectors, "vectors", 0, "offset of the vector table")
	fs.Int64Var(&opts.initStruct, "struct", -1, "offset of the InitStruct table (-1 for none)")
	fs.Int64Var(&opts.initFunc, "init", -1, "offset of the init routine (-1 for none)")
	fs.Uint32Var(&opts.posSize, "pos-size", uint32(amiga.LibraryDef.Size), "positive size of the library base")
	fs.StringVar(&opts.label, "label", "", "allocation label (default: file name)")
	cmd.Register(makelibCmd)
}
