//go:build !unix

package dos

import (
	"os"

	"golang.org/x/term"
)

func currentUmask() os.FileMode {
	return 0
}

func hostWritable(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().Perm()&0200 != 0
}

// no per-fd terminal lookup here: any terminal on the standard streams counts
func isTerminal(_ uintptr, stdin, stdout *os.File) bool {
	return term.IsTerminal(int(stdin.Fd())) || term.IsTerminal(int(stdout.Fd()))
}
