//go:build unix

package dos

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

func currentUmask() os.FileMode {
	old := unix.Umask(0)
	unix.Umask(old)
	return os.FileMode(old)
}

func hostWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

func isTerminal(fd uintptr, _, _ *os.File) bool {
	return isatty.IsTerminal(fd)
}
