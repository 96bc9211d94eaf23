package dos

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/machine"
)

type FileKind int

const (
	KindRegular FileKind = iota
	KindStdin
	KindStdout
	KindConsole
	KindNil
)

func (k FileKind) String() string {
	switch k {
	case KindStdin:
		return "stdin"
	case KindStdout:
		return "stdout"
	case KindConsole:
		return "console"
	case KindNil:
		return "nil"
	default:
		return "file"
	}
}

// hostStream is what every file kind is backed by. *os.File satisfies it.
type hostStream interface {
	io.ReadWriteSeeker
	io.Closer
	Fd() uintptr
}

// FileMode is a host open mode in fopen notation.
type FileMode string

const (
	ModeRead         FileMode = "r"
	ModeReadUpdate   FileMode = "r+"
	ModeWrite        FileMode = "w"
	ModeWriteUpdate  FileMode = "w+"
	ModeAppend       FileMode = "a"
	ModeAppendUpdate FileMode = "a+"
)

func (m FileMode) Update() bool {
	return strings.HasSuffix(string(m), "+")
}

// Downgrade drops the update flag.
func (m FileMode) Downgrade() FileMode {
	return FileMode(strings.TrimSuffix(string(m), "+"))
}

func (m FileMode) Flags() (int, error) {
	switch m {
	case ModeRead:
		return os.O_RDONLY, nil
	case ModeReadUpdate:
		return os.O_RDWR, nil
	case ModeWrite:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case ModeWriteUpdate:
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case ModeAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case ModeAppendUpdate:
		return os.O_RDWR | os.O_CREATE | os.O_APPEND, nil
	}
	return 0, errors.Errorf("invalid file mode %q", string(m))
}

// File is a guest file handle backed by a host stream. Its identity is the
// BPTR of the FileHandle struct allocated for it in guest memory.
type File struct {
	Kind    FileKind
	Name    string
	AmiPath string
	SysPath string
	BAddr   uint32

	stream    hostStream
	needClose bool
	block     *machine.StructBlock
}

func (f *File) String() string {
	var addr uint64
	if f.block != nil {
		addr = f.block.Addr
	}
	return fmt.Sprintf("[FH:'%s'(ami='%s',sys='%s',nc=%t)@%06x=B@%06x]",
		f.Name, f.AmiPath, f.SysPath, f.needClose, addr, f.BAddr)
}

// Addr is the guest address of the FileHandle struct.
func (f *File) Addr() uint64 {
	return uint64(f.BAddr) << 2
}

func (f *File) close() error {
	if !f.needClose {
		return nil
	}
	return f.stream.Close()
}

// InvalidHandleError is returned for a BPTR that names no open file.
type InvalidHandleError struct {
	BAddr uint32
}

func (e *InvalidHandleError) Error() string {
	return fmt.Sprintf("invalid file handle at b@%06x = %06x", e.BAddr, uint64(e.BAddr)<<2)
}

var ErrHandleMismatch = errors.New("file handle registry mismatch")
