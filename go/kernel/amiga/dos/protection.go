package dos

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FIBF protection bits. The low four deny when set; the rest grant when set.
const (
	FIBF_DELETE  = 1 << 0
	FIBF_EXECUTE = 1 << 1
	FIBF_WRITE   = 1 << 2
	FIBF_READ    = 1 << 3
	FIBF_ARCHIVE = 1 << 4
	FIBF_PURE    = 1 << 5
	FIBF_SCRIPT  = 1 << 6
	FIBF_HOLD    = 1 << 7
)

type Protection uint32

func (p Protection) Deletable() bool  { return p&FIBF_DELETE == 0 }
func (p Protection) Executable() bool { return p&FIBF_EXECUTE == 0 }
func (p Protection) Writable() bool   { return p&FIBF_WRITE == 0 }
func (p Protection) Readable() bool   { return p&FIBF_READ == 0 }
func (p Protection) Archived() bool   { return p&FIBF_ARCHIVE != 0 }
func (p Protection) Pure() bool       { return p&FIBF_PURE != 0 }
func (p Protection) Script() bool     { return p&FIBF_SCRIPT != 0 }
func (p Protection) Hold() bool       { return p&FIBF_HOLD != 0 }

// String renders the flags the way the List command does, e.g. "----rwed".
func (p Protection) String() string {
	flags := []struct {
		c  byte
		on bool
	}{
		{'h', p.Hold()}, {'s', p.Script()}, {'p', p.Pure()}, {'a', p.Archived()},
		{'r', p.Readable()}, {'w', p.Writable()}, {'e', p.Executable()}, {'d', p.Deletable()},
	}
	out := make([]byte, len(flags))
	for i, f := range flags {
		out[i] = '-'
		if f.on {
			out[i] = f.c
		}
	}
	return string(out)
}

// PosixMode replicates read/write/execute to user, group and other.
func (p Protection) PosixMode() os.FileMode {
	var mode os.FileMode
	if p.Readable() {
		mode |= 0444
	}
	if p.Writable() {
		mode |= 0222
	}
	if p.Executable() {
		mode |= 0111
	}
	return mode
}

// ProtectionFromPosix derives guest flags from the owner bits of a host mode.
func ProtectionFromPosix(mode os.FileMode) Protection {
	p := Protection(FIBF_READ | FIBF_WRITE | FIBF_EXECUTE)
	if mode&0400 != 0 {
		p &^= FIBF_READ
	}
	if mode&0200 != 0 {
		p &^= FIBF_WRITE
	}
	if mode&0100 != 0 {
		p &^= FIBF_EXECUTE
	}
	return p
}

// ParseProtection accepts either a raw mask ("0x0f", "15") or the flags
// granted, in any order: "rwed", "----rw-d", "sparwed".
func ParseProtection(s string) (Protection, error) {
	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return Protection(v), nil
	}
	p := Protection(FIBF_READ | FIBF_WRITE | FIBF_EXECUTE | FIBF_DELETE)
	for _, c := range strings.ToLower(s) {
		switch c {
		case '-':
		case 'r':
			p &^= FIBF_READ
		case 'w':
			p &^= FIBF_WRITE
		case 'e':
			p &^= FIBF_EXECUTE
		case 'd':
			p &^= FIBF_DELETE
		case 'a':
			p |= FIBF_ARCHIVE
		case 'p':
			p |= FIBF_PURE
		case 's':
			p |= FIBF_SCRIPT
		case 'h':
			p |= FIBF_HOLD
		default:
			return 0, errors.Errorf("bad protection flag %q in %q", c, s)
		}
	}
	return p, nil
}
