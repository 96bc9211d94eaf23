package dos

import (
	"io"

	"go.uber.org/zap"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	co "github.com/lunixbochs/amicorn/go/kernel/common"
	"github.com/lunixbochs/amicorn/go/machine"
)

// Open() access modes
const (
	MODE_READWRITE = 1004
	MODE_OLDFILE   = 1005
	MODE_NEWFILE   = 1006
)

// Seek() modes
const (
	OFFSET_BEGINNING = -1
	OFFSET_CURRENT   = 0
	OFFSET_END       = 1
)

const (
	DOSFALSE = 0
	DOSTRUE  = -1
)

var LibDef = amiga.NewLibDef("dos.library", 40, []amiga.FuncDef{
	{Name: "Open", LVO: -30, Regs: []int{m68k.D1, m68k.D2}},
	{Name: "Close", LVO: -36, Regs: []int{m68k.D1}},
	{Name: "Read", LVO: -42, Regs: []int{m68k.D1, m68k.D2, m68k.D3}},
	{Name: "Write", LVO: -48, Regs: []int{m68k.D1, m68k.D2, m68k.D3}},
	{Name: "Input", LVO: -54},
	{Name: "Output", LVO: -60},
	{Name: "Seek", LVO: -66, Regs: []int{m68k.D1, m68k.D2, m68k.D3}},
	{Name: "DeleteFile", LVO: -72, Regs: []int{m68k.D1}},
	{Name: "Rename", LVO: -78, Regs: []int{m68k.D1, m68k.D2}},
	{Name: "CreateDir", LVO: -120, Regs: []int{m68k.D1}},
	{Name: "IoErr", LVO: -132},
	{Name: "SetProtection", LVO: -186, Regs: []int{m68k.D1, m68k.D2}},
	{Name: "IsInteractive", LVO: -216, Regs: []int{m68k.D1}},
	{Name: "FGetC", LVO: -306, Regs: []int{m68k.D1}},
	{Name: "FPutC", LVO: -312, Regs: []int{m68k.D1, m68k.D2}},
	{Name: "UnGetC", LVO: -318, Regs: []int{m68k.D1, m68k.D2}},
	{Name: "SetIoErr", LVO: -462, Regs: []int{m68k.D1}},
	{Name: "IsFileSystem", LVO: -708, Regs: []int{m68k.D1}},
})

// DosKernel implements the file subset of dos.library on a FileManager.
// Every call that can fail sets the IoErr() code.
type DosKernel struct {
	co.KernelBase
	Files *FileManager
	ioErr amiga.ErrCode
}

func NewKernel(files *FileManager) *DosKernel {
	return &DosKernel{Files: files}
}

func boolResult(code amiga.ErrCode) int32 {
	if code == amiga.NO_ERROR {
		return DOSTRUE
	}
	return DOSFALSE
}

func (k *DosKernel) setErr(code amiga.ErrCode) amiga.ErrCode {
	k.ioErr = code
	return code
}

func (k *DosKernel) file(fh co.BPTR) (*File, error) {
	return k.Files.GetByBAddr(uint32(fh))
}

func (k *DosKernel) Open(name string, accessMode co.Long) uint32 {
	var mode FileMode
	switch accessMode {
	case MODE_OLDFILE:
		mode = ModeReadUpdate
	case MODE_NEWFILE:
		mode = ModeWriteUpdate
	case MODE_READWRITE:
		mode = ModeWriteUpdate
		if k.Files.IsFileSystem(name) {
			mode = ModeReadUpdate
		}
	default:
		k.setErr(amiga.ERROR_OBJECT_WRONG_TYPE)
		return 0
	}
	f := k.Files.Open(name, mode)
	if f == nil {
		k.setErr(amiga.ERROR_OBJECT_NOT_FOUND)
		return 0
	}
	k.setErr(amiga.NO_ERROR)
	return f.BAddr
}

func (k *DosKernel) Close(fh co.BPTR) (int32, error) {
	f, err := k.file(fh)
	if err != nil {
		return DOSFALSE, err
	}
	if err := k.Files.Close(f); err != nil {
		return DOSFALSE, err
	}
	return DOSTRUE, nil
}

func (k *DosKernel) Read(fh co.BPTR, buf co.Obuf, length co.Len) (int32, error) {
	f, err := k.file(fh)
	if err != nil {
		return -1, err
	}
	// negative lengths are rejected; others are cut to the guest memory after buf
	if int32(length) < 0 {
		Logger().Info("bad read length", zap.String("op", "read"), zap.String("ami_path", f.AmiPath), zap.Int32("length", int32(length)))
		k.setErr(amiga.ERROR_BAD_NUMBER)
		return -1, nil
	}
	n := uint64(uint32(length))
	if room := buf.K.M.RamSize(); buf.Addr >= room {
		n = 0
	} else if n > room-buf.Addr {
		n = room - buf.Addr
	}
	data, err := k.Files.Read(f, int(n))
	if err != nil {
		Logger().Info("read failed", zap.String("op", "read"), zap.String("ami_path", f.AmiPath), zap.Error(err))
		k.setErr(amiga.ERROR_OBJECT_WRONG_TYPE)
		return -1, nil
	}
	if err := buf.Write(data); err != nil {
		return -1, err
	}
	return int32(len(data)), nil
}

func (k *DosKernel) Write(fh co.BPTR, buf co.Buf, length co.Len) (int32, error) {
	f, err := k.file(fh)
	if err != nil {
		return -1, err
	}
	data, err := buf.Read(uint64(length))
	if err != nil {
		return -1, err
	}
	n, err := k.Files.Write(f, data)
	return int32(n), err
}

func (k *DosKernel) Input() uint32 {
	return k.Files.Input().BAddr
}

func (k *DosKernel) Output() uint32 {
	return k.Files.Output().BAddr
}

// Seek returns the position before the move, or -1.
func (k *DosKernel) Seek(fh co.BPTR, pos co.Long, mode co.Long) (int32, error) {
	f, err := k.file(fh)
	if err != nil {
		return -1, err
	}
	var whence int
	switch mode {
	case OFFSET_BEGINNING:
		whence = io.SeekStart
	case OFFSET_CURRENT:
		whence = io.SeekCurrent
	case OFFSET_END:
		whence = io.SeekEnd
	default:
		k.setErr(amiga.ERROR_SEEK_ERROR)
		return -1, nil
	}
	old, err := k.Files.Tell(f)
	if err == nil {
		_, err = k.Files.Seek(f, int64(pos), whence)
	}
	if err != nil {
		Logger().Info("seek failed", zap.String("op", "seek"), zap.String("ami_path", f.AmiPath), zap.Error(err))
		k.setErr(amiga.ERROR_SEEK_ERROR)
		return -1, nil
	}
	return int32(old), nil
}

func (k *DosKernel) DeleteFile(name string) int32 {
	return boolResult(k.setErr(k.Files.Delete(name)))
}

func (k *DosKernel) Rename(oldName, newName string) int32 {
	return boolResult(k.setErr(k.Files.Rename(oldName, newName)))
}

// CreateDir succeeds with a non-zero result; locks are not handed out.
func (k *DosKernel) CreateDir(name string) int32 {
	return boolResult(k.setErr(k.Files.CreateDir(name)))
}

func (k *DosKernel) IoErr() int32 {
	return int32(k.ioErr)
}

func (k *DosKernel) SetIoErr(code co.Long) int32 {
	old := k.ioErr
	k.ioErr = amiga.ErrCode(code)
	return int32(old)
}

func (k *DosKernel) SetProtection(name string, mask uint32) int32 {
	return boolResult(k.setErr(k.Files.SetProtection(name, mask)))
}

func (k *DosKernel) IsInteractive(fh co.BPTR) (int32, error) {
	f, err := k.file(fh)
	if err != nil {
		return DOSFALSE, err
	}
	if k.Files.IsInteractive(f) {
		return DOSTRUE, nil
	}
	return DOSFALSE, nil
}

func (k *DosKernel) FGetC(fh co.BPTR) (int32, error) {
	f, err := k.file(fh)
	if err != nil {
		return -1, err
	}
	return int32(k.Files.GetC(f)), nil
}

func (k *DosKernel) FPutC(fh co.BPTR, ch uint32) (int32, error) {
	f, err := k.file(fh)
	if err != nil {
		return -1, err
	}
	if _, err := k.Files.Write(f, []byte{byte(ch)}); err != nil {
		return -1, err
	}
	return int32(ch & 0xff), nil
}

// UnGetC takes the raw long so that -1 arrives as 0xFFFFFFFF.
func (k *DosKernel) UnGetC(fh co.BPTR, ch uint32) (int32, error) {
	f, err := k.file(fh)
	if err != nil {
		return 0, err
	}
	return int32(k.Files.UngetC(f, int64(ch))), nil
}

func (k *DosKernel) IsFileSystem(name string) int32 {
	if k.Files.IsFileSystem(name) {
		return DOSTRUE
	}
	return DOSFALSE
}

// Dispatch runs the dos.library function at lvo with arguments from m's registers.
func (k *DosKernel) Dispatch(m *machine.Machine, lvo int) error {
	return amiga.Dispatch(m, LibDef, k, lvo)
}
