package dos

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	"github.com/lunixbochs/amicorn/go/kernel/amiga/path"
	"github.com/lunixbochs/amicorn/go/machine"
)

// FileManager owns every open guest file handle of a session, plus the
// character pushback shared by FGetC/UnGetC.
type FileManager struct {
	// host standard streams; replace before Setup to redirect
	Stdin  *os.File
	Stdout *os.File

	paths *path.Translator
	alloc *machine.Alloc
	port  uint32
	umask os.FileMode

	files    map[uint32]*File
	pushback []byte
	lastChar int

	stdin, stdout *File
}

// NewFileManager reads the host umask once; call Setup before use.
func NewFileManager(paths *path.Translator, alloc *machine.Alloc) *FileManager {
	return &FileManager{
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		paths:    paths,
		alloc:    alloc,
		umask:    currentUmask(),
		files:    make(map[uint32]*File),
		lastChar: -1,
	}
}

// Setup registers the standard streams. Call it once, before any Open.
func (fm *FileManager) Setup(fsHandlerPort uint32) error {
	if fm.stdin != nil {
		return errors.New("file manager already set up")
	}
	fm.port = fsHandlerPort
	stdin := &File{Kind: KindStdin, AmiPath: "<STDIN>", stream: fm.Stdin}
	stdout := &File{Kind: KindStdout, AmiPath: "<STDOUT>", stream: fm.Stdout}
	if err := fm.register(stdin); err != nil {
		return err
	}
	if err := fm.register(stdout); err != nil {
		if uerr := fm.unregister(stdin); uerr != nil {
			Logger().Error("unregister stdin failed", zap.String("op", "setup"), zap.Error(uerr))
		}
		return err
	}
	fm.stdin, fm.stdout = stdin, stdout
	return nil
}

// Finish unregisters and frees the standard streams.
func (fm *FileManager) Finish() error {
	if fm.stdin == nil {
		return nil
	}
	err1 := fm.unregister(fm.stdin)
	err2 := fm.unregister(fm.stdout)
	fm.stdin, fm.stdout = nil, nil
	if err1 != nil {
		return err1
	}
	return err2
}

func (fm *FileManager) FSHandlerPort() uint32 { return fm.port }
func (fm *FileManager) Input() *File          { return fm.stdin }
func (fm *FileManager) Output() *File         { return fm.stdout }

// Files returns the number of registered handles, standard streams included.
func (fm *FileManager) Files() int { return len(fm.files) }

func (fm *FileManager) register(f *File) error {
	sb, err := fm.alloc.AllocStruct("File:"+f.Name, amiga.FileHandleDef)
	if err != nil {
		return err
	}
	f.block = sb
	f.BAddr = sb.BAddr()
	// the handle's own BPTR identifies it to the handler
	if err := sb.Access.WriteField("fh_Args", uint64(f.BAddr)); err != nil {
		fm.alloc.FreeStruct(sb)
		return err
	}
	if err := sb.Access.WriteField("fh_Type", uint64(fm.port)); err != nil {
		fm.alloc.FreeStruct(sb)
		return err
	}
	fm.files[f.BAddr] = f
	Logger().Info("registered", zap.Stringer("fh", f))
	return nil
}

func (fm *FileManager) unregister(f *File) error {
	if check, ok := fm.files[f.BAddr]; !ok || check != f {
		return errors.Wrapf(ErrHandleMismatch, "unregister %s", f)
	}
	delete(fm.files, f.BAddr)
	Logger().Info("unregistered", zap.Stringer("fh", f))
	return fm.alloc.FreeStruct(f.block)
}

// Open returns nil when the file cannot be opened; the reason is logged.
func (fm *FileManager) Open(amiPath string, mode FileMode) *File {
	log := Logger().With(zap.String("op", "open"), zap.String("ami_path", amiPath), zap.String("mode", string(mode)))
	var f *File
	switch upper := strings.ToUpper(amiPath); upper {
	case "NIL:":
		flags, err := mode.Flags()
		if err != nil {
			log.Info("bad mode", zap.Error(err))
			return nil
		}
		stream, err := os.OpenFile(os.DevNull, flags, 0666)
		if err != nil {
			log.Info("error opening", zap.String("sys_path", os.DevNull), zap.Error(err))
			return nil
		}
		f = &File{Kind: KindNil, Name: filepath.Base(os.DevNull), AmiPath: amiPath, SysPath: os.DevNull, stream: stream, needClose: true}
	case "*", "CONSOLE:":
		f = &File{Kind: KindConsole, AmiPath: "*", stream: fm.Stdout}
	default:
		sysPath, ok := fm.paths.AmiToSysPath(amiPath)
		if !ok {
			log.Info("file not found")
			return nil
		}
		log = log.With(zap.String("sys_path", sysPath))
		if _, err := os.Stat(sysPath); err == nil && !hostWritable(sysPath) && mode.Update() {
			mode = mode.Downgrade()
		}
		flags, err := mode.Flags()
		if err != nil {
			log.Info("bad mode", zap.Error(err))
			return nil
		}
		log.Debug("opening file", zap.String("host_mode", string(mode)))
		stream, err := os.OpenFile(sysPath, flags, 0666)
		if err != nil {
			log.Info("error opening", zap.Error(err))
			return nil
		}
		f = &File{Kind: KindRegular, Name: filepath.Base(sysPath), AmiPath: amiPath, SysPath: sysPath, stream: stream, needClose: true}
	}
	if err := fm.register(f); err != nil {
		log.Error("register failed", zap.Error(err))
		f.close()
		return nil
	}
	return f
}

// Close releases the host stream if the handle owns it, then frees the handle.
func (fm *FileManager) Close(f *File) error {
	if err := f.close(); err != nil {
		Logger().Info("error closing", zap.String("op", "close"), zap.String("ami_path", f.AmiPath), zap.String("sys_path", f.SysPath), zap.Error(err))
	}
	return fm.unregister(f)
}

// GetByBAddr looks up an open handle by its BPTR.
func (fm *FileManager) GetByBAddr(baddr uint32) (*File, error) {
	if f, ok := fm.files[baddr]; ok {
		return f, nil
	}
	return nil, &InvalidHandleError{BAddr: baddr}
}

// Write writes all of p or fails.
func (fm *FileManager) Write(f *File, p []byte) (int, error) {
	n, err := f.stream.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return n, errors.Wrapf(err, "write to %s", f)
	}
	return n, nil
}

// Read returns up to n bytes; fewer only at end of stream. Terminal-backed
// handles return whatever a single read delivers.
func (fm *FileManager) Read(f *File, n int) ([]byte, error) {
	buf := make([]byte, n)
	var got int
	var err error
	switch f.Kind {
	case KindStdin, KindConsole:
		got, err = f.stream.Read(buf)
	default:
		got, err = io.ReadFull(f.stream, buf)
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return buf[:got], errors.Wrapf(err, "read from %s", f)
}

// GetC returns the next character, or -1 at end of stream.
func (fm *FileManager) GetC(f *File) int {
	if len(fm.pushback) > 0 {
		fm.lastChar = int(fm.pushback[0])
		fm.pushback = fm.pushback[1:]
		return fm.lastChar
	}
	var b [1]byte
	if n, _ := f.stream.Read(b[:]); n == 1 {
		fm.lastChar = int(b[0])
	} else {
		fm.lastChar = -1
	}
	return fm.lastChar
}

// UngetC pushes val back. A negative val (0xFFFFFFFF from a guest long)
// repeats the last character read, once.
func (fm *FileManager) UngetC(f *File, val int64) int64 {
	if val == 0xffffffff {
		val = -1
	}
	if val < 0 && fm.lastChar >= 0 {
		val = int64(fm.lastChar)
		fm.lastChar = -1
	}
	if val >= 0 {
		fm.pushback = append([]byte{byte(val)}, fm.pushback...)
	}
	return val
}

func (fm *FileManager) UngetS(f *File, s string) {
	fm.pushback = append(fm.pushback, s...)
}

// Tell is the current stream position.
func (fm *FileManager) Tell(f *File) (int64, error) {
	return fm.Seek(f, 0, io.SeekCurrent)
}

// Seek moves the host stream and returns the new position.
func (fm *FileManager) Seek(f *File, off int64, whence int) (int64, error) {
	pos, err := f.stream.Seek(off, whence)
	return pos, errors.Wrapf(err, "seek on %s", f)
}

func (fm *FileManager) Delete(amiPath string) amiga.ErrCode {
	log := Logger().With(zap.String("op", "delete"), zap.String("ami_path", amiPath))
	sysPath, ok := fm.paths.AmiToSysPath(amiPath)
	if !ok {
		log.Info("file to delete not found")
		return amiga.ERROR_OBJECT_NOT_FOUND
	}
	log = log.With(zap.String("sys_path", sysPath))
	if _, err := os.Lstat(sysPath); err != nil {
		log.Info("file to delete not found")
		return amiga.ERROR_OBJECT_NOT_FOUND
	}
	if err := os.Remove(sysPath); err != nil {
		// rmdir may report a non-empty directory as EEXIST
		if errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST) {
			log.Info("can't delete directory: not empty")
			return amiga.ERROR_DIRECTORY_NOT_EMPTY
		}
		log.Info("can't delete", zap.Error(err))
		return amiga.ERROR_OBJECT_IN_USE
	}
	return amiga.NO_ERROR
}

func (fm *FileManager) Rename(oldPath, newPath string) amiga.ErrCode {
	log := Logger().With(zap.String("op", "rename"), zap.String("ami_path", oldPath), zap.String("new_ami_path", newPath))
	oldSys, ok := fm.paths.AmiToSysPath(oldPath)
	if !ok {
		log.Info("old file to rename not found")
		return amiga.ERROR_OBJECT_NOT_FOUND
	}
	if _, err := os.Lstat(oldSys); err != nil {
		log.Info("old file to rename not found", zap.String("sys_path", oldSys))
		return amiga.ERROR_OBJECT_NOT_FOUND
	}
	newSys, ok := fm.paths.AmiToSysPath(newPath)
	if !ok {
		log.Info("new file to rename not found")
		return amiga.ERROR_OBJECT_NOT_FOUND
	}
	if err := os.Rename(oldSys, newSys); err != nil {
		log.Info("can't rename", zap.String("sys_path", oldSys), zap.Error(err))
		return amiga.ERROR_OBJECT_IN_USE
	}
	return amiga.NO_ERROR
}

func (fm *FileManager) IsInteractive(f *File) bool {
	return isTerminal(f.stream.Fd(), fm.Stdin, fm.Stdout)
}

func (fm *FileManager) IsFileSystem(amiPath string) bool {
	sysPath, ok := fm.paths.AmiToSysPath(amiPath)
	if !ok {
		return false
	}
	_, err := os.Stat(sysPath)
	return err == nil
}

func (fm *FileManager) SetProtection(amiPath string, mask uint32) amiga.ErrCode {
	log := Logger().With(zap.String("op", "set_protection"), zap.String("ami_path", amiPath))
	sysPath, ok := fm.paths.AmiToSysPath(amiPath)
	if !ok {
		log.Info("file to set protection not found")
		return amiga.ERROR_OBJECT_NOT_FOUND
	}
	if _, err := os.Stat(sysPath); err != nil {
		log.Info("file to set protection not found", zap.String("sys_path", sysPath))
		return amiga.ERROR_OBJECT_NOT_FOUND
	}
	prot := Protection(mask)
	mode := prot.PosixMode() &^ fm.umask
	log.Info("set protection", zap.String("sys_path", sysPath), zap.Stringer("prot", prot), zap.Stringer("posix_mode", mode))
	if err := os.Chmod(sysPath, mode); err != nil {
		log.Info("chmod failed", zap.Error(err))
		return amiga.ERROR_OBJECT_WRONG_TYPE
	}
	return amiga.NO_ERROR
}

func (fm *FileManager) CreateDir(amiPath string) amiga.ErrCode {
	log := Logger().With(zap.String("op", "create_dir"), zap.String("ami_path", amiPath))
	sysPath, ok := fm.paths.AmiToSysPath(amiPath)
	if !ok {
		log.Info("dir to create not found")
		return amiga.ERROR_OBJECT_NOT_FOUND
	}
	if err := os.Mkdir(sysPath, 0777); err != nil {
		log.Info("can't create dir", zap.String("sys_path", sysPath), zap.Error(err))
		return amiga.ERROR_OBJECT_EXISTS
	}
	return amiga.NO_ERROR
}
