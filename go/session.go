// Package amicorn wires a guest CPU, the machine and the emulated
// libraries into one session.
package amicorn

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	"github.com/lunixbochs/amicorn/go/kernel/amiga/dos"
	"github.com/lunixbochs/amicorn/go/kernel/amiga/exec"
	"github.com/lunixbochs/amicorn/go/kernel/amiga/path"
	"github.com/lunixbochs/amicorn/go/machine"
	"github.com/lunixbochs/amicorn/go/models"
	"github.com/lunixbochs/amicorn/go/models/cpu"
)

// size of struct MsgPort
const msgPortSize = 34

// Session is the state of one emulated guest: nothing is kept in globals.
type Session struct {
	Config *models.Config
	M      *machine.Machine
	Paths  *path.Translator
	Files  *dos.FileManager
	Dos    *dos.DosKernel
	Exec   *exec.ExecKernel

	ExecBase uint32
	DosBase  uint32

	blocks []*machine.Block
}

// NewSession maps guest memory, builds exec.library and dos.library
// images whose vectors trap into Go, and opens the standard streams.
func NewSession(config *models.Config, builder cpu.Builder) (*Session, error) {
	c, err := builder.New()
	if err != nil {
		return nil, err
	}
	m, err := machine.New(c, config)
	if err != nil {
		c.Close()
		return nil, err
	}
	s := &Session{Config: config, M: m}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) init() error {
	paths, err := path.New(s.Config.Volumes, s.Config.Cwd)
	if err != nil {
		return err
	}
	s.Paths = paths
	s.Files = dos.NewFileManager(paths, s.M.Alloc)
	s.Dos = dos.NewKernel(s.Files)
	s.Exec = exec.NewKernel(s.M)

	s.ExecBase, err = s.makeLib(exec.LibDef, s.Exec.Dispatch)
	if err != nil {
		return err
	}
	if err := s.M.W32(machine.ExecBasePtr, s.ExecBase); err != nil {
		return err
	}
	s.DosBase, err = s.makeLib(dos.LibDef, s.Dos.Dispatch)
	if err != nil {
		return err
	}
	port, err := s.M.Alloc.AllocMemory("FSHandlerPort", msgPortSize)
	if err != nil {
		return err
	}
	s.blocks = append(s.blocks, port)
	if err := s.Files.Setup(uint32(port.Addr)); err != nil {
		return errors.Wrap(err, "file manager setup failed")
	}
	return nil
}

func (s *Session) makeLib(def *amiga.LibDef, dispatch exec.Dispatcher) (uint32, error) {
	base, block, err := s.Exec.Lib.MakeTrapLibrary(def, dispatch)
	if err != nil {
		return 0, errors.Wrapf(err, "building %s", def.Name)
	}
	s.blocks = append(s.blocks, block)
	machine.Logger().Info("library ready", zap.String("name", def.Name), zap.Uint32("base", base))
	return base, nil
}

// MakeLibrary loads code into guest memory and runs exec's MakeLibrary on
// it. vectors, initStruct and initFunc are offsets into code; a negative
// initStruct or initFunc means none.
func (s *Session) MakeLibrary(code []byte, vectors uint32, initStruct, initFunc int64, posSize uint32, label string) (uint32, *machine.Block, error) {
	seg, err := s.M.Alloc.AllocMemory("segment:"+label, uint64(len(code)))
	if err != nil {
		return 0, nil, err
	}
	s.blocks = append(s.blocks, seg)
	if err := s.M.Cpu.MemWrite(seg.Addr, code); err != nil {
		return 0, nil, err
	}
	rel := func(off int64) uint32 {
		if off < 0 {
			return 0
		}
		return uint32(seg.Addr) + uint32(off)
	}
	base, block, err := s.Exec.Lib.MakeLibrary(rel(int64(vectors)), rel(initStruct), rel(initFunc), posSize, seg.BAddr(), label, 0)
	if err != nil {
		return 0, nil, err
	}
	s.blocks = append(s.blocks, block)
	return base, block, nil
}

// Close releases the standard streams and every guest block the session owns.
func (s *Session) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if s.Files != nil {
		keep(s.Files.Finish())
	}
	for i := len(s.blocks) - 1; i >= 0; i-- {
		keep(s.M.Alloc.FreeMemory(s.blocks[i]))
	}
	s.blocks = nil
	keep(s.M.Close())
	return first
}

// SetLogger installs l into every package logger.
func SetLogger(l *zap.Logger) {
	machine.SetLogger(l)
	amiga.SetLogger(l)
	dos.SetLogger(l)
	exec.SetLogger(l)
}
