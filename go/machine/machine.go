package machine

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/models"
	"github.com/lunixbochs/amicorn/go/models/cpu"
)

// low memory map
const (
	// exec's base pointer lives at absolute address 4
	ExecBasePtr = 4
	// Run returns here; holds an ILLEGAL so a runaway return traps
	exitAddr = 0x400
	// one rts per trap; executing a slot calls its Go handler first
	trapBase = 0x800
	trapEnd  = 0x1000
	heapBase = 0x1000
)

// Machine is the guest side of a session: one m68k Cpu with flat RAM,
// a heap allocator and the nested-run context stack.
type Machine struct {
	Cpu   cpu.Cpu
	Arch  *models.Arch
	Alloc *Alloc

	ramSize   uint64
	stackSize uint64
	maxDepth  int
	trace     bool

	runs []*RunState
	// Run calls so far, nested or not
	started int

	traps   []*trap
	trapErr error
}

func New(c cpu.Cpu, config *models.Config) (*Machine, error) {
	if config.RamSize <= heapBase {
		return nil, errors.Errorf("ram size %#x too small", config.RamSize)
	}
	m := &Machine{
		Cpu:       c,
		Arch:      m68k.Arch,
		ramSize:   config.RamSize,
		stackSize: config.StackSize,
		maxDepth:  config.MaxRunDepth,
		trace:     config.TraceRuns,
	}
	if m.maxDepth <= 0 {
		m.maxDepth = models.DefaultMaxRunDepth
	}
	if m.stackSize == 0 {
		m.stackSize = models.DefaultStackSize
	}
	if err := c.MemMap(0, m.ramSize, cpu.PROT_ALL); err != nil {
		return nil, errors.Wrap(err, "mapping guest ram failed")
	}
	if err := m.W16(exitAddr, m68k.OpIllegal); err != nil {
		return nil, err
	}
	if err := m.initTraps(); err != nil {
		return nil, err
	}
	m.Alloc = NewAlloc(c, heapBase, m.ramSize-heapBase)
	return m, nil
}

func (m *Machine) RamSize() uint64 { return m.ramSize }

func (m *Machine) read(addr uint64, size int) (uint64, error) {
	var buf [4]byte
	if err := m.Cpu.MemReadInto(buf[:size], addr); err != nil {
		return 0, errors.Wrapf(err, "guest read of %d bytes at %#x failed", size, addr)
	}
	return cpu.UnpackUint(order, size, buf[:size])
}

func (m *Machine) write(addr uint64, size int, val uint64) error {
	var buf [4]byte
	p, err := cpu.PackUint(order, size, buf[:], val)
	if err != nil {
		return err
	}
	return errors.Wrapf(m.Cpu.MemWrite(addr, p), "guest write of %d bytes at %#x failed", size, addr)
}

func (m *Machine) R8(addr uint64) (uint8, error) {
	v, err := m.read(addr, 1)
	return uint8(v), err
}

func (m *Machine) R16(addr uint64) (uint16, error) {
	v, err := m.read(addr, 2)
	return uint16(v), err
}

func (m *Machine) R16S(addr uint64) (int16, error) {
	v, err := m.read(addr, 2)
	return int16(v), err
}

func (m *Machine) R32(addr uint64) (uint32, error) {
	v, err := m.read(addr, 4)
	return uint32(v), err
}

func (m *Machine) W8(addr uint64, v uint8) error   { return m.write(addr, 1, uint64(v)) }
func (m *Machine) W16(addr uint64, v uint16) error { return m.write(addr, 2, uint64(v)) }
func (m *Machine) W32(addr uint64, v uint32) error { return m.write(addr, 4, uint64(v)) }

// ReadStr reads a NUL-terminated guest string.
func (m *Machine) ReadStr(addr uint64) (string, error) {
	var out []byte
	var chunk [64]byte
	for addr < m.ramSize {
		n := uint64(len(chunk))
		if addr+n > m.ramSize {
			n = m.ramSize - addr
		}
		if err := m.Cpu.MemReadInto(chunk[:n], addr); err != nil {
			return "", errors.Wrapf(err, "reading string at %#x", addr)
		}
		for i := uint64(0); i < n; i++ {
			if chunk[i] == 0 {
				return string(append(out, chunk[:i]...)), nil
			}
		}
		out = append(out, chunk[:n]...)
		addr += n
	}
	return "", errors.Errorf("unterminated string at %#x", addr)
}

// WriteStr writes s plus a NUL terminator.
func (m *Machine) WriteStr(addr uint64, s string) error {
	return m.Cpu.MemWrite(addr, append([]byte(s), 0))
}

func (m *Machine) RegRead(enum int) (uint64, error) {
	val, err := m.Cpu.RegRead(enum)
	return val, errors.Wrap(err, "m.RegRead() failed")
}

func (m *Machine) RegWrite(enum int, val uint64) error {
	return errors.Wrap(m.Cpu.RegWrite(enum, val), "m.RegWrite() failed")
}

func (m *Machine) ReadRegs(enums []int) ([]uint64, error) {
	vals := make([]uint64, len(enums))
	for i, enum := range enums {
		val, err := m.RegRead(enum)
		if err != nil {
			return nil, err
		}
		vals[i] = val
	}
	return vals, nil
}

func (m *Machine) Close() error {
	return m.Cpu.Close()
}
