package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Mem wraps MemSim to give a Cpu implementation its memory model.
type Mem struct {
	bits uint
	// addresses above mask are rejected, see NewMem
	mask  uint64
	order binary.ByteOrder
	// set when passing *Mem to NewHooks()
	hooks *Hooks
	sim   *MemSim
}

func NewMem(bits uint, order binary.ByteOrder) *Mem {
	return &Mem{
		bits:  bits,
		mask:  ^uint64(0) >> (64 - bits),
		order: order,
		sim:   &MemSim{},
	}
}

func (m *Mem) Order() binary.ByteOrder { return m.order }

func (m *Mem) Mappings() Pages { return m.sim.Mem }

func (m *Mem) MemMap(addr, size uint64, prot int) error {
	if size == 0 || (addr+size-1)&m.mask != addr+size-1 {
		return errors.Errorf("region %#x+%#x outside memory range", addr, size)
	}
	m.sim.Map(addr, size, prot, "")
	return nil
}

func (m *Mem) MemUnmap(addr, size uint64) error {
	if mapped, _ := m.sim.RangeValid(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.sim.Unmap(addr, size)
	return nil
}

func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	return m.sim.Read(addr, p, 0)
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	return m.sim.Write(addr, p, 0)
}

// ReadUint reads with protection checks and fires memory hooks.
// This exists to support a CPU interpreter.
func (m *Mem) ReadUint(addr uint64, size, prot int) (uint64, error) {
	p := make([]byte, size)
	if err := m.sim.Read(addr, p, prot); err != nil {
		return 0, err
	}
	if m.hooks != nil {
		access := MEM_READ
		if prot&PROT_EXEC != 0 {
			access = MEM_FETCH
		}
		m.hooks.OnMem(access, addr, size, 0)
	}
	return UnpackUint(m.order, size, p)
}

// WriteUint is ReadUint's counterpart; write hooks only fire here.
func (m *Mem) WriteUint(addr uint64, size, prot int, val uint64) error {
	var buf [8]byte
	p, err := PackUint(m.order, size, buf[:], val)
	if err != nil {
		return err
	}
	if err := m.sim.Write(addr, p, prot); err != nil {
		return err
	}
	if m.hooks != nil {
		m.hooks.OnMem(MEM_WRITE, addr, size, int64(val))
	}
	return nil
}
