package mock

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/models/cpu"
)

// Cpu is a pure-Go m68k stand-in. It has real memory and registers but
// no instruction decoder: Start hands control to OnStart, which plays the
// part of the guest code being called.
type Cpu struct {
	*cpu.Regs
	*cpu.Mem
	*cpu.Hooks

	OnStart func(c *Cpu, begin, until uint64) error
	// every Start call, outermost first
	Calls []uint64
	stop  bool
}

func NewCpu() *Cpu {
	c := &Cpu{
		Regs: cpu.NewRegs(32, m68k.Arch.Enums()),
		Mem:  cpu.NewMem(32, binary.BigEndian),
	}
	c.Hooks = cpu.NewHooks(c, c.Mem)
	return c
}

type Builder struct {
	OnStart func(c *Cpu, begin, until uint64) error
}

func (b *Builder) New() (cpu.Cpu, error) {
	c := NewCpu()
	c.OnStart = b.OnStart
	return c, nil
}

func (c *Cpu) Start(begin, until uint64) error {
	c.Calls = append(c.Calls, begin)
	c.stop = false
	if err := c.RegWrite(m68k.PC, begin); err != nil {
		return err
	}
	c.OnBlock(begin, 0)
	if c.OnStart == nil {
		return errors.Errorf("mock cpu: no code at %#x", begin)
	}
	if err := c.OnStart(c, begin, until); err != nil {
		return err
	}
	if c.stop {
		return nil
	}
	return c.Return()
}

// Return emulates rts: pops the return address into pc.
func (c *Cpu) Return() error {
	sp, err := c.RegRead(m68k.SP)
	if err != nil {
		return err
	}
	ret, err := c.ReadUint(sp, 4, 0)
	if err != nil {
		return errors.Wrap(err, "mock cpu: rts failed")
	}
	c.RegWrite(m68k.SP, sp+4)
	return c.RegWrite(m68k.PC, ret)
}

func (c *Cpu) Stop() error {
	c.stop = true
	return nil
}

func (c *Cpu) Close() error { return nil }

// Step fires code hooks for one instruction at addr, as if the guest
// executed it. OnStart uses this to call into trap slots.
func (c *Cpu) Step(addr uint64) {
	c.OnCode(addr, 2)
}
