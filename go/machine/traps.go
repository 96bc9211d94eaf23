package machine

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/models/cpu"
)

// TrapFunc is the Go side of a guest-callable function. Register
// arguments and results are exchanged through the Machine.
type TrapFunc func() error

type trap struct {
	name string
	addr uint64
	fn   TrapFunc
}

func (t *trap) String() string {
	return fmt.Sprintf("trap %q @%#x", t.name, t.addr)
}

func (m *Machine) initTraps() error {
	_, err := m.Cpu.HookAdd(cpu.HOOK_CODE, func(_ cpu.Cpu, addr uint64, size uint32) {
		m.onTrap(addr)
	}, trapBase, trapEnd-1)
	return errors.Wrap(err, "installing trap hook failed")
}

// AddTrap returns the guest address of a new trap slot. Jumping to it runs
// fn, then returns to the caller with rts.
func (m *Machine) AddTrap(name string, fn TrapFunc) (uint64, error) {
	addr := trapBase + uint64(len(m.traps))*2
	if addr >= trapEnd {
		return 0, errors.Errorf("out of trap slots adding %q", name)
	}
	if err := m.W16(addr, m68k.OpRts); err != nil {
		return 0, err
	}
	t := &trap{name: name, addr: addr, fn: fn}
	m.traps = append(m.traps, t)
	Logger().Debug("trap added", zap.Stringer("trap", t))
	return addr, nil
}

func (m *Machine) onTrap(addr uint64) {
	if addr&1 != 0 {
		return
	}
	slot := int((addr - trapBase) / 2)
	if slot >= len(m.traps) {
		return
	}
	t := m.traps[slot]
	started := m.started
	err := t.fn()
	if err == nil && m.started != started {
		// a nested run restored the context mid-hook; return to the caller
		// here rather than relying on the backend to resume at the rts
		err = m.trapReturn()
	}
	if err != nil {
		if m.trapErr == nil {
			m.trapErr = errors.Wrapf(err, "%s", t)
		}
		m.Cpu.Stop()
	}
}

// trapReturn performs the slot's rts.
func (m *Machine) trapReturn() error {
	sp, err := m.RegRead(m68k.SP)
	if err != nil {
		return err
	}
	ret, err := m.R32(sp)
	if err != nil {
		return err
	}
	if err := m.RegWrite(m68k.SP, sp+4); err != nil {
		return err
	}
	return m.RegWrite(m68k.PC, uint64(ret))
}

// takeTrapErr returns and clears the first error raised by a trap handler.
func (m *Machine) takeTrapErr() error {
	err := m.trapErr
	m.trapErr = nil
	return err
}
