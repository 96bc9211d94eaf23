package machine

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/models"
)

var ErrRunDepth = errors.New("nested run depth exceeded")

type RunOpts struct {
	// SP reuses the caller's stack when non-zero; otherwise a fresh stack is allocated.
	SP      uint64
	SetRegs map[int]uint64
	GetRegs []int
	Name    string
}

// RunState describes one nested guest call.
type RunState struct {
	Name  string
	Entry uint64
	Depth int
	// register values requested by RunOpts.GetRegs, read at exit
	Regs map[int]uint64

	ctx   interface{}
	stack *Block
}

func (r *RunState) String() string {
	return fmt.Sprintf("run %q @%#x depth=%d", r.Name, r.Entry, r.Depth)
}

// Depth is the number of active nested runs.
func (m *Machine) Depth() int {
	return len(m.runs)
}

// Run calls guest code at entry and returns once it executes rts back to
// the machine's exit trampoline. The caller's register context is restored
// afterwards whether or not the run succeeds.
func (m *Machine) Run(entry uint64, opts RunOpts) (*RunState, error) {
	if len(m.runs) >= m.maxDepth {
		return nil, errors.Wrapf(ErrRunDepth, "run %q (limit %d)", opts.Name, m.maxDepth)
	}
	m.started++
	rs := &RunState{Name: opts.Name, Entry: entry, Depth: len(m.runs) + 1}
	ctx, err := m.Cpu.ContextSave(nil)
	if err != nil {
		return nil, errors.Wrap(err, "ContextSave() failed")
	}
	rs.ctx = ctx
	m.runs = append(m.runs, rs)
	Logger().Debug("run enter", zap.String("name", rs.Name), zap.Uint64("entry", entry), zap.Int("depth", rs.Depth))

	runErr := m.run(rs, opts)

	m.runs = m.runs[:len(m.runs)-1]
	if err := m.Cpu.ContextRestore(rs.ctx); err != nil && runErr == nil {
		runErr = errors.Wrap(err, "ContextRestore() failed")
	}
	if rs.stack != nil {
		if err := m.Alloc.FreeMemory(rs.stack); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		Logger().Error("run failed", zap.Stringer("run", rs), zap.Error(runErr))
		return nil, runErr
	}
	Logger().Debug("run exit", zap.String("name", rs.Name), zap.Int("depth", rs.Depth))
	return rs, nil
}

func (m *Machine) run(rs *RunState, opts RunOpts) error {
	sp := opts.SP
	if sp == 0 {
		stack, err := m.Alloc.AllocMemory(fmt.Sprintf("stack:%s", rs.Name), m.stackSize)
		if err != nil {
			return err
		}
		rs.stack = stack
		sp = stack.Addr + stack.Size
	}
	sp -= 4
	if err := m.W32(sp, exitAddr); err != nil {
		return err
	}
	if err := m.RegWrite(m68k.SP, sp); err != nil {
		return err
	}
	for enum, val := range opts.SetRegs {
		if err := m.RegWrite(enum, val); err != nil {
			return err
		}
	}
	var diff *models.StatusDiff
	if m.trace {
		diff = &models.StatusDiff{Arch: m.Arch, Cpu: m.Cpu}
		diff.Changes(false)
	}
	startErr := m.Cpu.Start(rs.Entry, exitAddr)
	if err := m.takeTrapErr(); err != nil {
		return err
	}
	if startErr != nil {
		return errors.Wrapf(startErr, "%s failed", rs)
	}
	pc, err := m.RegRead(m68k.PC)
	if err != nil {
		return err
	}
	if pc != exitAddr {
		return errors.Errorf("%s stopped at %#x before returning", rs, pc)
	}
	if diff != nil {
		if cs, err := diff.Changes(true); err == nil {
			Logger().Info("run regs", zap.Stringer("run", rs), zap.String("changes", cs.String(false)))
		}
	}
	rs.Regs = make(map[int]uint64, len(opts.GetRegs))
	for _, enum := range opts.GetRegs {
		val, err := m.RegRead(enum)
		if err != nil {
			return err
		}
		rs.Regs[enum] = val
	}
	return nil
}
