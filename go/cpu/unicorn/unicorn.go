package unicorn

import (
	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/models/cpu"
)

// m68k enums -> unicorn register ids
var m68kRegs = map[int]int{
	m68k.A0: uc.M68K_REG_A0, m68k.A1: uc.M68K_REG_A1, m68k.A2: uc.M68K_REG_A2, m68k.A3: uc.M68K_REG_A3,
	m68k.A4: uc.M68K_REG_A4, m68k.A5: uc.M68K_REG_A5, m68k.A6: uc.M68K_REG_A6, m68k.A7: uc.M68K_REG_A7,
	m68k.D0: uc.M68K_REG_D0, m68k.D1: uc.M68K_REG_D1, m68k.D2: uc.M68K_REG_D2, m68k.D3: uc.M68K_REG_D3,
	m68k.D4: uc.M68K_REG_D4, m68k.D5: uc.M68K_REG_D5, m68k.D6: uc.M68K_REG_D6, m68k.D7: uc.M68K_REG_D7,
	m68k.SR: uc.M68K_REG_SR, m68k.PC: uc.M68K_REG_PC,
}

type Builder struct {
	Arch, Mode int
	// maps backend-neutral enums to unicorn's; nil passes enums through
	Regs map[int]int
}

// M68kBuilder creates big-endian m68k cores.
func M68kBuilder() *Builder {
	return &Builder{Arch: uc.ARCH_M68K, Mode: uc.MODE_BIG_ENDIAN, Regs: m68kRegs}
}

func (b *Builder) New() (cpu.Cpu, error) {
	u, err := uc.NewUnicorn(b.Arch, b.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "NewUnicorn() failed")
	}
	return &UnicornCpu{Unicorn: u, regs: b.Regs}, nil
}

type UnicornCpu struct {
	uc.Unicorn
	regs map[int]int
}

func (u *UnicornCpu) Backend() interface{} {
	return u.Unicorn
}

func (u *UnicornCpu) reg(enum int) (int, error) {
	if u.regs == nil {
		return enum, nil
	}
	r, ok := u.regs[enum]
	if !ok {
		return 0, errors.Errorf("invalid register %d", enum)
	}
	return r, nil
}

func (u *UnicornCpu) RegRead(enum int) (uint64, error) {
	r, err := u.reg(enum)
	if err != nil {
		return 0, err
	}
	return u.Unicorn.RegRead(r)
}

func (u *UnicornCpu) RegWrite(enum int, val uint64) error {
	r, err := u.reg(enum)
	if err != nil {
		return err
	}
	return u.Unicorn.RegWrite(r, val)
}

func (u *UnicornCpu) ContextSave(reuse interface{}) (interface{}, error) {
	if reuse == nil {
		return u.Unicorn.ContextSave(nil)
	}
	ctx, ok := reuse.(uc.Context)
	if !ok {
		return nil, errors.New("incorrect context type")
	}
	return u.Unicorn.ContextSave(ctx)
}

func (u *UnicornCpu) ContextRestore(ctx interface{}) error {
	c, ok := ctx.(uc.Context)
	if !ok {
		return errors.New("incorrect context type")
	}
	return u.Unicorn.ContextRestore(c)
}

func (u *UnicornCpu) HookAdd(htype int, cb interface{}, start uint64, end uint64, extra ...int) (cpu.Hook, error) {
	// unicorn passes itself to callbacks; rewrap so they get the Cpu
	var wrap interface{}
	switch htype {
	case cpu.HOOK_BLOCK, cpu.HOOK_CODE:
		cbc, ok := cb.(func(cpu.Cpu, uint64, uint32))
		if !ok {
			return nil, errors.Errorf("bad callback type %T for code hook", cb)
		}
		wrap = func(_ uc.Unicorn, addr uint64, size uint32) { cbc(u, addr, size) }

	case cpu.HOOK_MEM_READ, cpu.HOOK_MEM_WRITE, cpu.HOOK_MEM_READ | cpu.HOOK_MEM_WRITE:
		cbc, ok := cb.(func(cpu.Cpu, int, uint64, int, int64))
		if !ok {
			return nil, errors.Errorf("bad callback type %T for memory hook", cb)
		}
		wrap = func(_ uc.Unicorn, access int, addr uint64, size int, val int64) { cbc(u, access, addr, size, val) }

	case cpu.HOOK_INTR:
		cbc, ok := cb.(func(cpu.Cpu, uint32))
		if !ok {
			return nil, errors.Errorf("bad callback type %T for interrupt hook", cb)
		}
		wrap = func(_ uc.Unicorn, intno uint32) { cbc(u, intno) }

	default:
		return nil, errors.Errorf("unknown hook type %d", htype)
	}
	return u.Unicorn.HookAdd(htype, wrap, start, end, extra...)
}

func (u *UnicornCpu) HookDel(hh cpu.Hook) error {
	h, ok := hh.(uc.Hook)
	if !ok {
		return errors.Errorf("not a unicorn hook: %T", hh)
	}
	return u.Unicorn.HookDel(h)
}

func (u *UnicornCpu) MemMap(addr, size uint64, prot int) error {
	return u.Unicorn.MemMapProt(addr, size, prot)
}
