package exec

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	co "github.com/lunixbochs/amicorn/go/kernel/common"
	"github.com/lunixbochs/amicorn/go/machine"
)

var LibDef = amiga.NewLibDef("exec.library", 40, []amiga.FuncDef{
	{Name: "InitStruct", LVO: -78, Regs: []int{m68k.A1, m68k.A2, m68k.D0}},
	{Name: "MakeLibrary", LVO: -84, Regs: []int{m68k.A0, m68k.A1, m68k.A2, m68k.D0, m68k.D1}},
	{Name: "MakeFunctions", LVO: -90, Regs: []int{m68k.A0, m68k.A1, m68k.A2}},
})

// ExecKernel implements the library construction calls of exec.library.
type ExecKernel struct {
	co.KernelBase
	Lib *MakeLib
}

func NewKernel(m *machine.Machine) *ExecKernel {
	return &ExecKernel{Lib: NewMakeLib(m)}
}

// MakeLibrary returns 0 when guest memory runs out. The init routine
// shares the caller's stack.
func (k *ExecKernel) MakeLibrary(vectors, structure, init co.Ptr, dataSize co.Len, segList co.BPTR) (uint32, error) {
	sp, err := k.Lib.M.RegRead(m68k.SP)
	if err != nil {
		return 0, err
	}
	base, _, err := k.Lib.MakeLibrary(uint32(vectors), uint32(structure), uint32(init), uint32(dataSize), uint32(segList), "", sp)
	if errors.Cause(err) == machine.ErrNoMemory {
		return 0, nil
	}
	return base, err
}

func (k *ExecKernel) MakeFunctions(target, functionArray, funcDispBase co.Ptr) (uint32, error) {
	return MakeFuncs(k.Lib.M, uint32(target), uint32(functionArray), uint32(funcDispBase))
}

func (k *ExecKernel) InitStruct(initTable, memory co.Ptr, size co.Len) error {
	return InitStruct(k.Lib.M, uint32(initTable), uint32(memory), uint32(size))
}

// Dispatch runs the exec.library function at lvo with arguments from m's registers.
func (k *ExecKernel) Dispatch(m *machine.Machine, lvo int) error {
	return amiga.Dispatch(m, LibDef, k, lvo)
}
