package exec

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	"github.com/lunixbochs/amicorn/go/machine"
)

// MakeLib builds library images in guest memory, as exec's MakeLibrary.
type MakeLib struct {
	M *machine.Machine
}

func NewMakeLib(m *machine.Machine) *MakeLib {
	return &MakeLib{M: m}
}

func roundLong(v uint32) uint32 {
	return (v + 3) &^ 3
}

// MakeLibrary lays out a library with its jump table below the returned
// base and posSize bytes of data above it. initStruct, when set, is applied
// to the base; initFunc, when set, runs with D0=base, A0=segList and
// A6=ExecBase, and its D0 becomes the result. runSP shares the caller's
// stack when non-zero. The block belongs to the caller; on error it has
// already been freed.
func (ml *MakeLib) MakeLibrary(vectors, initStruct, initFunc, posSize, segList uint32, label string, runSP uint64) (uint32, *machine.Block, error) {
	m := ml.M
	negSize, offsets, err := calcNegSize(m, vectors)
	if err != nil {
		return 0, nil, err
	}
	negSize = roundLong(negSize)
	posSize = roundLong(posSize)
	if posSize > 0xffff {
		return 0, nil, errors.Errorf("library pos size %#x too large", posSize)
	}
	if label == "" {
		label = "MakeLibrary"
	}
	block, err := m.Alloc.AllocMemory(label, uint64(negSize+posSize))
	if err != nil {
		return 0, nil, err
	}
	libBase, err := ml.build(block, negSize, posSize, vectors, offsets, initStruct, initFunc, segList, label, runSP)
	if err != nil {
		m.Alloc.FreeMemory(block)
		return 0, nil, err
	}
	Logger().Info("made library", zap.String("label", label), zap.Uint32("base", libBase),
		zap.Uint32("neg_size", negSize), zap.Uint32("pos_size", posSize))
	return libBase, block, nil
}

func (ml *MakeLib) build(block *machine.Block, negSize, posSize, vectors uint32, offsets bool, initStruct, initFunc, segList uint32, label string, runSP uint64) (uint32, error) {
	m := ml.M
	libBase := uint32(block.Addr) + negSize
	var err error
	if offsets {
		_, err = MakeFuncs(m, libBase, vectors+2, vectors)
	} else {
		_, err = MakeFuncs(m, libBase, vectors, 0)
	}
	if err != nil {
		return 0, err
	}
	lib := machine.NewAccess(m.Cpu, uint64(libBase), amiga.LibraryDef)
	if err := lib.WriteField("lib_NegSize", uint64(negSize)); err != nil {
		return 0, err
	}
	if err := lib.WriteField("lib_PosSize", uint64(posSize)); err != nil {
		return 0, err
	}
	if initStruct != 0 {
		if err := InitStruct(m, initStruct, libBase, 0); err != nil {
			return 0, err
		}
	}
	if initFunc != 0 {
		execBase, err := m.R32(machine.ExecBasePtr)
		if err != nil {
			return 0, err
		}
		rs, err := m.Run(uint64(initFunc), machine.RunOpts{
			SP: runSP,
			SetRegs: map[int]uint64{
				m68k.D0: uint64(libBase),
				m68k.A0: uint64(segList),
				m68k.A6: uint64(execBase),
			},
			GetRegs: []int{m68k.D0},
			Name:    label,
		})
		if err != nil {
			return 0, errors.Wrapf(err, "init of %s", label)
		}
		libBase = uint32(rs.Regs[m68k.D0])
	}
	return libBase, nil
}
