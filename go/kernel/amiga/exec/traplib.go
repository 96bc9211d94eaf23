package exec

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	"github.com/lunixbochs/amicorn/go/machine"
)

// Dispatcher runs a library function by LVO.
type Dispatcher func(m *machine.Machine, lvo int) error

// MakeTrapLibrary builds a library image whose vectors enter Go: each
// function in def gets a trap calling dispatch, the rest share one trap
// that fails. The library node is named after def.
func (ml *MakeLib) MakeTrapLibrary(def *amiga.LibDef, dispatch Dispatcher) (uint32, *machine.Block, error) {
	m := ml.M
	n := def.NumVectors()
	unimpl, err := m.AddTrap(def.Name+":unimplemented", func() error {
		return errors.Errorf("%s: call to unimplemented vector", def.Name)
	})
	if err != nil {
		return 0, nil, err
	}
	table, err := m.Alloc.AllocMemory("vectors:"+def.Name, uint64(n+1)*4)
	if err != nil {
		return 0, nil, err
	}
	defer m.Alloc.FreeMemory(table)
	for i := 0; i < n; i++ {
		lvo := -(i + 1) * jumpSize
		addr := unimpl
		if f, ok := def.Func(lvo); ok {
			addr, err = m.AddTrap(fmt.Sprintf("%s:%s", def.Name, f.Name), func() error {
				return dispatch(m, lvo)
			})
			if err != nil {
				return 0, nil, err
			}
		}
		if err := m.W32(table.Addr+uint64(i)*4, uint32(addr)); err != nil {
			return 0, nil, err
		}
	}
	if err := m.W32(table.Addr+uint64(n)*4, 0xffffffff); err != nil {
		return 0, nil, err
	}

	base, block, err := ml.MakeLibrary(uint32(table.Addr), 0, 0, uint32(amiga.LibraryDef.Size+uint64(len(def.Name))+1), 0, def.Name, 0)
	if err != nil {
		return 0, nil, err
	}
	// name string lives just past the Library struct
	nameAddr := uint64(base) + amiga.LibraryDef.Size
	if err := m.WriteStr(nameAddr, def.Name); err != nil {
		m.Alloc.FreeMemory(block)
		return 0, nil, err
	}
	lib := machine.NewAccess(m.Cpu, uint64(base), amiga.LibraryDef)
	fields := []struct {
		name string
		val  uint64
	}{
		{"ln_Type", amiga.NT_LIBRARY},
		{"ln_Name", nameAddr},
		{"lib_Version", uint64(def.Version)},
	}
	for _, f := range fields {
		if err := lib.WriteField(f.name, f.val); err != nil {
			m.Alloc.FreeMemory(block)
			return 0, nil, err
		}
	}
	Logger().Debug("trap library", zap.String("name", def.Name), zap.Uint32("base", base), zap.Int("vectors", n))
	return base, block, nil
}
