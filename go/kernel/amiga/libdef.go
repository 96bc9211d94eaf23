package amiga

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/kernel/common"
	"github.com/lunixbochs/amicorn/go/machine"
)

// FuncDef is one library vector: its negative offset (LVO) and the
// registers its arguments arrive in, as listed in the library's .fd file.
type FuncDef struct {
	Name string
	LVO  int
	Regs []int
}

// LibDef is the function table of an emulated library.
type LibDef struct {
	Name    string
	Version uint16
	Funcs   []FuncDef
	byLVO   map[int]*FuncDef
}

func NewLibDef(name string, version uint16, funcs []FuncDef) *LibDef {
	l := &LibDef{Name: name, Version: version, Funcs: funcs, byLVO: make(map[int]*FuncDef)}
	for _, f := range l.Funcs {
		if f.LVO >= 0 || f.LVO%6 != 0 {
			panic(errors.Errorf("%s: bad LVO %d for %s", name, f.LVO, f.Name))
		}
	}
	sort.Slice(l.Funcs, func(i, j int) bool { return l.Funcs[i].LVO > l.Funcs[j].LVO })
	for i := range l.Funcs {
		l.byLVO[l.Funcs[i].LVO] = &l.Funcs[i]
	}
	return l
}

func (l *LibDef) Func(lvo int) (*FuncDef, bool) {
	f, ok := l.byLVO[lvo]
	return f, ok
}

// NumVectors counts vectors down to the lowest LVO, including the four
// standard ones (Open, Close, Expunge, Reserved).
func (l *LibDef) NumVectors() int {
	n := 4
	for _, f := range l.Funcs {
		if v := -f.LVO / 6; v > n {
			n = v
		}
	}
	return n
}

// Dispatch performs the library call at lvo: arguments are read from the
// registers named in its FuncDef, converted to the kernel method's argument
// types, and the result is written back to D0.
func Dispatch(m *machine.Machine, lib *LibDef, k common.Kernel, lvo int) error {
	f, ok := lib.Func(lvo)
	if !ok {
		return errors.Errorf("%s: no function at LVO %d", lib.Name, lvo)
	}
	sys := common.Lookup(m, k, f.Name)
	if sys == nil {
		return errors.Errorf("%s: %s (LVO %d) is not implemented", lib.Name, f.Name, lvo)
	}
	args, err := common.RegArgs(m, f.Regs)(len(f.Regs))
	if err != nil {
		return err
	}
	ret, err := sys.Call(args)
	if err != nil {
		return errors.Wrapf(err, "%s.%s", lib.Name, f.Name)
	}
	if ce := Logger().Check(zap.DebugLevel, "call"); ce != nil {
		ce.Write(zap.String("lib", lib.Name), zap.String("call", sys.Trace(args)+sys.TraceRet(ret)))
	}
	return m.RegWrite(m68k.D0, ret&0xffffffff)
}
