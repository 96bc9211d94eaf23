package common

import (
	"github.com/lunixbochs/amicorn/go/machine"
)

// RegArgs reads library call arguments from a fixed register list.
func RegArgs(m *machine.Machine, regs []int) func(n int) ([]uint64, error) {
	return func(n int) ([]uint64, error) {
		if n > len(regs) {
			n = len(regs)
		}
		return m.ReadRegs(regs[:n])
	}
}
