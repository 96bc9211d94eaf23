package exec

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/machine"
)

// maxVectors keeps a library's negative size within lib_NegSize's 16 bits.
const maxVectors = 0xffff / jumpSize

// each vector is jmp <abs.l>
const jumpSize = 6

var ErrCorruptVectorTable = errors.New("corrupt vector table")

// calcNegSize scans a vector table: either word offsets after a leading
// 0xFFFF, or absolute pointers, each terminated by -1.
func calcNegSize(m *machine.Machine, vectors uint32) (negSize uint32, offsets bool, err error) {
	addr := uint64(vectors)
	first, err := m.R16S(addr)
	if err != nil {
		return 0, false, err
	}
	num := 0
	if first == -1 {
		offsets = true
		for addr += 2; ; addr += 2 {
			off, err := m.R16S(addr)
			if err != nil {
				return 0, false, err
			}
			if off == -1 {
				break
			}
			if num++; num > maxVectors {
				return 0, false, errors.Wrapf(ErrCorruptVectorTable, "word offsets at %#x", vectors)
			}
		}
	} else {
		for ; ; addr += 4 {
			ptr, err := m.R32(addr)
			if err != nil {
				return 0, false, err
			}
			if ptr == 0xffffffff {
				break
			}
			if num++; num > maxVectors {
				return 0, false, errors.Wrapf(ErrCorruptVectorTable, "pointers at %#x", vectors)
			}
		}
	}
	return uint32(num * jumpSize), offsets, nil
}

// MakeFuncs writes a jump table below target. With funcDispBase set,
// funcArray holds signed word offsets from it; otherwise absolute pointers.
// It returns the table size in bytes.
func MakeFuncs(m *machine.Machine, target, funcArray, funcDispBase uint32) (uint32, error) {
	jump := uint64(target)
	src := uint64(funcArray)
	for n := 0; ; n++ {
		var fn uint32
		if funcDispBase != 0 {
			off, err := m.R16S(src)
			if err != nil {
				return 0, err
			}
			if off == -1 {
				break
			}
			fn = funcDispBase + uint32(int32(off))
			src += 2
		} else {
			ptr, err := m.R32(src)
			if err != nil {
				return 0, err
			}
			if ptr == 0xffffffff {
				break
			}
			fn = ptr
			src += 4
		}
		if n >= maxVectors {
			return 0, errors.Wrapf(ErrCorruptVectorTable, "function array at %#x", funcArray)
		}
		jump -= jumpSize
		if err := m.W16(jump, m68k.OpJmpAbsL); err != nil {
			return 0, err
		}
		if err := m.W32(jump+2, fn); err != nil {
			return 0, err
		}
	}
	return uint32(uint64(target) - jump), nil
}
