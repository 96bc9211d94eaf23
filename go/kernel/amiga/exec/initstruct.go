package exec

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/machine"
)

// InitStruct command byte: ddssnnnn
//
//	dd: 0 copy, 1 repeat one item, 2 byte offset, 3 24-bit offset
//	ss: 0 long, 1 word, 2 byte
//	nnnn: item count - 1
const (
	isCopy = iota
	isRepeat
	isOffset8
	isOffset24
)

var itemSizes = [...]uint64{4, 2, 1}

// InitStruct clears size bytes at memory, then applies the command table.
func InitStruct(m *machine.Machine, initTable, memory, size uint32) error {
	if size > 0 {
		if err := m.Cpu.MemWrite(uint64(memory), make([]byte, size)); err != nil {
			return err
		}
	}
	src := uint64(initTable)
	dst := uint64(memory)
	for {
		cmd, err := m.R8(src)
		if err != nil {
			return err
		}
		if cmd == 0 {
			return nil
		}
		kind := cmd >> 6
		sz := (cmd >> 4) & 3
		count := int(cmd&15) + 1
		if sz == 3 {
			return errors.Errorf("bad InitStruct size in command %#x at %#x", cmd, src)
		}
		switch kind {
		case isOffset8:
			off, err := m.R8(src + 1)
			if err != nil {
				return err
			}
			dst = uint64(memory) + uint64(off)
			src += 2
		case isOffset24:
			v, err := m.R32(src)
			if err != nil {
				return err
			}
			dst = uint64(memory) + uint64(v&0xffffff)
			src += 4
		default:
			src++
		}
		itemSize := itemSizes[sz]
		if itemSize > 1 {
			src = (src + 1) &^ 1
		}
		if kind == isRepeat {
			item, err := m.Cpu.MemRead(src, itemSize)
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				if err := m.Cpu.MemWrite(dst, item); err != nil {
					return err
				}
				dst += itemSize
			}
			src += itemSize
		} else {
			data, err := m.Cpu.MemRead(src, itemSize*uint64(count))
			if err != nil {
				return err
			}
			if err := m.Cpu.MemWrite(dst, data); err != nil {
				return err
			}
			dst += uint64(len(data))
			src += uint64(len(data))
		}
		// commands start on a word boundary
		src = (src + 1) &^ 1
	}
}
