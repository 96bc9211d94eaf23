package machine

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrNoMemory = errors.New("out of guest memory")

// Memory is the guest memory surface the allocator and accessors need.
type Memory interface {
	MemRead(addr, size uint64) ([]byte, error)
	MemReadInto(p []byte, addr uint64) error
	MemWrite(addr uint64, p []byte) error
}

// Block is one labeled guest allocation.
type Block struct {
	Addr  uint64
	Size  uint64
	Label string
}

func (b *Block) String() string {
	return fmt.Sprintf("[%s@%06x+%x]", b.Label, b.Addr, b.Size)
}

// BAddr is the block's BCPL address (byte address / 4).
func (b *Block) BAddr() uint32 {
	return uint32(b.Addr >> 2)
}

type blockList []*Block

func (b blockList) Len() int           { return len(b) }
func (b blockList) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
func (b blockList) Less(i, j int) bool { return b[i].Addr < b[j].Addr }

// Alloc is a first-fit allocator over [base, base+size).
// Blocks are 8-byte aligned and zeroed on allocation.
type Alloc struct {
	mem    Memory
	base   uint64
	end    uint64
	blocks blockList
}

const allocAlign = 8

func NewAlloc(mem Memory, base, size uint64) *Alloc {
	base = (base + allocAlign - 1) &^ (allocAlign - 1)
	return &Alloc{mem: mem, base: base, end: base + size}
}

// reserve finds the first gap that fits size
func (a *Alloc) reserve(size uint64) (uint64, bool) {
	addr := a.base
	for _, b := range a.blocks {
		if addr+size <= b.Addr {
			return addr, true
		}
		next := (b.Addr + b.Size + allocAlign - 1) &^ (allocAlign - 1)
		if next > addr {
			addr = next
		}
	}
	return addr, addr+size <= a.end
}

func (a *Alloc) AllocMemory(label string, size uint64) (*Block, error) {
	if size == 0 {
		size = allocAlign
	}
	addr, ok := a.reserve(size)
	if !ok {
		return nil, errors.Wrapf(ErrNoMemory, "alloc %q size %#x", label, size)
	}
	if err := a.mem.MemWrite(addr, make([]byte, size)); err != nil {
		return nil, errors.Wrap(err, "clearing allocation failed")
	}
	b := &Block{Addr: addr, Size: size, Label: label}
	a.blocks = append(a.blocks, b)
	sort.Sort(a.blocks)
	Logger().Debug("alloc", zap.Stringer("block", b))
	return b, nil
}

func (a *Alloc) FreeMemory(b *Block) error {
	for i, v := range a.blocks {
		if v == b {
			a.blocks = append(a.blocks[:i], a.blocks[i+1:]...)
			Logger().Debug("free", zap.Stringer("block", b))
			return nil
		}
	}
	return errors.Errorf("free of unknown block %s", b)
}

// StructBlock is an allocation holding one guest struct.
type StructBlock struct {
	*Block
	Access *Access
}

func (a *Alloc) AllocStruct(label string, layout *Layout) (*StructBlock, error) {
	b, err := a.AllocMemory(label, layout.Size)
	if err != nil {
		return nil, err
	}
	return &StructBlock{Block: b, Access: NewAccess(a.mem, b.Addr, layout)}, nil
}

func (a *Alloc) FreeStruct(s *StructBlock) error {
	return a.FreeMemory(s.Block)
}

// Blocks returns live allocations in address order.
func (a *Alloc) Blocks() []*Block {
	return append([]*Block(nil), a.blocks...)
}

// Used is the total size of live allocations.
func (a *Alloc) Used() uint64 {
	var n uint64
	for _, b := range a.blocks {
		n += b.Size
	}
	return n
}

// Avail is the number of unallocated bytes, fragmentation aside.
func (a *Alloc) Avail() uint64 {
	return a.end - a.base - a.Used()
}
