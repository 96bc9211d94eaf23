package cpu

import (
	"fmt"
	"sort"
)

type MemError struct {
	Addr uint64
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	case MEM_FETCH_PROT:
		reason = "protected exec"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// MemSim is a sorted list of pages backing a Cpu without its own memory.
type MemSim struct {
	Mem Pages
}

// Checks whether addr:addr+size is fully mapped.
// If prot > 0, also checks each page carries the whole protection mask.
func (m *MemSim) RangeValid(addr, size uint64, prot int) (mapGood bool, protGood bool) {
	first := m.Mem.bsearch(addr)
	if first == -1 {
		return false, false
	}
	protGood = true
	end := addr + size
	for _, mm := range m.Mem[first:] {
		if !mm.Contains(addr) {
			break
		}
		if prot > 0 && mm.Prot&prot != prot {
			protGood = false
		}
		addr = mm.Addr + mm.Size
		if addr >= end {
			break
		}
	}
	return addr >= end, protGood
}

// Map zero-fills addr:addr+size, replacing anything mapped there.
func (m *MemSim) Map(addr, size uint64, prot int, desc string) *Page {
	m.Unmap(addr, size)
	page := &Page{Addr: addr, Size: size, Prot: prot, Data: make([]byte, size), Desc: desc}
	m.Mem = append(m.Mem, page)
	sort.Sort(m.Mem)
	return page
}

func (m *MemSim) Unmap(addr, size uint64) {
	tmp := make(Pages, 0, len(m.Mem))
	for _, mm := range m.Mem {
		if _, _, ok := mm.Intersect(addr, size); ok {
			left, right := mm.Cut(addr, size)
			if left != nil {
				tmp = append(tmp, left)
			}
			if right != nil {
				tmp = append(tmp, right)
			}
		} else {
			tmp = append(tmp, mm)
		}
	}
	m.Mem = tmp
}

func (m *MemSim) check(addr uint64, n int, prot int, unmapped, denied int) error {
	gmap, gprot := m.RangeValid(addr, uint64(n), prot)
	if !gmap {
		return &MemError{Addr: addr, Size: n, Enum: unmapped}
	} else if !gprot {
		return &MemError{Addr: addr, Size: n, Enum: denied}
	}
	return nil
}

func (m *MemSim) Read(addr uint64, p []byte, prot int) error {
	unmapped, denied := MEM_READ_UNMAPPED, MEM_READ_PROT
	if prot&PROT_EXEC != 0 {
		unmapped, denied = MEM_FETCH_UNMAPPED, MEM_FETCH_PROT
	}
	if err := m.check(addr, len(p), prot, unmapped, denied); err != nil {
		return err
	}
	for i := m.Mem.bsearch(addr); i < len(m.Mem) && len(p) > 0; i++ {
		mm := m.Mem[i]
		n := copy(p, mm.Data[addr-mm.Addr:])
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

func (m *MemSim) Write(addr uint64, p []byte, prot int) error {
	if err := m.check(addr, len(p), prot, MEM_WRITE_UNMAPPED, MEM_WRITE_PROT); err != nil {
		return err
	}
	for i := m.Mem.bsearch(addr); i < len(m.Mem) && len(p) > 0; i++ {
		mm := m.Mem[i]
		n := copy(mm.Data[addr-mm.Addr:], p)
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}
