package cpu

import (
	"testing"
)

func TestPageFind(t *testing.T) {
	mem := Pages{
		&Page{Addr: 0x1000, Size: 0x1000},
		&Page{Addr: 0x2000, Size: 0x1000},
		&Page{Addr: 0x4000, Size: 0x2000},
	}
	if mem.Find(0x1000) != mem[0] || mem.Find(0x1fff) != mem[0] || mem.Find(0x5fff) != mem[2] {
		t.Error("Find() failed")
	}
	if mem.Find(0x3000) != nil || mem.Find(0x1) != nil || mem.Find(0x6000) != nil {
		t.Error("Find() negative failed")
	}
	if len(mem.FindRange(0x0, 0x10000)) != 3 || len(mem.FindRange(0x1800, 0x1000)) != 2 ||
		len(mem.FindRange(0x3000, 0x1000)) != 0 {
		t.Error("FindRange() failed")
	}
}

func TestPageCut(t *testing.T) {
	p := &Page{Addr: 0x1000, Size: 0x300, Data: pattern(0x300)}
	left, right := p.Cut(0x1100, 0x100)
	if left == nil || left.Addr != 0x1000 || left.Size != 0x100 {
		t.Fatalf("bad left page: %v", left)
	}
	if right == nil || right.Addr != 0x1200 || right.Size != 0x100 || right.Data[0] != p.Data[0x200] {
		t.Fatalf("bad right page: %v", right)
	}
	if l, r := p.Cut(0x0, 0x10000); l != nil || r != nil {
		t.Fatal("covering cut left pieces behind")
	}
}
