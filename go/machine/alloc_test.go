package machine

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/models/cpu"
	"github.com/lunixbochs/amicorn/go/models/mock"
)

func newTestAlloc(t *testing.T, size uint64) *Alloc {
	c := mock.NewCpu()
	if err := c.MemMap(0, 0x10000, cpu.PROT_ALL); err != nil {
		t.Fatal(err)
	}
	return NewAlloc(c, 0x1000, size)
}

func TestAllocFirstFit(t *testing.T) {
	a := newTestAlloc(t, 0x100)
	b1, err := a.AllocMemory("one", 0x10)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := a.AllocMemory("two", 3)
	if err != nil {
		t.Fatal(err)
	}
	b3, err := a.AllocMemory("three", 0x10)
	if err != nil {
		t.Fatal(err)
	}
	if b1.Addr != 0x1000 || b2.Addr != 0x1010 || b3.Addr != 0x1018 {
		t.Fatalf("bad placement: %s %s %s", b1, b2, b3)
	}
	if err := a.FreeMemory(b2); err != nil {
		t.Fatal(err)
	}
	b4, err := a.AllocMemory("four", 8)
	if err != nil {
		t.Fatal(err)
	}
	if b4.Addr != b2.Addr {
		t.Fatalf("freed gap not reused: got %#x want %#x", b4.Addr, b2.Addr)
	}
	if b1.BAddr() != 0x1000>>2 {
		t.Errorf("BAddr = %#x", b1.BAddr())
	}
}

func TestAllocZeroes(t *testing.T) {
	a := newTestAlloc(t, 0x100)
	b, _ := a.AllocMemory("dirty", 8)
	a.mem.MemWrite(b.Addr, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	a.FreeMemory(b)
	b, _ = a.AllocMemory("clean", 8)
	data, err := a.mem.MemRead(b.Addr, 8)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range data {
		if v != 0 {
			t.Fatalf("byte %d not cleared: %#x", i, v)
		}
	}
}

func TestAllocExhausted(t *testing.T) {
	a := newTestAlloc(t, 0x20)
	if _, err := a.AllocMemory("big", 0x18); err != nil {
		t.Fatal(err)
	}
	_, err := a.AllocMemory("more", 0x10)
	if errors.Cause(err) != ErrNoMemory {
		t.Fatalf("expected ErrNoMemory, got %v", err)
	}
	if a.Used() != 0x18 || a.Avail() != 8 {
		t.Errorf("used=%#x avail=%#x", a.Used(), a.Avail())
	}
}

func TestFreeUnknown(t *testing.T) {
	a := newTestAlloc(t, 0x100)
	if err := a.FreeMemory(&Block{Addr: 0x1000, Size: 8}); err == nil {
		t.Fatal("free of a foreign block should fail")
	}
}
