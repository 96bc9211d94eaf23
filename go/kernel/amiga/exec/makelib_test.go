package exec

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	"github.com/lunixbochs/amicorn/go/machine"
	"github.com/lunixbochs/amicorn/go/models"
	"github.com/lunixbochs/amicorn/go/models/mock"
)

const (
	vecAddr  = 0x30000
	initAddr = 0x31000
)

func newTestMachine(t *testing.T, onStart func(c *mock.Cpu, begin, until uint64) error) *machine.Machine {
	c := mock.NewCpu()
	c.OnStart = onStart
	m, err := machine.New(c, &models.Config{RamSize: 0x40000, StackSize: 0x400, MaxRunDepth: 4})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func writeWords(m *machine.Machine, addr uint64, words ...uint16) {
	for i, w := range words {
		m.W16(addr+uint64(i)*2, w)
	}
}

func writeLongs(m *machine.Machine, addr uint64, longs ...uint32) {
	for i, l := range longs {
		m.W32(addr+uint64(i)*4, l)
	}
}

func TestCalcNegSize(t *testing.T) {
	m := newTestMachine(t, nil)
	writeWords(m, vecAddr, 0xffff, 4, 8, 0xffff)
	neg, offsets, err := calcNegSize(m, vecAddr)
	if err != nil || neg != 12 || !offsets {
		t.Errorf("word table: neg=%d offsets=%v err=%v", neg, offsets, err)
	}
	writeLongs(m, vecAddr, 0x1000, 0x1004, 0xffffffff)
	neg, offsets, err = calcNegSize(m, vecAddr)
	if err != nil || neg != 12 || offsets {
		t.Errorf("pointer table: neg=%d offsets=%v err=%v", neg, offsets, err)
	}
	writeLongs(m, vecAddr, 0xffffffff)
	if neg, _, _ := calcNegSize(m, vecAddr); neg != 0 {
		t.Errorf("empty table: neg=%d", neg)
	}
}

func TestCalcNegSizeCorrupt(t *testing.T) {
	m := newTestMachine(t, nil)
	// zeroed memory never terminates
	if _, _, err := calcNegSize(m, 0x10000); errors.Cause(err) != ErrCorruptVectorTable {
		t.Errorf("pointer table: %v", err)
	}
	writeWords(m, 0x10000, 0xffff)
	if _, _, err := calcNegSize(m, 0x10000); errors.Cause(err) != ErrCorruptVectorTable {
		t.Errorf("word table: %v", err)
	}
}

func TestMakeLibraryMaxVectors(t *testing.T) {
	m := newTestMachine(t, nil)
	for i := 0; i < maxVectors; i++ {
		m.W32(vecAddr+uint64(i)*4, 0x2000+uint32(i)*2)
	}
	m.W32(vecAddr+maxVectors*4, 0xffffffff)
	base, block, err := NewMakeLib(m).MakeLibrary(vecAddr, 0, 0, 0, 0, "big.library", 0)
	if err != nil {
		t.Fatal(err)
	}
	if uint64(base) != block.Addr+maxVectors*jumpSize {
		t.Fatalf("base=%#x block=%s", base, block)
	}
	checkJump(t, m, uint64(base)-6, 0x2000)
	checkJump(t, m, uint64(base)-maxVectors*jumpSize, 0x2000+(maxVectors-1)*2)

	// one more entry overflows lib_NegSize
	m.W32(vecAddr+maxVectors*4, 0x3000)
	m.W32(vecAddr+(maxVectors+1)*4, 0xffffffff)
	if _, err := MakeFuncs(m, uint32(base), vecAddr, 0); errors.Cause(err) != ErrCorruptVectorTable {
		t.Errorf("MakeFuncs past the bound: %v", err)
	}
	if _, _, err := calcNegSize(m, vecAddr); errors.Cause(err) != ErrCorruptVectorTable {
		t.Errorf("calcNegSize past the bound: %v", err)
	}
}

func checkJump(t *testing.T, m *machine.Machine, addr uint64, want uint32) {
	op, _ := m.R16(addr)
	target, _ := m.R32(addr + 2)
	if op != m68k.OpJmpAbsL || target != want {
		t.Errorf("jump at %#x = %#x %#x, want jmp %#x", addr, op, target, want)
	}
}

func TestMakeLibraryOffsets(t *testing.T) {
	m := newTestMachine(t, nil)
	writeWords(m, vecAddr, 0xffff, 4, 8, 0xffff)
	ml := NewMakeLib(m)
	base, block, err := ml.MakeLibrary(vecAddr, 0, 0, 34, 0, "test.library", 0)
	if err != nil {
		t.Fatal(err)
	}
	if uint64(base) != block.Addr+12 || block.Size != 12+36 || block.Label != "test.library" {
		t.Fatalf("base=%#x block=%s", base, block)
	}
	checkJump(t, m, uint64(base)-6, vecAddr+4)
	checkJump(t, m, uint64(base)-12, vecAddr+8)
	lib := machine.NewAccess(m.Cpu, uint64(base), amiga.LibraryDef)
	neg, _ := lib.ReadField("lib_NegSize")
	pos, _ := lib.ReadField("lib_PosSize")
	if neg != 12 || pos != 36 {
		t.Errorf("neg=%d pos=%d", neg, pos)
	}
}

func TestMakeLibraryPointers(t *testing.T) {
	m := newTestMachine(t, nil)
	writeLongs(m, vecAddr, 0x1000, 0x1004, 0x2000, 0xffffffff)
	base, block, err := NewMakeLib(m).MakeLibrary(vecAddr, 0, 0, 0, 0, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	// 18 rounds up to 20
	if uint64(base) != block.Addr+20 || block.Label != "MakeLibrary" {
		t.Fatalf("base=%#x block=%s", base, block)
	}
	checkJump(t, m, uint64(base)-6, 0x1000)
	checkJump(t, m, uint64(base)-12, 0x1004)
	checkJump(t, m, uint64(base)-18, 0x2000)
}

func TestMakeLibraryInit(t *testing.T) {
	var seen map[int]uint64
	var seenSP uint64
	m := newTestMachine(t, func(c *mock.Cpu, begin, until uint64) error {
		if begin != initAddr {
			return errors.Errorf("unexpected call to %#x", begin)
		}
		seen = make(map[int]uint64)
		for _, r := range []int{m68k.D0, m68k.A0, m68k.A6} {
			seen[r], _ = c.RegRead(r)
		}
		seenSP, _ = c.RegRead(m68k.SP)
		return c.RegWrite(m68k.D0, 0xcafe0)
	})
	m.W32(machine.ExecBasePtr, 0x7700)
	m.RegWrite(m68k.D0, 1)
	writeLongs(m, vecAddr, 0x1000, 0xffffffff)
	base, _, err := NewMakeLib(m).MakeLibrary(vecAddr, 0, initAddr, 34, 0x4444, "init.library", 0x20000)
	if err != nil {
		t.Fatal(err)
	}
	if base != 0xcafe0 {
		t.Errorf("init result not used: %#x", base)
	}
	if seen[m68k.A0] != 0x4444 || seen[m68k.A6] != 0x7700 {
		t.Errorf("init regs: %v", seen)
	}
	if seen[m68k.D0] == 0 || seen[m68k.D0] == 1 {
		t.Errorf("init got D0=%#x", seen[m68k.D0])
	}
	if seenSP != 0x20000-4 {
		t.Errorf("init SP = %#x, want the shared stack", seenSP)
	}
	if d0, _ := m.RegRead(m68k.D0); d0 != 1 {
		t.Errorf("caller D0 clobbered: %#x", d0)
	}
}

func TestMakeLibraryInitSizes(t *testing.T) {
	var neg, pos uint64
	m := newTestMachine(t, func(c *mock.Cpu, begin, until uint64) error {
		d0, _ := c.RegRead(m68k.D0)
		var err error
		lib := machine.NewAccess(c, d0, amiga.LibraryDef)
		if neg, err = lib.ReadField("lib_NegSize"); err != nil {
			return err
		}
		pos, err = lib.ReadField("lib_PosSize")
		return err
	})
	writeWords(m, vecAddr, 0xffff, 4, 8, 12, 0xffff)
	if _, _, err := NewMakeLib(m).MakeLibrary(vecAddr, 0, initAddr, 35, 0, "", 0); err != nil {
		t.Fatal(err)
	}
	if neg != 20 || pos != 36 {
		t.Errorf("sizes seen by init: neg=%d pos=%d", neg, pos)
	}
}

func TestMakeLibraryInitFailureFrees(t *testing.T) {
	m := newTestMachine(t, func(c *mock.Cpu, begin, until uint64) error {
		return errors.New("init crashed")
	})
	writeLongs(m, vecAddr, 0x1000, 0xffffffff)
	used := m.Alloc.Used()
	base, block, err := NewMakeLib(m).MakeLibrary(vecAddr, 0, initAddr, 34, 0, "bad.library", 0)
	if err == nil || base != 0 || block != nil {
		t.Fatalf("got base=%#x block=%v err=%v", base, block, err)
	}
	if m.Alloc.Used() != used {
		t.Error("library block leaked")
	}
}

func TestMakeLibraryNoMemory(t *testing.T) {
	m := newTestMachine(t, nil)
	// below the heap so allocations can't clobber it
	const lowVec = 0x100
	writeLongs(m, lowVec, 0x1000, 0xffffffff)
	_, _, err := NewMakeLib(m).MakeLibrary(lowVec, 0, 0, 0xfff0, 0, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	for err == nil {
		_, _, err = NewMakeLib(m).MakeLibrary(lowVec, 0, 0, 0xfff0, 0, "", 0)
	}
	if errors.Cause(err) != machine.ErrNoMemory {
		t.Errorf("err = %v", err)
	}
}

func TestMakeFuncs(t *testing.T) {
	m := newTestMachine(t, nil)
	writeWords(m, vecAddr, 0x10, 0xfff0, 0xffff)
	size, err := MakeFuncs(m, 0x20000, vecAddr, 0x5000)
	if err != nil || size != 12 {
		t.Fatalf("size=%d err=%v", size, err)
	}
	checkJump(t, m, 0x20000-6, 0x5010)
	checkJump(t, m, 0x20000-12, 0x4ff0)
}
