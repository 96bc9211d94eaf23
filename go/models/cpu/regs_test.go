package cpu

import (
	"testing"
)

func makeRegs(bits uint) ([]int, *Regs) {
	enums := make([]int, 19)
	for i := range enums {
		enums[i] = i + 1
	}
	return enums, NewRegs(bits, enums)
}

func BenchmarkRegsWrite(b *testing.B) {
	enums, regs := makeRegs(32)
	for i := 0; i < b.N; i++ {
		regs.RegWrite(enums[i%len(enums)], uint64(i))
	}
}

func TestRegs(t *testing.T) {
	enums, regs := makeRegs(32)
	ctx, err := regs.ContextSave(nil)
	if err != nil {
		t.Fatal(err, "initial ContextSave() failed")
	}
	for i, e := range enums {
		if err := regs.RegWrite(e, uint64(i*2)|0x100000000); err != nil {
			t.Fatal(err)
		}
	}
	for i, e := range enums {
		if val, _ := regs.RegRead(e); val != uint64(i*2) {
			t.Fatalf("register %d = %#x, mask not applied", e, val)
		}
	}
	if err := regs.ContextRestore(ctx); err != nil {
		t.Fatal(err)
	}
	for _, e := range enums {
		if val, _ := regs.RegRead(e); val != 0 {
			t.Fatal("ContextRestore() did not restore zeroes")
		}
	}
	if _, err := regs.RegRead(100); err == nil {
		t.Error("read of unknown register succeeded")
	}
	if err := regs.ContextRestore("bogus"); err == nil {
		t.Error("restore of bad context succeeded")
	}
}
