package cpu

import (
	"encoding/binary"
	"fmt"
	"testing"
)

func TestHooks(t *testing.T) {
	mem := NewMem(32, binary.BigEndian)
	h := NewHooks(nil, mem)
	var results []string
	code, err := h.HookAdd(HOOK_CODE, func(_ Cpu, addr uint64, size uint32) {
		results = append(results, fmt.Sprintf("code(%#x, %d)", addr, size))
	}, 0x1000, 0x1fff)
	if err != nil {
		t.Fatal(err)
	}
	h.HookAdd(HOOK_INTR, func(_ Cpu, intno uint32) {
		results = append(results, fmt.Sprintf("intr(%d)", intno))
	}, 1, 0)
	h.HookAdd(HOOK_MEM_WRITE, func(_ Cpu, access int, addr uint64, size int, val int64) {
		results = append(results, fmt.Sprintf("mem(%d, %#x, %d, %#x)", access, addr, size, val))
	}, 1, 0)

	mem.MemMap(0x1000, 0x1000, PROT_ALL)
	h.OnCode(0x1000, 2)
	h.OnCode(0x3000, 2) // out of range
	h.OnIntr(3)
	mem.WriteUint(0x1004, 4, PROT_WRITE, 0x42)
	h.HookDel(code)
	h.OnCode(0x1000, 2)

	expect := []string{"code(0x1000, 2)", "intr(3)", "mem(16, 0x1004, 4, 0x42)"}
	if len(results) != len(expect) {
		t.Fatalf("got %v, want %v", results, expect)
	}
	for i := range expect {
		if results[i] != expect[i] {
			t.Errorf("hook %d = %s, want %s", i, results[i], expect[i])
		}
	}
	if _, err := h.HookAdd(HOOK_CODE, func() {}, 1, 0); err == nil {
		t.Error("bad callback accepted")
	}
}
