package common

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/machine"
	"github.com/lunixbochs/amicorn/go/models"
	"github.com/lunixbochs/amicorn/go/models/mock"
)

type testKernel struct {
	KernelBase
	name  string
	count Len
	fh    BPTR
}

func (k *testKernel) Open(name string, mode Long) uint64 {
	k.name = name
	if mode < 0 {
		return 0
	}
	return 44
}

func (k *testKernel) Write(fh BPTR, buf Buf, n Len) int32 {
	k.fh = fh
	k.count = n
	return int32(n)
}

func (k *testKernel) Raw(args []uint64, a Ptr) uint64 {
	return uint64(len(args)) + uint64(a)
}

func (k *testKernel) Check(code Long) (int32, error) {
	if code < 0 {
		return 0, errors.New("negative code")
	}
	return int32(code), nil
}

func (k *testKernel) private() {}

func newTestMachine(t *testing.T) *machine.Machine {
	m, err := machine.New(mock.NewCpu(), &models.Config{RamSize: 0x10000, StackSize: 0x400, MaxRunDepth: 2})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestKernel(t *testing.T) {
	m := newTestMachine(t)
	m.WriteStr(0x2000, "ram:foo")
	k := &testKernel{}
	sys := Lookup(m, k, "Open")
	if sys == nil {
		t.Fatal("Open not registered")
	}
	ret, err := sys.Call([]uint64{0x2000, 1005})
	if err != nil {
		t.Fatal(err)
	}
	if ret != 44 || k.name != "ram:foo" {
		t.Fatalf("ret=%d name=%q", ret, k.name)
	}
	if ret, _ := sys.Call([]uint64{0x2000, 0xffffffff}); ret != 0 {
		t.Errorf("negative mode not sign-extended, ret=%d", ret)
	}
	if Lookup(m, k, "private") != nil || Lookup(m, k, "Base") != nil {
		t.Error("non-library methods registered")
	}
}

func TestKernelTypes(t *testing.T) {
	m := newTestMachine(t)
	m.Cpu.MemWrite(0x3000, []byte("hello"))
	k := &testKernel{}
	sys := Lookup(m, k, "Write")
	ret, err := sys.Call([]uint64{0x400, 0x3000, 5})
	if err != nil {
		t.Fatal(err)
	}
	if ret != 5 || k.count != 5 || k.fh.Addr() != 0x1000 {
		t.Errorf("ret=%d count=%d fh=%#x", ret, k.count, k.fh.Addr())
	}
	if got := sys.Trace([]uint64{0x400, 0x3000, 5}); got != `Write(b0x400, "hello", 5)` {
		t.Errorf("trace = %s", got)
	}
	if _, err := sys.Call([]uint64{1}); err == nil {
		t.Error("short argument list should fail")
	}
	raw := Lookup(m, k, "Raw")
	if ret, _ := raw.Call([]uint64{7, 8}); ret != 9 {
		t.Errorf("Raw = %d", ret)
	}
}

func TestBufStruc(t *testing.T) {
	m := newTestMachine(t)
	k := &testKernel{}
	Lookup(m, k, "Open")
	type pair struct {
		A uint16
		B uint32
	}
	buf := NewBuf(k, 0x4000)
	if err := buf.Pack(&pair{1, 0x01020304}); err != nil {
		t.Fatal(err)
	}
	raw, _ := buf.Read(6)
	if raw[1] != 1 || raw[2] != 1 || raw[5] != 4 {
		t.Errorf("packed % x", raw)
	}
	var out pair
	if err := buf.Unpack(&out); err != nil {
		t.Fatal(err)
	}
	if out.B != 0x01020304 {
		t.Errorf("unpacked %+v", out)
	}
}

func TestKernelError(t *testing.T) {
	m := newTestMachine(t)
	sys := Lookup(m, &testKernel{}, "Check")
	if ret, err := sys.Call([]uint64{7}); err != nil || ret != 7 {
		t.Errorf("Check(7) = %d, %v", ret, err)
	}
	if _, err := sys.Call([]uint64{0xffffffff}); err == nil {
		t.Error("error result was dropped")
	}
}
