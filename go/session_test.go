package amicorn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lunixbochs/amicorn/go/arch/m68k"
	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	"github.com/lunixbochs/amicorn/go/machine"
	"github.com/lunixbochs/amicorn/go/models"
	"github.com/lunixbochs/amicorn/go/models/mock"
)

func newTestSession(t *testing.T, onStart func(c *mock.Cpu, begin, until uint64) error) (*Session, string) {
	dir := t.TempDir()
	config := &models.Config{
		RamSize:     0x40000,
		StackSize:   0x800,
		MaxRunDepth: 4,
		Volumes:     map[string]string{"work": dir},
		Cwd:         "work:",
	}
	s, err := NewSession(config, &mock.Builder{OnStart: onStart})
	if err != nil {
		t.Fatal(err)
	}
	return s, dir
}

// libCall emulates jsr lvo(base) from guest code.
func libCall(c *mock.Cpu, base uint32, lvo int) {
	stub, _ := c.ReadUint(uint64(int64(base)+int64(lvo)+2), 4, 0)
	c.Step(stub)
}

func TestSessionLibraries(t *testing.T) {
	s, _ := newTestSession(t, nil)
	defer s.Close()
	if execBase, _ := s.M.R32(machine.ExecBasePtr); execBase != s.ExecBase || execBase == 0 {
		t.Fatalf("ExecBase = %#x, session says %#x", execBase, s.ExecBase)
	}
	for base, name := range map[uint32]string{s.ExecBase: "exec.library", s.DosBase: "dos.library"} {
		lib := machine.NewAccess(s.M.Cpu, uint64(base), amiga.LibraryDef)
		ptr, _ := lib.ReadField("ln_Name")
		if got, _ := s.M.ReadStr(ptr); got != name {
			t.Errorf("library at %#x is %q, want %q", base, got, name)
		}
	}
	if s.Files.Files() != 2 {
		t.Errorf("std streams not set up: %d", s.Files.Files())
	}
}

func TestSessionGuestCalls(t *testing.T) {
	var s *Session
	var out uint32
	s, dir := newTestSession(t, func(c *mock.Cpu, begin, until uint64) error {
		libCall(c, s.DosBase, -60)
		d0, _ := c.RegRead(m68k.D0)
		out = uint32(d0)
		// CreateDir("work:made")
		s.M.WriteStr(0x30000, "work:made")
		c.RegWrite(m68k.D1, 0x30000)
		libCall(c, s.DosBase, -120)
		return nil
	})
	defer s.Close()
	if _, err := s.M.Run(0x5000, machine.RunOpts{Name: "guest"}); err != nil {
		t.Fatal(err)
	}
	if out != s.Files.Output().BAddr {
		t.Errorf("Output() = %#x", out)
	}
	if fi, err := os.Stat(filepath.Join(dir, "made")); err != nil || !fi.IsDir() {
		t.Errorf("guest CreateDir did not reach the host: %v", err)
	}
}

func TestSessionMakeLibrary(t *testing.T) {
	var s *Session
	s, _ = newTestSession(t, func(c *mock.Cpu, begin, until uint64) error {
		// init routine: A6 must be ExecBase; bump the base so the override shows
		a6, _ := c.RegRead(m68k.A6)
		if uint32(a6) != s.ExecBase {
			return nil
		}
		d0, _ := c.RegRead(m68k.D0)
		return c.RegWrite(m68k.D0, d0+0x100)
	})
	defer s.Close()
	code := make([]byte, 0x20)
	// pointer table at 0: one vector to offset 0x10, then -1
	copy(code, []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff})
	base, block, err := s.MakeLibrary(code, 0, -1, 0x10, 34, "test.library")
	if err != nil {
		t.Fatal(err)
	}
	if uint64(base) != block.Addr+8+0x100 {
		t.Errorf("base = %#x, block = %s", base, block)
	}
}

func TestSessionCloseFreesAll(t *testing.T) {
	s, _ := newTestSession(t, nil)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if used := s.M.Alloc.Used(); used != 0 {
		t.Errorf("%#x bytes still allocated: %v", used, s.M.Alloc.Blocks())
	}
}
