package cpu

import (
	"github.com/pkg/errors"
)

type Hook interface{}

type hookInfo struct {
	htype int
	start uint64
	end   uint64
}

// start > end means "everywhere", as with Unicorn
func (h *hookInfo) Contains(addr uint64) bool {
	return h.start > h.end || addr >= h.start && addr <= h.end
}

type codeHook struct {
	hookInfo
	cb func(Cpu, uint64, uint32)
}

type intrHook struct {
	hookInfo
	cb func(Cpu, uint32)
}

type memHook struct {
	hookInfo
	cb func(Cpu, int, uint64, int, int64)
}

// Hooks is a hook registry for Cpu implementations without native hooks.
type Hooks struct {
	cpu Cpu

	code  []*codeHook
	block []*codeHook
	intr  []*intrHook
	mem   []*memHook
}

// NewHooks creates a registry, attaching it to mem when non-nil so memory
// accesses dispatch automatically.
func NewHooks(cpu Cpu, mem *Mem) *Hooks {
	h := &Hooks{cpu: cpu}
	if mem != nil {
		mem.hooks = h
	}
	return h
}

func (h *Hooks) HookAdd(htype int, cb interface{}, start uint64, end uint64, extra ...int) (Hook, error) {
	info := hookInfo{htype, start, end}
	switch htype {
	case HOOK_BLOCK, HOOK_CODE:
		fn, ok := cb.(func(Cpu, uint64, uint32))
		if !ok {
			return nil, errors.Errorf("bad callback type %T for code hook", cb)
		}
		hh := &codeHook{info, fn}
		if htype == HOOK_BLOCK {
			h.block = append(h.block, hh)
		} else {
			h.code = append(h.code, hh)
		}
		return hh, nil
	case HOOK_INTR:
		fn, ok := cb.(func(Cpu, uint32))
		if !ok {
			return nil, errors.Errorf("bad callback type %T for interrupt hook", cb)
		}
		hh := &intrHook{info, fn}
		h.intr = append(h.intr, hh)
		return hh, nil
	case HOOK_MEM_READ, HOOK_MEM_WRITE, HOOK_MEM_READ | HOOK_MEM_WRITE:
		fn, ok := cb.(func(Cpu, int, uint64, int, int64))
		if !ok {
			return nil, errors.Errorf("bad callback type %T for memory hook", cb)
		}
		hh := &memHook{info, fn}
		h.mem = append(h.mem, hh)
		return hh, nil
	}
	return nil, errors.Errorf("unknown hook type %d", htype)
}

func (h *Hooks) HookDel(hh Hook) error {
	switch v := hh.(type) {
	case *codeHook:
		h.code = delCode(h.code, v)
		h.block = delCode(h.block, v)
	case *intrHook:
		var tmp []*intrHook
		for _, o := range h.intr {
			if o != v {
				tmp = append(tmp, o)
			}
		}
		h.intr = tmp
	case *memHook:
		var tmp []*memHook
		for _, o := range h.mem {
			if o != v {
				tmp = append(tmp, o)
			}
		}
		h.mem = tmp
	default:
		return errors.Errorf("unknown hook %T", hh)
	}
	return nil
}

func delCode(list []*codeHook, hh *codeHook) []*codeHook {
	var tmp []*codeHook
	for _, v := range list {
		if v != hh {
			tmp = append(tmp, v)
		}
	}
	return tmp
}

func (h *Hooks) OnBlock(addr uint64, size uint32) {
	for _, v := range h.block {
		if v.Contains(addr) {
			v.cb(h.cpu, addr, size)
		}
	}
}

func (h *Hooks) OnCode(addr uint64, size uint32) {
	for _, v := range h.code {
		if v.Contains(addr) {
			v.cb(h.cpu, addr, size)
		}
	}
}

func (h *Hooks) OnIntr(intno uint32) {
	for _, v := range h.intr {
		v.cb(h.cpu, intno)
	}
}

func (h *Hooks) OnMem(access int, addr uint64, size int, val int64) {
	for _, v := range h.mem {
		if v.Contains(addr) {
			v.cb(h.cpu, access, addr, size, val)
		}
	}
}
