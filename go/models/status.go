package models

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"

	"github.com/lunixbochs/amicorn/go/models/cpu"
)

var chNew = ansi.ColorCode("default+bu:default")

type Change struct {
	Old, New uint64
	Enum     int
	Name     string
}

func (c *Change) Changed() bool {
	return c.Old != c.New
}

func (c *Change) String(bsz int, color bool) string {
	hexFmt := fmt.Sprintf("%%0%dx", bsz)
	val := fmt.Sprintf(hexFmt, c.New)
	name := fmt.Sprintf("%4s", c.Name)
	if !c.Changed() {
		return fmt.Sprintf(" %s 0x%s", name, val)
	}
	if color {
		return fmt.Sprintf(" %s%s%s 0x%s%s%s", chNew, name, ansi.Reset, chNew, val, ansi.Reset)
	}
	return fmt.Sprintf("+%s 0x%s", name, val)
}

type Changes struct {
	Bsz     int
	Changes []*Change
}

func (cs *Changes) Count() int {
	n := 0
	for _, c := range cs.Changes {
		if c.Changed() {
			n++
		}
	}
	return n
}

// String renders four registers per line.
func (cs *Changes) String(color bool) string {
	var out []string
	for i := 0; i < len(cs.Changes); i += 4 {
		end := i + 4
		if end > len(cs.Changes) {
			end = len(cs.Changes)
		}
		var line []string
		for _, c := range cs.Changes[i:end] {
			line = append(line, c.String(cs.Bsz, color))
		}
		out = append(out, strings.Join(line, " "))
	}
	return strings.Join(out, "\n")
}

// StatusDiff tracks register changes between calls to Changes.
type StatusDiff struct {
	Arch    *Arch
	Cpu     cpu.Cpu
	oldRegs map[int]uint64
}

func (s *StatusDiff) Changes(onlyChanged bool) (*Changes, error) {
	regs, err := s.Arch.RegDump(s.Cpu)
	if err != nil {
		return nil, err
	}
	cs := make([]*Change, 0, len(regs))
	for _, reg := range regs {
		change := &Change{Old: s.oldRegs[reg.Enum], New: reg.Val, Enum: reg.Enum, Name: reg.Name}
		if !onlyChanged || change.Changed() {
			cs = append(cs, change)
		}
	}
	s.oldRegs = make(map[int]uint64, len(regs))
	for _, r := range regs {
		s.oldRegs[r.Enum] = r.Val
	}
	return &Changes{Bsz: s.Arch.Bits / 4, Changes: cs}, nil
}
