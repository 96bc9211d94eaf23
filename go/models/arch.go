package models

import (
	"fmt"
	"sort"

	"github.com/lunixbochs/fvbommel-util/sortorder"

	"github.com/lunixbochs/amicorn/go/models/cpu"
)

type Reg struct {
	Enum int
	Name string
}

type RegVal struct {
	Reg
	Val uint64
}

type regList []Reg

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

// Arch describes a guest CPU: word size and register enums.
type Arch struct {
	Name string
	Bits int
	PC   int
	SP   int
	Regs map[string]int

	// sorted for RegDump
	regList regList
}

func (a *Arch) String() string {
	return fmt.Sprintf("<Arch %s/%d>", a.Name, a.Bits)
}

// Enums lists every register enum, for cpu.NewRegs.
func (a *Arch) Enums() []int {
	ret := make([]int, 0, len(a.Regs))
	for _, e := range a.Regs {
		ret = append(ret, e)
	}
	sort.Ints(ret)
	return ret
}

// RegDump reads every register, naturally ordered by name (d2 before d10).
func (a *Arch) RegDump(c cpu.Cpu) ([]RegVal, error) {
	if a.regList == nil {
		rl := make(regList, 0, len(a.Regs))
		for name, enum := range a.Regs {
			rl = append(rl, Reg{enum, name})
		}
		sort.Sort(rl)
		a.regList = rl
	}
	ret := make([]RegVal, len(a.regList))
	for i, r := range a.regList {
		val, err := c.RegRead(r.Enum)
		if err != nil {
			return nil, err
		}
		ret[i] = RegVal{r, val}
	}
	return ret, nil
}
