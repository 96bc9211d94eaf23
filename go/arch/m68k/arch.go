package m68k

import (
	"github.com/lunixbochs/amicorn/go/models"
)

// Register enums. These are backend-neutral: the unicorn backend translates
// them, pure-Go backends use them directly.
const (
	A0 = iota + 1
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	D0
	D1
	D2
	D3
	D4
	D5
	D6
	D7
	SR
	PC

	SP = A7
)

// opcodes the library builder and machine write into guest memory
const (
	OpJmpAbsL = 0x4ef9
	OpRts     = 0x4e75
	OpIllegal = 0x4afc
)

var Arch = &models.Arch{
	Name: "m68k",
	Bits: 32,
	PC:   PC,
	SP:   SP,
	Regs: map[string]int{
		"d0": D0, "d1": D1, "d2": D2, "d3": D3,
		"d4": D4, "d5": D5, "d6": D6, "d7": D7,
		"a0": A0, "a1": A1, "a2": A2, "a3": A3,
		"a4": A4, "a5": A5, "a6": A6, "sp": A7,
		"sr": SR, "pc": PC,
	},
}
