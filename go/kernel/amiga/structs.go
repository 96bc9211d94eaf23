package amiga

import (
	"github.com/lunixbochs/amicorn/go/machine"
)

// FileHandle is dos/dosextens.h struct FileHandle.
type FileHandle struct {
	Link  uint32 `amiga:"fh_Link"`
	Port  uint32 `amiga:"fh_Port"`
	Type  uint32 `amiga:"fh_Type"`
	Buf   uint32 `amiga:"fh_Buf"`
	Pos   uint32 `amiga:"fh_Pos"`
	End   uint32 `amiga:"fh_End"`
	Funcs uint32 `amiga:"fh_Funcs"`
	Func2 uint32 `amiga:"fh_Func2"`
	Func3 uint32 `amiga:"fh_Func3"`
	Args  uint32 `amiga:"fh_Args"`
	Arg2  uint32 `amiga:"fh_Arg2"`
}

// Library is exec/libraries.h struct Library, node header included.
type Library struct {
	Succ     uint32 `amiga:"ln_Succ"`
	Pred     uint32 `amiga:"ln_Pred"`
	Type     uint8  `amiga:"ln_Type"`
	Pri      int8   `amiga:"ln_Pri"`
	Name     uint32 `amiga:"ln_Name"`
	Flags    uint8  `amiga:"lib_Flags"`
	Pad      uint8  `amiga:"lib_pad"`
	NegSize  uint16 `amiga:"lib_NegSize"`
	PosSize  uint16 `amiga:"lib_PosSize"`
	Version  uint16 `amiga:"lib_Version"`
	Revision uint16 `amiga:"lib_Revision"`
	IdString uint32 `amiga:"lib_IdString"`
	Sum      uint32 `amiga:"lib_Sum"`
	OpenCnt  uint16 `amiga:"lib_OpenCnt"`
}

var (
	FileHandleDef = machine.NewLayout("FileHandle", FileHandle{})
	LibraryDef    = machine.NewLayout("Library", Library{})
)

// node types
const (
	NT_LIBRARY = 9
)
