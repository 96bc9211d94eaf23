package cpu

// Cpu is the minimum surface the machine needs from a guest CPU backend.
// Register enums are backend-neutral; see arch/m68k for the guest set.
type Cpu interface {
	// memory mapping
	MemMap(addr, size uint64, prot int) error
	MemUnmap(addr, size uint64) error

	// memory IO
	MemRead(addr, size uint64) ([]byte, error)
	MemReadInto(p []byte, addr uint64) error
	MemWrite(addr uint64, p []byte) error

	// register IO
	RegRead(reg int) (uint64, error)
	RegWrite(reg int, val uint64) error

	// execution: runs from begin until pc == until, an error, or Stop()
	Start(begin, until uint64) error
	Stop() error

	// hooks
	HookAdd(htype int, cb interface{}, begin, end uint64, extra ...int) (Hook, error)
	HookDel(hook Hook) error

	// save/restore register state
	ContextSave(reuse interface{}) (interface{}, error)
	ContextRestore(ctx interface{}) error

	Close() error
}

// Builder creates a fresh Cpu for a session.
type Builder interface {
	New() (Cpu, error)
}
