package cpu

// hook enums follow Unicorn's numbering so backends can pass them through
const (
	HOOK_INTR  = 1
	HOOK_CODE  = 4
	HOOK_BLOCK = 8

	HOOK_MEM_READ  = 1024
	HOOK_MEM_WRITE = 2048
)

// memory fault kinds reported in MemError
const (
	MEM_READ_UNMAPPED  = 19
	MEM_WRITE_UNMAPPED = 20
	MEM_FETCH_UNMAPPED = 21
	MEM_WRITE_PROT     = 12
	MEM_READ_PROT      = 13
	MEM_FETCH_PROT     = 14
)

// access kinds passed to memory hooks
const (
	MEM_WRITE = 16
	MEM_READ  = 17
	MEM_FETCH = 18
)

const (
	PROT_NONE  = 0
	PROT_READ  = 1
	PROT_WRITE = 2
	PROT_EXEC  = 4
	PROT_ALL   = 7
)
