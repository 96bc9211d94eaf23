package common

import (
	"bytes"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

type (
	// Buf is a guest pointer to memory the call reads or fills.
	Buf struct {
		Addr uint64
		K    *KernelBase
	}
	// Obuf is a buffer the call writes into.
	Obuf struct{ Buf }
	Len  uint64
	Ptr  uint64
	// BPTR is a guest longword pointer (byte address >> 2).
	BPTR uint32
	// Long is a register value taken as signed.
	Long int32
)

func NewBuf(k Kernel, addr uint64) Buf {
	return Buf{K: k.Base(), Addr: addr}
}

func (b Buf) Read(n uint64) ([]byte, error) {
	return b.K.M.Cpu.MemRead(b.Addr, n)
}

func (b Buf) Write(p []byte) error {
	return b.K.M.Cpu.MemWrite(b.Addr, p)
}

func (b Buf) Pack(i interface{}) error {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, i, order); err != nil {
		return errors.Wrap(err, "struc.Pack() failed")
	}
	return b.Write(buf.Bytes())
}

func (b Buf) Unpack(i interface{}) error {
	n, err := b.Sizeof(i)
	if err != nil {
		return err
	}
	data, err := b.Read(uint64(n))
	if err != nil {
		return err
	}
	return errors.Wrap(struc.UnpackWithOrder(bytes.NewReader(data), i, order), "struc.Unpack() failed")
}

func (b Buf) Sizeof(i interface{}) (int, error) {
	n, err := struc.Sizeof(i)
	return n, errors.Wrap(err, "struc.Sizeof() failed")
}

// Addr converts a BPTR to its byte address.
func (p BPTR) Addr() uint64 {
	return uint64(p) << 2
}
