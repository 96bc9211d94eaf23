package common

import (
	"encoding/binary"

	"github.com/lunixbochs/argjoy"
)

var order = binary.BigEndian

func (k *KernelBase) commonArgCodec(arg interface{}, vals []interface{}) error {
	if reg, ok := vals[0].(uint64); ok {
		switch v := arg.(type) {
		case *Buf:
			*v = NewBuf(k, reg)
		case *Obuf:
			*v = Obuf{NewBuf(k, reg)}
		case *Len:
			*v = Len(reg)
		case *Ptr:
			*v = Ptr(reg)
		case *BPTR:
			*v = BPTR(reg)
		case *Long:
			*v = Long(int32(uint32(reg)))
		case *uint32:
			*v = uint32(reg)
		case *string:
			if reg == 0 {
				*v = ""
				return nil
			}
			s, err := k.M.ReadStr(reg)
			if err != nil {
				return err
			}
			*v = s
		default:
			return argjoy.NoMatch
		}
		return nil
	}
	return argjoy.NoMatch
}
