package common

import (
	"fmt"
	"strconv"
	"strings"
)

const traceStrsize = 32

func repr(p []byte) string {
	if len(p) > traceStrsize {
		return strconv.Quote(string(p[:traceStrsize])) + "..."
	}
	return strconv.Quote(string(p))
}

func (s Syscall) traceArg(args ...interface{}) string {
	hex := func(a interface{}) string {
		tmp := fmt.Sprintf("0x%x", a)
		if strings.HasPrefix(tmp, "0x-") {
			tmp = "-0x" + tmp[3:]
		}
		return tmp
	}

	switch arg := args[0].(type) {
	case Obuf:
		return hex(arg.Addr)
	case Buf:
		if len(args) > 1 {
			if length, ok := args[1].(Len); ok {
				mem, _ := arg.Read(uint64(length))
				return repr(mem)
			}
		}
		return hex(arg.Addr)
	case Ptr:
		return hex(uint64(arg))
	case BPTR:
		return fmt.Sprintf("b%#x", uint32(arg))
	case Long:
		return fmt.Sprintf("%d", int32(arg))
	case string:
		return repr([]byte(arg))
	case uint64:
		return hex(arg)
	default:
		return fmt.Sprintf("%v", arg)
	}
}

func (s Syscall) traceArgs(regs []uint64) string {
	inRef, err := s.Kernel.Argjoy.Convert(s.In, false, regs)
	if err != nil {
		return err.Error()
	}
	in := make([]interface{}, len(inRef))
	for i, val := range inRef {
		in[i] = val.Interface()
	}
	ret := make([]string, len(in))
	for i := range in {
		ret[i] = s.traceArg(in[i:]...)
	}
	return strings.Join(ret, ", ")
}

// Trace renders the call as name(args).
func (s Syscall) Trace(regs []uint64) string {
	return fmt.Sprintf("%s(%s)", s.Name, s.traceArgs(regs))
}

func (s Syscall) TraceRet(ret uint64) string {
	if len(s.Out) == 0 {
		return ""
	}
	return " = " + s.traceArg(ret)
}
