package common

import (
	"reflect"

	"github.com/pkg/errors"
)

type Syscall struct {
	Name     string
	Kernel   *KernelBase
	Instance reflect.Value
	Method   reflect.Method
	In       []reflect.Type
	Out      []reflect.Type
	// method takes the raw register values as its first argument
	UintArr bool
}

var (
	uint64Type = reflect.TypeOf(uint64(0))
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// Call converts raw register values into the method's argument types and
// invokes it. The first result, if integral, becomes the return value. A
// trailing error result aborts the call.
func (sys Syscall) Call(args []uint64) (uint64, error) {
	if len(args) < len(sys.In) {
		return 0, errors.Errorf("%s: wanted %d arguments, got %d", sys.Name, len(sys.In), len(args))
	}
	extraArgs := 1
	if sys.UintArr {
		extraArgs++
	}
	in := make([]reflect.Value, len(sys.In)+extraArgs)
	in[0] = sys.Instance
	if sys.UintArr {
		in[1] = reflect.ValueOf(args)
	}
	converted, err := sys.Kernel.Argjoy.Convert(sys.In, false, args)
	if err != nil {
		return 0, errors.Wrapf(err, "calling %T.%s()", sys.Instance.Interface(), sys.Method.Name)
	}
	copy(in[extraArgs:], converted)
	out := sys.Method.Func.Call(in)
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return 0, err
		}
	}
	if len(out) > 0 && out[0].Type().ConvertibleTo(uint64Type) {
		return out[0].Convert(uint64Type).Uint(), nil
	}
	return 0, nil
}
