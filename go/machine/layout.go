package machine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/lunixbochs/amicorn/go/models/cpu"
)

// guest structs are big endian
var order = binary.BigEndian

type Field struct {
	Name   string
	Offset uint64
	Size   uint64
	Signed bool
}

// Layout is a guest struct definition derived from a Go struct of fixed-size
// fields. Fields are addressed by their `amiga` tag (e.g. "fh_Args") or Go name.
type Layout struct {
	Name   string
	Size   uint64
	Fields []Field
	byName map[string]*Field
	typ    reflect.Type
}

// NewLayout panics on a malformed definition, like regexp.MustCompile.
func NewLayout(name string, def interface{}) *Layout {
	typ := reflect.TypeOf(def)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("layout %s: %s is not a struct", name, typ))
	}
	l := &Layout{Name: name, byName: make(map[string]*Field), typ: typ}
	var off uint64
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		size := binary.Size(reflect.Zero(f.Type).Interface())
		if size <= 0 {
			panic(fmt.Sprintf("layout %s: field %s has no fixed size", name, f.Name))
		}
		fname := f.Tag.Get("amiga")
		if fname == "" {
			fname = f.Name
		}
		signed := false
		switch f.Type.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			signed = true
		}
		l.Fields = append(l.Fields, Field{Name: fname, Offset: off, Size: uint64(size), Signed: signed})
		off += uint64(size)
	}
	for i := range l.Fields {
		l.byName[l.Fields[i].Name] = &l.Fields[i]
	}
	// struc is what packs the struct, so its idea of the size is authoritative
	n, err := struc.Sizeof(reflect.New(typ).Interface())
	if err != nil {
		panic(fmt.Sprintf("layout %s: %v", name, err))
	}
	if uint64(n) != off {
		panic(fmt.Sprintf("layout %s: field sizes sum to %d, struc says %d", name, off, n))
	}
	l.Size = off
	return l
}

func (l *Layout) Field(name string) (*Field, error) {
	f, ok := l.byName[name]
	if !ok {
		return nil, errors.Errorf("%s has no field %q", l.Name, name)
	}
	return f, nil
}

// Access reads and writes one struct instance in guest memory.
type Access struct {
	mem    Memory
	Addr   uint64
	Layout *Layout
}

func NewAccess(mem Memory, addr uint64, layout *Layout) *Access {
	return &Access{mem: mem, Addr: addr, Layout: layout}
}

func (a *Access) WriteField(name string, val uint64) error {
	f, err := a.Layout.Field(name)
	if err != nil {
		return err
	}
	buf, err := cpu.PackUint(order, int(f.Size), nil, val)
	if err != nil {
		return err
	}
	return errors.Wrapf(a.mem.MemWrite(a.Addr+f.Offset, buf), "writing %s.%s", a.Layout.Name, name)
}

// ReadField sign-extends signed fields.
func (a *Access) ReadField(name string) (uint64, error) {
	f, err := a.Layout.Field(name)
	if err != nil {
		return 0, err
	}
	buf, err := a.mem.MemRead(a.Addr+f.Offset, f.Size)
	if err != nil {
		return 0, errors.Wrapf(err, "reading %s.%s", a.Layout.Name, name)
	}
	val, err := cpu.UnpackUint(order, int(f.Size), buf)
	if err != nil {
		return 0, err
	}
	if f.Signed {
		shift := 64 - f.Size*8
		val = uint64(int64(val<<shift) >> shift)
	}
	return val, nil
}

// Pack writes a whole struct (of the layout's Go type) to guest memory.
func (a *Access) Pack(v interface{}) error {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, v, order); err != nil {
		return errors.Wrap(err, "struc.Pack() failed")
	}
	return a.mem.MemWrite(a.Addr, buf.Bytes())
}

// Unpack reads the whole struct into v.
func (a *Access) Unpack(v interface{}) error {
	data, err := a.mem.MemRead(a.Addr, a.Layout.Size)
	if err != nil {
		return err
	}
	return errors.Wrap(struc.UnpackWithOrder(bytes.NewReader(data), v, order), "struc.Unpack() failed")
}
