package container

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// DType identifies the element type of a dataset or attribute
type DType uint8

const (
	Invalid DType = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	String
)

var dtypeNames = [...]string{"invalid", "int8", "uint8", "int16", "uint16", "int32",
	"uint32", "int64", "uint64", "float32", "float64", "string"}

func (t DType) String() string {
	if int(t) < len(dtypeNames) {
		return dtypeNames[t]
	}
	return fmt.Sprintf("DType(%d)", uint8(t))
}

// Size returns the width in bytes of one element; 0 for variable-width types
func (t DType) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// Element is the set of fixed-width types a dataset may hold
type Element interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// TypeOf returns the DType of T
func TypeOf[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case uint8:
		return Uint8
	case int16:
		return Int16
	case uint16:
		return Uint16
	case int32:
		return Int32
	case uint32:
		return Uint32
	case int64:
		return Int64
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Invalid
}

// Dataset is an n-dimensional array of fixed-width elements stored
// little-endian in Data. Dims lists the extent of each axis, slowest first.
type Dataset struct {
	Name string
	Type DType
	Dims []uint64
	Data []byte
}

// NumElements is the product of Dims
func (d *Dataset) NumElements() uint64 {
	if len(d.Dims) == 0 {
		return 0
	}
	n := uint64(1)
	for _, v := range d.Dims {
		n *= v
	}
	return n
}

// Tuples is the extent of the slowest axis
func (d *Dataset) Tuples() uint64 {
	if len(d.Dims) == 0 {
		return 0
	}
	return d.Dims[0]
}

// NewDataset encodes data as a dataset of shape dims. The product of dims
// must equal len(data).
func NewDataset[T Element](name string, dims []uint64, data []T) (*Dataset, error) {
	t := TypeOf[T]()
	ds := &Dataset{Name: name, Type: t, Dims: append([]uint64(nil), dims...)}
	if n := ds.NumElements(); len(dims) == 0 || n != uint64(len(data)) {
		return nil, errors.Errorf("dataset %q: shape %v holds %d elements, data has %d",
			name, dims, n, len(data))
	}
	ds.Data = make([]byte, 0, len(data)*t.Size())
	if len(data) > 0 {
		var err error
		if ds.Data, err = binary.Append(ds.Data, binary.LittleEndian, data); err != nil {
			return nil, errors.Wrapf(err, "encoding dataset %q", name)
		}
	}
	return ds, nil
}

// Values decodes the dataset into a new slice of T
func Values[T Element](d *Dataset) ([]T, error) {
	if want := TypeOf[T](); d.Type != want {
		return nil, errors.Wrapf(ErrTypeMismatch, "dataset %q holds %s, requested %s", d.Name, d.Type, want)
	}
	n := d.NumElements()
	if uint64(len(d.Data)) != n*uint64(d.Type.Size()) {
		return nil, errors.Wrapf(ErrCorrupt, "dataset %q: %d bytes for %d %s elements",
			d.Name, len(d.Data), n, d.Type)
	}
	out := make([]T, n)
	if n > 0 {
		if _, err := binary.Decode(d.Data, binary.LittleEndian, out); err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "dataset %q: %v", d.Name, err)
		}
	}
	return out, nil
}

func (d *Dataset) Float32s() ([]float32, error) { return Values[float32](d) }
func (d *Dataset) Float64s() ([]float64, error) { return Values[float64](d) }
func (d *Dataset) Int64s() ([]int64, error)     { return Values[int64](d) }
func (d *Dataset) Uint64s() ([]uint64, error)   { return Values[uint64](d) }

// Bytes returns the raw payload of a Uint8 dataset
func (d *Dataset) Bytes() ([]byte, error) {
	if d.Type != Uint8 {
		return nil, errors.Wrapf(ErrTypeMismatch, "dataset %q holds %s, requested uint8", d.Name, d.Type)
	}
	return append([]byte(nil), d.Data...), nil
}

// Clone returns a deep copy of d
func (d *Dataset) Clone() *Dataset {
	return &Dataset{
		Name: d.Name,
		Type: d.Type,
		Dims: append([]uint64(nil), d.Dims...),
		Data: append([]byte(nil), d.Data...),
	}
}

const datasetVersion = 1

// encode lays out version, type, rank, dims and payload
func (d *Dataset) encode() []byte {
	buf := make([]byte, 0, 3+8*len(d.Dims)+len(d.Data))
	buf = append(buf, datasetVersion, byte(d.Type), byte(len(d.Dims)))
	for _, v := range d.Dims {
		buf = binary.LittleEndian.AppendUint64(buf, v)
	}
	return append(buf, d.Data...)
}

func decodeDataset(name string, buf []byte, withData bool) (*Dataset, error) {
	if len(buf) < 3 || buf[0] != datasetVersion {
		return nil, errors.Wrapf(ErrCorrupt, "dataset %q: bad header", name)
	}
	d := &Dataset{Name: name, Type: DType(buf[1])}
	rank := int(buf[2])
	if d.Type.Size() == 0 || len(buf) < 3+8*rank {
		return nil, errors.Wrapf(ErrCorrupt, "dataset %q: bad header", name)
	}
	d.Dims = make([]uint64, rank)
	for i := range d.Dims {
		d.Dims[i] = binary.LittleEndian.Uint64(buf[3+8*i:])
	}
	payload := buf[3+8*rank:]
	if uint64(len(payload)) != d.NumElements()*uint64(d.Type.Size()) {
		return nil, errors.Wrapf(ErrCorrupt, "dataset %q: %d payload bytes for shape %v of %s",
			name, len(payload), d.Dims, d.Type)
	}
	if withData {
		d.Data = append([]byte(nil), payload...)
	}
	return d, nil
}

// Attribute is a scalar string or uint32 annotation on a group
type Attribute struct {
	Type DType // String or Uint32
	str  string
	u32  uint32
}

func StringAttribute(s string) Attribute { return Attribute{Type: String, str: s} }
func Uint32Attribute(v uint32) Attribute { return Attribute{Type: Uint32, u32: v} }

func (a Attribute) AsString() (string, error) {
	if a.Type != String {
		return "", errors.Wrapf(ErrTypeMismatch, "attribute holds %s, requested string", a.Type)
	}
	return a.str, nil
}

func (a Attribute) AsUint32() (uint32, error) {
	if a.Type != Uint32 {
		return 0, errors.Wrapf(ErrTypeMismatch, "attribute holds %s, requested uint32", a.Type)
	}
	return a.u32, nil
}

func (a Attribute) encode() []byte {
	if a.Type == Uint32 {
		return binary.LittleEndian.AppendUint32([]byte{byte(Uint32)}, a.u32)
	}
	return append([]byte{byte(String)}, a.str...)
}

func decodeAttribute(name string, buf []byte) (Attribute, error) {
	if len(buf) > 0 {
		switch DType(buf[0]) {
		case String:
			return StringAttribute(string(buf[1:])), nil
		case Uint32:
			if len(buf) == 5 {
				return Uint32Attribute(binary.LittleEndian.Uint32(buf[1:])), nil
			}
		}
	}
	return Attribute{}, errors.Wrapf(ErrCorrupt, "attribute %q", name)
}
