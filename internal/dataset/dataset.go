// Package dataset loads raw little-endian integer arrays for the benchmark.
package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
)

// ErrShortFile is returned when the file holds fewer elements than requested.
var ErrShortFile = errors.New("unable to read full file")

// Dataset is a host-resident array of fixed-width signed integers.
type Dataset struct {
	data []byte
	typ  cascaded.Type
}

// New wraps data as a dataset of typ. Trailing bytes that do not form a
// whole element are dropped.
func New(data []byte, typ cascaded.Type) (*Dataset, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("unsupported element type %s", typ)
	}
	w := typ.Size()
	return &Dataset{data: data[:len(data)/w*w], typ: typ}, nil
}

// Load reads the first count elements of typ from path, or the whole file
// when count is zero. The file has no header and its layout is not checked
// against typ.
func Load(path string, typ cascaded.Type, count int64) (*Dataset, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("unsupported element type %s", typ)
	}
	if count < 0 {
		return nil, fmt.Errorf("negative element count %d", count)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	w := int64(typ.Size())
	available := info.Size() / w
	if count == 0 {
		count = available
	}
	if count > available {
		return nil, fmt.Errorf("%s holds %d %s elements, need %d: %w", path, available, typ, count, ErrShortFile)
	}

	data := make([]byte, count*w)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &Dataset{data: data, typ: typ}, nil
}

// Type returns the element type.
func (d *Dataset) Type() cascaded.Type {
	return d.typ
}

// Len returns the number of elements.
func (d *Dataset) Len() int {
	return len(d.data) / d.typ.Size()
}

// ByteSize returns the size of the dataset in bytes.
func (d *Dataset) ByteSize() int64 {
	return int64(len(d.data))
}

// Bytes returns the raw little-endian contents.
func (d *Dataset) Bytes() []byte {
	return d.data
}

// Element returns element i sign-extended to int64.
func (d *Dataset) Element(i int) int64 {
	switch d.typ {
	case cascaded.TypeChar:
		return int64(int8(d.data[i]))
	case cascaded.TypeShort:
		return int64(int16(binary.LittleEndian.Uint16(d.data[2*i:])))
	case cascaded.TypeInt:
		return int64(int32(binary.LittleEndian.Uint32(d.data[4*i:])))
	default:
		return int64(binary.LittleEndian.Uint64(d.data[8*i:]))
	}
}

// Values returns every element sign-extended to int64.
func (d *Dataset) Values() []int64 {
	vals := make([]int64, d.Len())
	for i := range vals {
		vals[i] = d.Element(i)
	}
	return vals
}

// Sort orders the elements ascending in place.
func (d *Dataset) Sort() {
	vals := d.Values()
	slices.Sort(vals)
	w := d.typ.Size()
	for i, v := range vals {
		switch w {
		case 1:
			d.data[i] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(d.data[2*i:], uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(d.data[4*i:], uint32(v))
		default:
			binary.LittleEndian.PutUint64(d.data[8*i:], uint64(v))
		}
	}
}
