package cascaded

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Type is the element type of the data handed to the engine.
type Type int

const (
	// TypeChar is a signed 8-bit integer
	TypeChar Type = iota
	// TypeShort is a signed 16-bit integer
	TypeShort
	// TypeInt is a signed 32-bit integer
	TypeInt
	// TypeLongLong is a signed 64-bit integer
	TypeLongLong
)

var typeNames = map[string]Type{
	"int8":  TypeChar,
	"short": TypeShort,
	"int":   TypeInt,
	"long":  TypeLongLong,
}

// ParseType maps the command line spelling of a type to a Type.
func ParseType(name string) (Type, error) {
	t, ok := typeNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown type %q (want one of %v)", name, TypeNames())
	}
	return t, nil
}

// TypeNames lists the accepted type spellings ordered by width.
func TypeNames() []string {
	names := lo.Keys(typeNames)
	sort.Slice(names, func(i, j int) bool {
		return typeNames[names[i]] < typeNames[names[j]]
	})
	return names
}

// Size returns the width of one element in bytes.
func (t Type) Size() int {
	switch t {
	case TypeChar:
		return 1
	case TypeShort:
		return 2
	case TypeInt:
		return 4
	case TypeLongLong:
		return 8
	default:
		return 0
	}
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	return t.Size() != 0
}

func (t Type) String() string {
	for name, typ := range typeNames {
		if typ == t {
			return name
		}
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// FormatOptions describes the shape of the cascaded pipeline.
// Values are passed through to the engine as given; the engine rejects
// combinations it cannot run.
type FormatOptions struct {
	NumRLEs       int  `yaml:"rles"`
	NumDeltas     int  `yaml:"deltas"`
	UseBitPacking bool `yaml:"bitpack"`
}

// DefaultFormatOptions is one RLE stage, no deltas, no bit-packing.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{NumRLEs: 1}
}

func (o FormatOptions) String() string {
	return fmt.Sprintf("rles=%d deltas=%d bitpack=%t", o.NumRLEs, o.NumDeltas, o.UseBitPacking)
}
