package cascaded

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	testCases := []struct {
		name string
		want Type
		size int
	}{
		{"int8", TypeChar, 1},
		{"short", TypeShort, 2},
		{"int", TypeInt, 4},
		{"long", TypeLongLong, 8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typ, err := ParseType(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, typ)
			assert.Equal(t, tc.size, typ.Size())
			assert.Equal(t, tc.name, typ.String())
			assert.True(t, typ.Valid())
		})
	}

	_, err := ParseType("float")
	assert.ErrorContains(t, err, "unknown type")
	assert.False(t, Type(7).Valid())
	assert.Equal(t, "Type(7)", Type(7).String())
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, []string{"int8", "short", "int", "long"}, TypeNames())
}

func TestDefaultFormatOptions(t *testing.T) {
	opts := DefaultFormatOptions()
	assert.Equal(t, FormatOptions{NumRLEs: 1}, opts)
	assert.Equal(t, "rles=1 deltas=0 bitpack=false", opts.String())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusOf(nil))
	assert.Equal(t, StatusInternal, StatusOf(errors.New("boom")))

	err := newError(OpDecompressAsync, StatusCannotDecompress, "chunk %d", 3)
	assert.Equal(t, StatusCannotDecompress, StatusOf(err))
	assert.EqualError(t, err, "DecompressAsync: cannot decompress: chunk 3")

	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, OpDecompressAsync, engineErr.Op)
}
