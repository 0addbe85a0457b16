package dataset

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataDir = "../../fixtures/tests/data"

func TestLoad(t *testing.T) {
	t.Run("whole file", func(t *testing.T) {
		ds, err := Load(filepath.Join(dataDir, "rle_int32.bin"), cascaded.TypeInt, 0)
		require.NoError(t, err)
		assert.Equal(t, 8, ds.Len())
		assert.Equal(t, int64(32), ds.ByteSize())
		assert.Equal(t, []int64{5, 5, 5, 3, 3, 1, 1, 1}, ds.Values())
	})

	t.Run("truncated to first elements", func(t *testing.T) {
		ds, err := Load(filepath.Join(dataDir, "rle_int32.bin"), cascaded.TypeInt, 4)
		require.NoError(t, err)
		assert.Equal(t, []int64{5, 5, 5, 3}, ds.Values())
		assert.Equal(t, int64(16), ds.ByteSize())
	})

	t.Run("long elements", func(t *testing.T) {
		ds, err := Load(filepath.Join(dataDir, "ramp_int64.bin"), cascaded.TypeLongLong, 0)
		require.NoError(t, err)
		assert.Equal(t, 8, ds.Len())
		assert.Equal(t, int64(-3), ds.Element(0))
		assert.Equal(t, int64(1<<40), ds.Element(7))
	})

	t.Run("mismatched type is not detected", func(t *testing.T) {
		ds, err := Load(filepath.Join(dataDir, "ramp_int64.bin"), cascaded.TypeInt, 0)
		require.NoError(t, err)
		assert.Equal(t, 16, ds.Len())
		// low and high halves of -3
		assert.Equal(t, int64(-3), ds.Element(0))
		assert.Equal(t, int64(-1), ds.Element(1))
	})

	t.Run("trailing partial element ignored", func(t *testing.T) {
		ds, err := Load(filepath.Join(dataDir, "ragged_int16.bin"), cascaded.TypeShort, 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{7, -7, 7}, ds.Values())
	})

	t.Run("more elements than the file holds", func(t *testing.T) {
		_, err := Load(filepath.Join(dataDir, "rle_int32.bin"), cascaded.TypeInt, 9)
		assert.ErrorIs(t, err, ErrShortFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.bin"), cascaded.TypeInt, 0)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := Load(filepath.Join(dataDir, "rle_int32.bin"), cascaded.Type(12), 0)
		assert.Error(t, err)
		_, err = Load(filepath.Join(dataDir, "rle_int32.bin"), cascaded.TypeInt, -1)
		assert.Error(t, err)
	})
}

func TestElement(t *testing.T) {
	data := []byte{0xff, 0x80, 0x7f, 0x00}
	testCases := []struct {
		typ  cascaded.Type
		want []int64
	}{
		{cascaded.TypeChar, []int64{-1, -128, 127, 0}},
		{cascaded.TypeShort, []int64{-32513, 127}},
		{cascaded.TypeInt, []int64{0x007f80ff}},
	}

	for _, tc := range testCases {
		t.Run(tc.typ.String(), func(t *testing.T) {
			ds, err := New(data, tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ds.Values())
		})
	}
}

func TestSort(t *testing.T) {
	vals := []int64{math.MaxInt64, -5, 0, math.MinInt64, 3, 3}
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(data[8*i:], uint64(v))
	}
	ds, err := New(data, cascaded.TypeLongLong)
	require.NoError(t, err)

	ds.Sort()
	assert.Equal(t, []int64{math.MinInt64, -5, 0, 3, 3, math.MaxInt64}, ds.Values())

	chars, err := New([]byte{0x05, 0xfb, 0x00, 0x80}, cascaded.TypeChar)
	require.NoError(t, err)
	chars.Sort()
	assert.Equal(t, []byte{0x80, 0xfb, 0x00, 0x05}, chars.Bytes())
}

func TestProfile(t *testing.T) {
	ds, err := Load(filepath.Join(dataDir, "rle_int32.bin"), cascaded.TypeInt, 0)
	require.NoError(t, err)

	p := ds.Profile()
	assert.Equal(t, 8, p.Elements)
	assert.Equal(t, 3, p.Runs)
	assert.Equal(t, 1.0, p.Min)
	assert.Equal(t, 5.0, p.Max)
	assert.InDelta(t, 3.0, p.Mean, 1e-9)
	assert.Greater(t, p.StdDev, 0.0)

	empty, err := New(nil, cascaded.TypeInt)
	require.NoError(t, err)
	assert.Equal(t, Profile{}, empty.Profile())
}
