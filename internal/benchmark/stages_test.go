package benchmark

import (
	"testing"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/fxnlabs/cascaded-bench/internal/dataset"
	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newExecContext(t *testing.T, memoryLimit int64) (*ExecContext, *gpu.CPUBackend) {
	t.Helper()
	backend := newBackend(t, memoryLimit)
	stream, err := backend.CreateStream()
	require.NoError(t, err)
	t.Cleanup(func() { _ = stream.Destroy() })
	return &ExecContext{
		Backend: backend,
		Engine:  cascaded.NewHostEngine(nil, cascaded.HostOptions{}),
		Stream:  stream,
		Logger:  zap.NewNop(),
	}, backend
}

func TestStages(t *testing.T) {
	x, backend := newExecContext(t, 0)
	ds, err := dataset.Load(rleFile, cascaded.TypeInt, 0)
	require.NoError(t, err)

	comp, err := Compress(x, ds, cascaded.DefaultFormatOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.LiveBuffers(), "only the blob survives compression")
	assert.Equal(t, comp.Measurement.Bytes, ds.ByteSize())

	dec, err := Decompress(x, comp.Blob)
	require.NoError(t, err)
	assert.Equal(t, ds.ByteSize(), dec.OutputBytes)
	assert.Equal(t, 1, backend.LiveBuffers(), "only the output survives decompression")

	require.NoError(t, Verify(x, ds, dec.Output, dec.OutputBytes))
	assert.Zero(t, backend.LiveBuffers())
}

func TestVerify_SizeMismatch(t *testing.T) {
	x, backend := newExecContext(t, 0)
	ds, err := dataset.Load(rleFile, cascaded.TypeInt, 0)
	require.NoError(t, err)

	out, err := x.Backend.Malloc(28)
	require.NoError(t, err)

	err = Verify(x, ds, out, 28)
	var corruptErr *CorruptionError
	require.ErrorAs(t, err, &corruptErr)
	assert.Equal(t, -1, corruptErr.Index)
	assert.Equal(t, int64(32), corruptErr.ExpectedBytes)
	assert.Equal(t, int64(28), corruptErr.ActualBytes)
	assert.Zero(t, backend.LiveBuffers())
}

func TestCheckCapacity(t *testing.T) {
	backend := newBackend(t, 100)
	assert.NoError(t, CheckCapacity(backend, 100))

	err := CheckCapacity(backend, 101)
	var resErr *InsufficientResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, int64(100), resErr.Free)
}
