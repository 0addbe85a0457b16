//go:build cuda
// +build cuda

package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCUDABackend_Initialize(t *testing.T) {
	backend := NewCUDABackend(zap.NewNop(), 0)

	if !backend.IsAvailable() {
		t.Skip("CUDA not available on this system")
	}

	err := backend.Initialize()
	assert.NoError(t, err)
	assert.True(t, backend.initialized)

	info := backend.GetDeviceInfo()
	assert.NotEmpty(t, info.Name)
	assert.Greater(t, info.TotalMemory, int64(0))
	assert.NotEmpty(t, info.ComputeCapability)

	// Test double initialization (should be idempotent)
	err = backend.Initialize()
	assert.NoError(t, err)

	err = backend.Cleanup()
	assert.NoError(t, err)
	assert.False(t, backend.initialized)
}

func TestCUDABackend_CopyRoundTrip(t *testing.T) {
	backend := NewCUDABackend(zap.NewNop(), 0)
	if !backend.IsAvailable() {
		t.Skip("CUDA not available on this system")
	}
	require.NoError(t, backend.Initialize())
	defer backend.Cleanup()

	src := make([]byte, 1<<20)
	for i := range src {
		src[i] = byte(i * 7)
	}

	buf, err := backend.Malloc(int64(len(src)))
	require.NoError(t, err)
	defer backend.Free(buf)

	require.NoError(t, backend.CopyHostToDevice(buf, src))

	dst := make([]byte, len(src))
	require.NoError(t, backend.CopyDeviceToHost(dst, buf))
	assert.Equal(t, src, dst)

	stream, err := backend.CreateStream()
	require.NoError(t, err)
	require.NoError(t, stream.Synchronize())
	require.NoError(t, stream.Destroy())
}

func TestCUDABackend_InvalidOrdinal(t *testing.T) {
	backend := NewCUDABackend(zap.NewNop(), 1<<20)
	assert.False(t, backend.IsAvailable())
	assert.ErrorIs(t, backend.Initialize(), ErrBackendUnavailable)
}
