//go:build !cuda
// +build !cuda

package gpu

import "go.uber.org/zap"

// CUDABackend is a stub type when CUDA is not available
type CUDABackend struct {
	logger *zap.Logger
}

// Stub implementations to satisfy GPUBackend interface
func (c *CUDABackend) GetDeviceInfo() DeviceInfo {
	return DeviceInfo{Name: "CUDA not available"}
}

func (c *CUDABackend) IsAvailable() bool {
	return false
}

func (c *CUDABackend) Initialize() error {
	return ErrBackendUnavailable
}

func (c *CUDABackend) Cleanup() error {
	return nil
}

func (c *CUDABackend) MemGetInfo() (int64, int64, error) {
	return 0, 0, ErrBackendUnavailable
}

func (c *CUDABackend) Malloc(size int64) (Buffer, error) {
	return nil, ErrBackendUnavailable
}

func (c *CUDABackend) Free(buf Buffer) error {
	return ErrBackendUnavailable
}

func (c *CUDABackend) CopyHostToDevice(dst Buffer, src []byte) error {
	return ErrBackendUnavailable
}

func (c *CUDABackend) CopyDeviceToHost(dst []byte, src Buffer) error {
	return ErrBackendUnavailable
}

func (c *CUDABackend) CreateStream() (Stream, error) {
	return nil, ErrBackendUnavailable
}
