//go:build cuda
// +build cuda

package gpu

/*
#cgo LDFLAGS: -lcudart
#include <cuda_runtime.h>
#include <stdlib.h>
*/
import "C"
import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"
)

// CUDABuffer is a cudaMalloc allocation
type CUDABuffer struct {
	ptr  unsafe.Pointer
	size int64
}

// Size returns the allocation size in bytes.
func (b *CUDABuffer) Size() int64 {
	return b.size
}

// Pointer returns the raw device pointer for engines that launch CUDA work.
func (b *CUDABuffer) Pointer() unsafe.Pointer {
	return b.ptr
}

// CUDAStream wraps a cudaStream_t
type CUDAStream struct {
	stream C.cudaStream_t
}

// Handle returns the cudaStream_t as an untyped pointer.
func (s *CUDAStream) Handle() unsafe.Pointer {
	return unsafe.Pointer(s.stream)
}

// Synchronize waits for all work on the stream
func (s *CUDAStream) Synchronize() error {
	if result := C.cudaStreamSynchronize(s.stream); result != C.cudaSuccess {
		return fmt.Errorf("cudaStreamSynchronize: %s", cudaErrorString(result))
	}
	return nil
}

// Destroy releases the stream
func (s *CUDAStream) Destroy() error {
	if result := C.cudaStreamDestroy(s.stream); result != C.cudaSuccess {
		return fmt.Errorf("cudaStreamDestroy: %s", cudaErrorString(result))
	}
	return nil
}

// CUDABackend implements GPUBackend using the CUDA runtime
type CUDABackend struct {
	logger      *zap.Logger
	ordinal     int
	initialized bool
	deviceInfo  DeviceInfo
	available   bool
}

// NewCUDABackend creates a new CUDA backend instance for the given device
func NewCUDABackend(logger *zap.Logger, ordinal int) *CUDABackend {
	backend := &CUDABackend{
		logger:  logger,
		ordinal: ordinal,
	}

	if err := backend.checkDevice(); err != nil {
		logger.Warn("CUDA device not available", zap.Int("ordinal", ordinal), zap.Error(err))
		backend.available = false
	} else {
		backend.available = true
	}

	return backend
}

// Initialize selects the device and reads its properties
func (c *CUDABackend) Initialize() error {
	if !c.available {
		return fmt.Errorf("CUDA device %d: %w", c.ordinal, ErrBackendUnavailable)
	}

	if c.initialized {
		return nil
	}

	c.logger.Debug("Initializing CUDA backend", zap.Int("ordinal", c.ordinal))

	if result := C.cudaSetDevice(C.int(c.ordinal)); result != C.cudaSuccess {
		return fmt.Errorf("failed to select device %d: %s", c.ordinal, cudaErrorString(result))
	}

	var props C.struct_cudaDeviceProp
	if result := C.cudaGetDeviceProperties(&props, C.int(c.ordinal)); result != C.cudaSuccess {
		return fmt.Errorf("failed to get device info: %s", cudaErrorString(result))
	}

	var driverVersion, runtimeVersion C.int
	C.cudaDriverGetVersion(&driverVersion)
	C.cudaRuntimeGetVersion(&runtimeVersion)

	c.deviceInfo = DeviceInfo{
		Name:              C.GoString(&props.name[0]),
		Ordinal:           c.ordinal,
		TotalMemory:       int64(props.totalGlobalMem),
		ComputeCapability: fmt.Sprintf("%d.%d", int(props.major), int(props.minor)),
		DriverVersion:     formatCUDAVersion(int(driverVersion)),
		CUDAVersion:       formatCUDAVersion(int(runtimeVersion)),
	}
	if free, _, err := c.memGetInfo(); err == nil {
		c.deviceInfo.AvailableMemory = free
	}

	c.initialized = true
	c.logger.Info("CUDA backend initialized",
		zap.String("device", c.deviceInfo.Name),
		zap.String("compute_capability", c.deviceInfo.ComputeCapability),
		zap.Float64("total_memory_gb", float64(c.deviceInfo.TotalMemory)/(1<<30)))

	return nil
}

// GetDeviceInfo returns information about the CUDA device
func (c *CUDABackend) GetDeviceInfo() DeviceInfo {
	return c.deviceInfo
}

// IsAvailable checks if CUDA is available
func (c *CUDABackend) IsAvailable() bool {
	return c.available
}

// Cleanup resets the device context
func (c *CUDABackend) Cleanup() error {
	if !c.initialized {
		return nil
	}

	c.logger.Debug("Cleaning up CUDA backend")

	if result := C.cudaDeviceReset(); result != C.cudaSuccess {
		return fmt.Errorf("failed to cleanup CUDA: %s", cudaErrorString(result))
	}

	c.initialized = false
	return nil
}

// MemGetInfo reports free and total device memory
func (c *CUDABackend) MemGetInfo() (int64, int64, error) {
	if !c.initialized {
		return 0, 0, ErrNotInitialized
	}
	return c.memGetInfo()
}

func (c *CUDABackend) memGetInfo() (int64, int64, error) {
	var free, total C.size_t
	if result := C.cudaMemGetInfo(&free, &total); result != C.cudaSuccess {
		return 0, 0, fmt.Errorf("cudaMemGetInfo: %s", cudaErrorString(result))
	}
	return int64(free), int64(total), nil
}

// Malloc allocates device memory
func (c *CUDABackend) Malloc(size int64) (Buffer, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	var ptr unsafe.Pointer
	result := C.cudaMalloc(&ptr, C.size_t(size))
	if result == C.cudaErrorMemoryAllocation {
		return nil, fmt.Errorf("cudaMalloc of %s: %w", FormatBytes(size), ErrOutOfMemory)
	}
	if result != C.cudaSuccess {
		return nil, fmt.Errorf("cudaMalloc: %s", cudaErrorString(result))
	}
	return &CUDABuffer{ptr: ptr, size: size}, nil
}

// Free releases device memory
func (c *CUDABackend) Free(buf Buffer) error {
	cb, ok := buf.(*CUDABuffer)
	if !ok || cb == nil {
		return ErrInvalidBuffer
	}
	if result := C.cudaFree(cb.ptr); result != C.cudaSuccess {
		return fmt.Errorf("cudaFree: %s", cudaErrorString(result))
	}
	cb.ptr = nil
	return nil
}

// CopyHostToDevice copies src into dst
func (c *CUDABackend) CopyHostToDevice(dst Buffer, src []byte) error {
	cb, ok := dst.(*CUDABuffer)
	if !ok || cb == nil || int64(len(src)) > cb.size {
		return ErrInvalidBuffer
	}
	if len(src) == 0 {
		return nil
	}
	result := C.cudaMemcpy(cb.ptr, unsafe.Pointer(&src[0]), C.size_t(len(src)), C.cudaMemcpyHostToDevice)
	if result != C.cudaSuccess {
		return fmt.Errorf("cudaMemcpy host to device: %s", cudaErrorString(result))
	}
	return nil
}

// CopyDeviceToHost copies src into dst
func (c *CUDABackend) CopyDeviceToHost(dst []byte, src Buffer) error {
	cb, ok := src.(*CUDABuffer)
	if !ok || cb == nil || int64(len(dst)) > cb.size {
		return ErrInvalidBuffer
	}
	if len(dst) == 0 {
		return nil
	}
	result := C.cudaMemcpy(unsafe.Pointer(&dst[0]), cb.ptr, C.size_t(len(dst)), C.cudaMemcpyDeviceToHost)
	if result != C.cudaSuccess {
		return fmt.Errorf("cudaMemcpy device to host: %s", cudaErrorString(result))
	}
	return nil
}

// CreateStream creates a CUDA stream on the selected device
func (c *CUDABackend) CreateStream() (Stream, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	var stream C.cudaStream_t
	if result := C.cudaStreamCreate(&stream); result != C.cudaSuccess {
		return nil, fmt.Errorf("cudaStreamCreate: %s", cudaErrorString(result))
	}
	return &CUDAStream{stream: stream}, nil
}

// checkDevice verifies the requested ordinal exists
func (c *CUDABackend) checkDevice() error {
	var count C.int
	if result := C.cudaGetDeviceCount(&count); result != C.cudaSuccess {
		return fmt.Errorf("CUDA device check failed: %s", cudaErrorString(result))
	}
	if c.ordinal < 0 || c.ordinal >= int(count) {
		return fmt.Errorf("device %d of %d: %w", c.ordinal, int(count), ErrInvalidDevice)
	}
	return nil
}

// cudaErrorString converts CUDA error code to string
func cudaErrorString(err C.cudaError_t) string {
	return fmt.Sprintf("%s (%d)", C.GoString(C.cudaGetErrorString(err)), int(err))
}

// formatCUDAVersion renders the 1000*major+10*minor encoding used by the runtime
func formatCUDAVersion(v int) string {
	if v == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%d.%d", v/1000, (v%1000)/10)
}
