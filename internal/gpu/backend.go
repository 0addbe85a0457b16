package gpu

import "errors"

var (
	// ErrOutOfMemory is returned by Malloc when the device cannot satisfy an allocation.
	ErrOutOfMemory = errors.New("out of device memory")
	// ErrInvalidDevice is returned when the requested device ordinal does not exist.
	ErrInvalidDevice = errors.New("invalid device ordinal")
	// ErrInvalidBuffer is returned when a buffer does not belong to the backend or was already freed.
	ErrInvalidBuffer = errors.New("invalid device buffer")
	// ErrNotInitialized is returned when a backend is used before Initialize.
	ErrNotInitialized = errors.New("backend not initialized")
	// ErrStreamDestroyed is returned when work is issued to a destroyed stream.
	ErrStreamDestroyed = errors.New("stream destroyed")
	// ErrBackendUnavailable is returned when a backend was requested that this build or host cannot provide.
	ErrBackendUnavailable = errors.New("backend not available")
)

// DeviceInfo contains information about the accelerator device
type DeviceInfo struct {
	Name              string `json:"name"`
	Ordinal           int    `json:"ordinal"`
	TotalMemory       int64  `json:"totalMemory"`     // in bytes
	AvailableMemory   int64  `json:"availableMemory"` // in bytes
	ComputeCapability string `json:"computeCapability"`
	DriverVersion     string `json:"driverVersion"`
	CUDAVersion       string `json:"cudaVersion,omitempty"`
}

// Buffer is an opaque handle to device-resident memory.
// A buffer is owned by whoever allocated it until it is passed to Free.
type Buffer interface {
	// Size returns the allocation size in bytes.
	Size() int64
}

// Stream is an ordered queue of asynchronous device work.
// Work issued to the same stream executes in issue order.
type Stream interface {
	// Synchronize blocks until all work issued so far has completed and
	// returns the first error raised by that work, if any.
	Synchronize() error

	// Destroy releases the stream. Work already issued is drained first.
	Destroy() error
}

// GPUBackend defines the accelerator execution context used by the benchmark.
// It covers device selection, memory management and streams; the compression
// engine itself lives behind cascaded.Engine and runs on buffers and streams
// handed out by a backend.
//
// Implementation notes:
//   - Every buffer returned by Malloc must be released through Free
//   - Backends are used from a single goroutine by the benchmark driver
//   - Cleanup must release the device context; leaked buffers are reported
type GPUBackend interface {
	// GetDeviceInfo returns information about the selected device
	GetDeviceInfo() DeviceInfo

	// IsAvailable performs a quick check without heavy initialization
	IsAvailable() bool

	// Initialize selects the device and prepares the context.
	// Should be called once before first use.
	Initialize() error

	// Cleanup releases any resources held by the backend
	Cleanup() error

	// MemGetInfo reports free and total device memory in bytes
	MemGetInfo() (free, total int64, err error)

	// Malloc allocates size bytes of device memory
	Malloc(size int64) (Buffer, error)

	// Free releases a buffer returned by Malloc
	Free(buf Buffer) error

	// CopyHostToDevice copies len(src) bytes into dst
	CopyHostToDevice(dst Buffer, src []byte) error

	// CopyDeviceToHost copies len(dst) bytes out of src
	CopyDeviceToHost(dst []byte, src Buffer) error

	// CreateStream creates a new execution stream on the device
	CreateStream() (Stream, error)
}
