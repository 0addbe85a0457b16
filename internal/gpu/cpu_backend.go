package gpu

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"
)

// HostBuffer is device memory emulated in host RAM by the CPU backend.
type HostBuffer struct {
	data  []byte
	owner *CPUBackend
}

// Size returns the allocation size in bytes.
func (b *HostBuffer) Size() int64 {
	return int64(len(b.data))
}

// Bytes exposes the backing memory to engines running on the CPU backend.
func (b *HostBuffer) Bytes() []byte {
	return b.data
}

// CPUBackend implements GPUBackend by emulating a single device in host
// memory. It lets the whole benchmark pipeline run without an accelerator.
type CPUBackend struct {
	logger      *zap.Logger
	initialized bool

	// memoryLimit caps emulated device memory; zero means the host's
	// available memory is reported instead.
	memoryLimit int64
	virtualMem  func() (*mem.VirtualMemoryStat, error)

	mu        sync.Mutex
	allocated int64
	peak      int64
	live      map[*HostBuffer]struct{}
}

// NewCPUBackend creates a new CPU backend instance
func NewCPUBackend(logger *zap.Logger, memoryLimit int64) *CPUBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CPUBackend{
		logger:      logger,
		memoryLimit: memoryLimit,
		virtualMem:  mem.VirtualMemory,
		live:        make(map[*HostBuffer]struct{}),
	}
}

// Initialize prepares the CPU backend for use
func (c *CPUBackend) Initialize() error {
	if c.initialized {
		return nil
	}
	c.initialized = true
	c.logger.Info("CPU backend initialized", zap.Int64("memory_limit", c.memoryLimit))
	return nil
}

// Cleanup drops any buffers that were never freed
func (c *CPUBackend) Cleanup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.live); n > 0 {
		c.logger.Warn("releasing leaked device buffers",
			zap.Int("buffers", n),
			zap.Int64("bytes", c.allocated))
	}
	c.live = make(map[*HostBuffer]struct{})
	c.allocated = 0
	c.initialized = false
	return nil
}

// IsAvailable checks if the backend is available (always true for CPU)
func (c *CPUBackend) IsAvailable() bool {
	return true
}

// GetDeviceInfo returns device information for CPU
func (c *CPUBackend) GetDeviceInfo() DeviceInfo {
	free, total, err := c.MemGetInfo()
	if err != nil {
		c.logger.Debug("failed to query host memory", zap.Error(err))
	}
	return DeviceInfo{
		Name:              fmt.Sprintf("CPU (%s)", runtime.GOARCH),
		TotalMemory:       total,
		AvailableMemory:   free,
		ComputeCapability: "N/A",
		DriverVersion:     runtime.Version(),
	}
}

// MemGetInfo reports emulated device memory
func (c *CPUBackend) MemGetInfo() (int64, int64, error) {
	c.mu.Lock()
	allocated := c.allocated
	c.mu.Unlock()

	if c.memoryLimit > 0 {
		free := c.memoryLimit - allocated
		if free < 0 {
			free = 0
		}
		return free, c.memoryLimit, nil
	}

	vm, err := c.virtualMem()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query host memory: %w", err)
	}
	return int64(vm.Available), int64(vm.Total), nil
}

// Malloc allocates emulated device memory
func (c *CPUBackend) Malloc(size int64) (Buffer, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	if size < 0 {
		return nil, fmt.Errorf("negative allocation size %d", size)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.memoryLimit > 0 && c.allocated+size > c.memoryLimit {
		return nil, fmt.Errorf("allocating %s with %s free: %w",
			FormatBytes(size), FormatBytes(c.memoryLimit-c.allocated), ErrOutOfMemory)
	}

	buf := &HostBuffer{data: make([]byte, size), owner: c}
	c.live[buf] = struct{}{}
	c.allocated += size
	if c.allocated > c.peak {
		c.peak = c.allocated
	}
	return buf, nil
}

// Free releases emulated device memory
func (c *CPUBackend) Free(buf Buffer) error {
	hb, err := c.hostBuffer(buf)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live[hb]; !ok {
		return fmt.Errorf("double free: %w", ErrInvalidBuffer)
	}
	delete(c.live, hb)
	c.allocated -= hb.Size()
	hb.data = nil
	return nil
}

// CopyHostToDevice copies src into the start of dst
func (c *CPUBackend) CopyHostToDevice(dst Buffer, src []byte) error {
	hb, err := c.hostBuffer(dst)
	if err != nil {
		return err
	}
	if int64(len(src)) > hb.Size() {
		return fmt.Errorf("copy of %d bytes into %d byte buffer: %w", len(src), hb.Size(), ErrInvalidBuffer)
	}
	copy(hb.data, src)
	return nil
}

// CopyDeviceToHost copies the start of src into dst
func (c *CPUBackend) CopyDeviceToHost(dst []byte, src Buffer) error {
	hb, err := c.hostBuffer(src)
	if err != nil {
		return err
	}
	if int64(len(dst)) > hb.Size() {
		return fmt.Errorf("copy of %d bytes out of %d byte buffer: %w", len(dst), hb.Size(), ErrInvalidBuffer)
	}
	copy(dst, hb.data)
	return nil
}

// CreateStream starts a host stream worker
func (c *CPUBackend) CreateStream() (Stream, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	return newHostStream(), nil
}

// Allocated returns the number of bytes currently allocated
func (c *CPUBackend) Allocated() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocated
}

// Peak returns the high-water mark of allocated bytes
func (c *CPUBackend) Peak() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

// LiveBuffers returns the number of buffers not yet freed
func (c *CPUBackend) LiveBuffers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

func (c *CPUBackend) hostBuffer(buf Buffer) (*HostBuffer, error) {
	hb, ok := buf.(*HostBuffer)
	if !ok || hb == nil || hb.owner != c {
		return nil, ErrInvalidBuffer
	}
	return hb, nil
}
