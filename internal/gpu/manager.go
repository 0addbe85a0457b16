package gpu

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Backend names accepted by Options.Backend
const (
	BackendAuto = "auto"
	BackendCPU  = "cpu"
	BackendCUDA = "cuda"
)

// Options selects the device a Manager opens.
// The ordinal is an explicit value rather than process-wide device state.
type Options struct {
	Backend     string
	Ordinal     int
	MemoryLimit int64
}

// Manager handles backend selection and lifecycle
type Manager struct {
	backend GPUBackend
	opts    Options
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewManager creates a new manager and selects the best available backend
func NewManager(logger *zap.Logger, opts Options) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Backend == "" {
		opts.Backend = BackendAuto
	}

	m := &Manager{
		logger: logger,
		opts:   opts,
	}

	if err := m.detectAndInitialize(); err != nil {
		return nil, err
	}

	return m, nil
}

// detectAndInitialize detects available backends and initializes the best one
func (m *Manager) detectAndInitialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.Ordinal < 0 {
		return fmt.Errorf("device %d: %w", m.opts.Ordinal, ErrInvalidDevice)
	}

	switch m.opts.Backend {
	case BackendAuto, BackendCUDA:
		// Try CUDA first (only if build tag is enabled)
		if cudaBackend := m.tryCreateCUDABackend(); cudaBackend != nil && cudaBackend.IsAvailable() {
			err := cudaBackend.Initialize()
			if err == nil {
				m.backend = cudaBackend
				return nil
			}
			_ = cudaBackend.Cleanup()
			if m.opts.Backend == BackendCUDA {
				return fmt.Errorf("failed to initialize CUDA backend: %w", err)
			}
			m.logger.Warn("CUDA backend initialization failed, falling back to CPU", zap.Error(err))
		} else if m.opts.Backend == BackendCUDA {
			return fmt.Errorf("cuda: %w", ErrBackendUnavailable)
		}
	case BackendCPU:
	default:
		return fmt.Errorf("unknown backend %q", m.opts.Backend)
	}

	// The CPU backend emulates exactly one device
	if m.opts.Ordinal != 0 {
		return fmt.Errorf("device %d on cpu backend: %w", m.opts.Ordinal, ErrInvalidDevice)
	}

	cpuBackend := NewCPUBackend(m.logger, m.opts.MemoryLimit)
	if err := cpuBackend.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize CPU backend: %w", err)
	}
	m.backend = cpuBackend
	return nil
}

// GetBackend returns the current backend
func (m *Manager) GetBackend() GPUBackend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backend
}

// GetDeviceInfo returns device information from the current backend
func (m *Manager) GetDeviceInfo() DeviceInfo {
	backend := m.GetBackend()
	if backend == nil {
		return DeviceInfo{Name: "No backend available"}
	}
	info := backend.GetDeviceInfo()
	info.Ordinal = m.opts.Ordinal
	return info
}

// IsGPUAvailable returns true if a GPU backend is active
func (m *Manager) IsGPUAvailable() bool {
	backend := m.GetBackend()
	if backend == nil {
		return false
	}
	_, isCPU := backend.(*CPUBackend)
	return !isCPU
}

// Cleanup releases resources held by the current backend
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		if err := m.backend.Cleanup(); err != nil {
			return err
		}
		m.backend = nil
	}
	return nil
}

// GetBackendType returns a string describing the current backend type
func (m *Manager) GetBackendType() string {
	backend := m.GetBackend()
	if backend == nil {
		return "none"
	}

	if _, isCPU := backend.(*CPUBackend); isCPU {
		return BackendCPU
	}

	return BackendCUDA
}
