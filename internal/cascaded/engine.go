package cascaded

import (
	"fmt"

	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"go.uber.org/zap"
)

// Metadata is the engine's opaque view of a compressed blob's header.
// It must be released with DecompressDestroyMetadata.
type Metadata interface {
	// UncompressedBytes is the exact size the blob decompresses to.
	UncompressedBytes() int64
}

// Engine is the contract the benchmark needs from a cascaded codec.
//
// Sizes are negotiated before allocation: the caller queries the temp and
// output sizes, allocates buffers of at least those sizes and then launches
// the asynchronous operation on a stream. Results of an async launch,
// including the compressed size written through outBytes, are only valid
// after the stream has been synchronized.
type Engine interface {
	CompressGetTempSize(in gpu.Buffer, inBytes int64, typ Type, opts FormatOptions) (int64, error)

	// CompressGetOutputSize returns an upper bound on the compressed size.
	CompressGetOutputSize(in gpu.Buffer, inBytes int64, typ Type, opts FormatOptions,
		temp gpu.Buffer, tempBytes int64) (int64, error)

	// CompressAsync launches compression on stream. On entry *outBytes is the
	// capacity of out; after the stream drains it holds the compressed size.
	CompressAsync(in gpu.Buffer, inBytes int64, typ Type, opts FormatOptions,
		temp gpu.Buffer, tempBytes int64, out gpu.Buffer, outBytes *int64, stream gpu.Stream) error

	DecompressGetMetadata(in gpu.Buffer, inBytes int64, stream gpu.Stream) (Metadata, error)
	DecompressGetTempSize(meta Metadata) (int64, error)
	DecompressGetOutputSize(meta Metadata) (int64, error)
	DecompressAsync(in gpu.Buffer, inBytes int64, temp gpu.Buffer, tempBytes int64,
		meta Metadata, out gpu.Buffer, outBytes int64, stream gpu.Stream) error
	DecompressDestroyMetadata(meta Metadata)
}

// NewEngine returns the engine matching the memory model of backend.
func NewEngine(backend gpu.GPUBackend, logger *zap.Logger, opts HostOptions) (Engine, error) {
	switch backend.(type) {
	case *gpu.CPUBackend:
		return NewHostEngine(logger, opts), nil
	case *gpu.CUDABackend:
		return newNvcompEngine(logger)
	default:
		return nil, fmt.Errorf("no cascaded engine for backend %T", backend)
	}
}
