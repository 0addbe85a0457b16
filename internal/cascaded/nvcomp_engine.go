//go:build cuda
// +build cuda

package cascaded

/*
#cgo LDFLAGS: -lnvcomp -lcudart
#include <cuda_runtime.h>
#include <stdlib.h>
#include <nvcomp.h>
#include <nvcomp/cascaded.h>
*/
import "C"
import (
	"unsafe"

	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"go.uber.org/zap"
)

type nvcompMetadata struct {
	ptr         unsafe.Pointer
	outputBytes int64
}

func (m *nvcompMetadata) UncompressedBytes() int64 {
	return m.outputBytes
}

// NvcompEngine binds the Engine contract to nvcomp's cascaded C API.
type NvcompEngine struct {
	logger *zap.Logger
}

func newNvcompEngine(logger *zap.Logger) (Engine, error) {
	return &NvcompEngine{logger: logger}, nil
}

func nvcompStatus(op string, status C.nvcompError_t) error {
	switch status {
	case C.nvcompSuccess:
		return nil
	case C.nvcompErrorInvalidValue:
		return newError(op, StatusInvalidValue, "nvcomp status %d", int(status))
	case C.nvcompErrorNotSupported:
		return newError(op, StatusNotSupported, "nvcomp status %d", int(status))
	case C.nvcompErrorCannotDecompress:
		return newError(op, StatusCannotDecompress, "nvcomp status %d", int(status))
	case C.nvcompErrorCudaError:
		return newError(op, StatusCUDAError, "nvcomp status %d", int(status))
	default:
		return newError(op, StatusInternal, "nvcomp status %d", int(status))
	}
}

func nvcompType(typ Type) C.nvcompType_t {
	switch typ {
	case TypeChar:
		return C.NVCOMP_TYPE_CHAR
	case TypeShort:
		return C.NVCOMP_TYPE_SHORT
	case TypeLongLong:
		return C.NVCOMP_TYPE_LONGLONG
	default:
		return C.NVCOMP_TYPE_INT
	}
}

func formatOpts(opts FormatOptions) C.nvcompCascadedFormatOpts {
	var c C.nvcompCascadedFormatOpts
	c.num_RLEs = C.int(opts.NumRLEs)
	c.num_deltas = C.int(opts.NumDeltas)
	c.use_bp = 0
	if opts.UseBitPacking {
		c.use_bp = 1
	}
	return c
}

func devicePtr(op string, buf gpu.Buffer) (unsafe.Pointer, error) {
	cb, ok := buf.(*gpu.CUDABuffer)
	if !ok || cb == nil {
		return nil, newError(op, StatusInvalidValue, "buffer %T is not device memory", buf)
	}
	return cb.Pointer(), nil
}

func cudaStream(op string, stream gpu.Stream) (C.cudaStream_t, error) {
	cs, ok := stream.(*gpu.CUDAStream)
	if !ok || cs == nil {
		return nil, newError(op, StatusInvalidValue, "stream %T is not a CUDA stream", stream)
	}
	return C.cudaStream_t(cs.Handle()), nil
}

func (e *NvcompEngine) CompressGetTempSize(in gpu.Buffer, inBytes int64, typ Type, opts FormatOptions) (int64, error) {
	const op = OpCompressGetTempSize
	inPtr, err := devicePtr(op, in)
	if err != nil {
		return 0, err
	}
	copts := formatOpts(opts)
	var tempBytes C.size_t
	status := C.nvcompCascadedCompressGetTempSize(inPtr, C.size_t(inBytes), nvcompType(typ), &copts, &tempBytes)
	if err := nvcompStatus(op, status); err != nil {
		return 0, err
	}
	return int64(tempBytes), nil
}

func (e *NvcompEngine) CompressGetOutputSize(in gpu.Buffer, inBytes int64, typ Type, opts FormatOptions,
	temp gpu.Buffer, tempBytes int64) (int64, error) {
	const op = OpCompressGetOutputSize
	inPtr, err := devicePtr(op, in)
	if err != nil {
		return 0, err
	}
	tempPtr, err := devicePtr(op, temp)
	if err != nil {
		return 0, err
	}
	copts := formatOpts(opts)
	var outBytes C.size_t
	status := C.nvcompCascadedCompressGetOutputSize(inPtr, C.size_t(inBytes), nvcompType(typ), &copts,
		tempPtr, C.size_t(tempBytes), &outBytes, 0)
	if err := nvcompStatus(op, status); err != nil {
		return 0, err
	}
	return int64(outBytes), nil
}

func (e *NvcompEngine) CompressAsync(in gpu.Buffer, inBytes int64, typ Type, opts FormatOptions,
	temp gpu.Buffer, tempBytes int64, out gpu.Buffer, outBytes *int64, stream gpu.Stream) error {
	const op = OpCompressAsync
	inPtr, err := devicePtr(op, in)
	if err != nil {
		return err
	}
	tempPtr, err := devicePtr(op, temp)
	if err != nil {
		return err
	}
	outPtr, err := devicePtr(op, out)
	if err != nil {
		return err
	}
	s, err := cudaStream(op, stream)
	if err != nil {
		return err
	}

	// nvcomp writes the compressed size asynchronously, so the holder must be
	// C memory that outlives this call; it is read back once the stream drains.
	holder := (*C.size_t)(C.malloc(C.size_t(unsafe.Sizeof(C.size_t(0)))))
	defer C.free(unsafe.Pointer(holder))
	*holder = C.size_t(*outBytes)

	copts := formatOpts(opts)
	status := C.nvcompCascadedCompressAsync(inPtr, C.size_t(inBytes), nvcompType(typ), &copts,
		tempPtr, C.size_t(tempBytes), outPtr, holder, s)
	if err := nvcompStatus(op, status); err != nil {
		return err
	}
	if result := C.cudaStreamSynchronize(s); result != C.cudaSuccess {
		return newError(op, StatusCUDAError, "%s", C.GoString(C.cudaGetErrorString(result)))
	}
	*outBytes = int64(*holder)
	return nil
}

func (e *NvcompEngine) DecompressGetMetadata(in gpu.Buffer, inBytes int64, stream gpu.Stream) (Metadata, error) {
	const op = OpDecompressGetMetadata
	inPtr, err := devicePtr(op, in)
	if err != nil {
		return nil, err
	}
	s, err := cudaStream(op, stream)
	if err != nil {
		return nil, err
	}
	var ptr unsafe.Pointer
	if err := nvcompStatus(op, C.nvcompDecompressGetMetadata(inPtr, C.size_t(inBytes), &ptr, s)); err != nil {
		return nil, err
	}
	var outBytes C.size_t
	if err := nvcompStatus(OpDecompressGetOutputSize, C.nvcompDecompressGetOutputSize(ptr, &outBytes)); err != nil {
		C.nvcompDecompressDestroyMetadata(ptr)
		return nil, err
	}
	return &nvcompMetadata{ptr: ptr, outputBytes: int64(outBytes)}, nil
}

func (e *NvcompEngine) metadata(op string, meta Metadata) (*nvcompMetadata, error) {
	m, ok := meta.(*nvcompMetadata)
	if !ok || m == nil || m.ptr == nil {
		return nil, newError(op, StatusInvalidValue, "metadata %T was not produced by this engine", meta)
	}
	return m, nil
}

func (e *NvcompEngine) DecompressGetTempSize(meta Metadata) (int64, error) {
	const op = OpDecompressGetTempSize
	m, err := e.metadata(op, meta)
	if err != nil {
		return 0, err
	}
	var tempBytes C.size_t
	if err := nvcompStatus(op, C.nvcompDecompressGetTempSize(m.ptr, &tempBytes)); err != nil {
		return 0, err
	}
	return int64(tempBytes), nil
}

func (e *NvcompEngine) DecompressGetOutputSize(meta Metadata) (int64, error) {
	m, err := e.metadata(OpDecompressGetOutputSize, meta)
	if err != nil {
		return 0, err
	}
	return m.outputBytes, nil
}

func (e *NvcompEngine) DecompressAsync(in gpu.Buffer, inBytes int64, temp gpu.Buffer, tempBytes int64,
	meta Metadata, out gpu.Buffer, outBytes int64, stream gpu.Stream) error {
	const op = OpDecompressAsync
	m, err := e.metadata(op, meta)
	if err != nil {
		return err
	}
	inPtr, err := devicePtr(op, in)
	if err != nil {
		return err
	}
	tempPtr, err := devicePtr(op, temp)
	if err != nil {
		return err
	}
	outPtr, err := devicePtr(op, out)
	if err != nil {
		return err
	}
	s, err := cudaStream(op, stream)
	if err != nil {
		return err
	}
	status := C.nvcompDecompressAsync(inPtr, C.size_t(inBytes), tempPtr, C.size_t(tempBytes),
		m.ptr, outPtr, C.size_t(outBytes), s)
	return nvcompStatus(op, status)
}

func (e *NvcompEngine) DecompressDestroyMetadata(meta Metadata) {
	if m, ok := meta.(*nvcompMetadata); ok && m != nil && m.ptr != nil {
		C.nvcompDecompressDestroyMetadata(m.ptr)
		m.ptr = nil
	}
}
