package cascaded

import (
	"encoding/binary"
	"runtime"

	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkElements is the number of elements compressed independently.
const DefaultChunkElements = 1 << 16

// HostOptions tunes the host engine.
type HostOptions struct {
	// ChunkElements is rounded down to a power of two.
	ChunkElements int
	// Workers bounds the goroutines compressing chunks; zero means GOMAXPROCS.
	Workers int
}

type hostMemory interface {
	Bytes() []byte
}

type hostLauncher interface {
	Launch(fn func() error) error
	Synchronize() error
}

type hostMetadata struct {
	header    *blobHeader
	payload   int
	destroyed bool
}

func (m *hostMetadata) UncompressedBytes() int64 {
	return m.header.elements * int64(m.header.typ.Size())
}

// HostEngine is a cascaded codec running on buffers and streams of the CPU
// backend. Independent chunks of one launch are encoded concurrently.
type HostEngine struct {
	logger     *zap.Logger
	chunkShift uint
	workers    int
}

// NewHostEngine creates a host engine
func NewHostEngine(logger *zap.Logger, opts HostOptions) *HostEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &HostEngine{
		logger:     logger,
		chunkShift: chunkShiftFor(opts.ChunkElements),
		workers:    workers,
	}
}

// ChunkElements returns the effective chunk size.
func (e *HostEngine) ChunkElements() int {
	return 1 << e.chunkShift
}

func (e *HostEngine) validate(op string, inBytes int64, typ Type, opts FormatOptions) error {
	if !typ.Valid() {
		return newError(op, StatusNotSupported, "element type %d", int(typ))
	}
	if opts.NumRLEs < 0 || opts.NumDeltas < 0 || opts.NumRLEs > MaxStages || opts.NumDeltas > MaxStages {
		return newError(op, StatusInvalidValue, "stage counts must be between 0 and %d, got %s", MaxStages, opts)
	}
	if opts.NumRLEs == 0 && opts.NumDeltas == 0 && !opts.UseBitPacking {
		return newError(op, StatusInvalidValue, "at least one stage is required")
	}
	if inBytes <= 0 {
		return newError(op, StatusInvalidValue, "empty input")
	}
	if inBytes%int64(typ.Size()) != 0 {
		return newError(op, StatusInvalidValue, "%d bytes is not a multiple of the %s element size", inBytes, typ)
	}
	return nil
}

func (e *HostEngine) memory(op string, buf gpu.Buffer, atLeast int64) ([]byte, error) {
	hm, ok := buf.(hostMemory)
	if !ok || buf == nil {
		return nil, newError(op, StatusInvalidValue, "buffer %T is not host accessible", buf)
	}
	data := hm.Bytes()
	if int64(len(data)) < atLeast {
		return nil, newError(op, StatusInvalidValue, "buffer of %d bytes, need %d", len(data), atLeast)
	}
	return data, nil
}

func (e *HostEngine) launcher(op string, stream gpu.Stream) (hostLauncher, error) {
	l, ok := stream.(hostLauncher)
	if !ok || stream == nil {
		return nil, newError(op, StatusInvalidValue, "stream %T is not a host stream", stream)
	}
	return l, nil
}

func (e *HostEngine) compressTempSize(inBytes int64, typ Type) int64 {
	elements := inBytes / int64(typ.Size())
	return int64(numChunks(elements, e.chunkShift)) * 8
}

// CompressGetTempSize returns the size of the per-chunk length table.
func (e *HostEngine) CompressGetTempSize(in gpu.Buffer, inBytes int64, typ Type, opts FormatOptions) (int64, error) {
	if err := e.validate(OpCompressGetTempSize, inBytes, typ, opts); err != nil {
		return 0, err
	}
	return e.compressTempSize(inBytes, typ), nil
}

// CompressGetOutputSize returns the worst-case compressed size.
func (e *HostEngine) CompressGetOutputSize(in gpu.Buffer, inBytes int64, typ Type, opts FormatOptions,
	temp gpu.Buffer, tempBytes int64) (int64, error) {
	if err := e.validate(OpCompressGetOutputSize, inBytes, typ, opts); err != nil {
		return 0, err
	}
	if need := e.compressTempSize(inBytes, typ); tempBytes < need {
		return 0, newError(OpCompressGetOutputSize, StatusInvalidValue, "temp space of %d bytes, need %d", tempBytes, need)
	}
	elements := inBytes / int64(typ.Size())
	return compressBound(elements, typ.Size(), opts, e.chunkShift), nil
}

// CompressAsync launches compression of in onto stream.
func (e *HostEngine) CompressAsync(in gpu.Buffer, inBytes int64, typ Type, opts FormatOptions,
	temp gpu.Buffer, tempBytes int64, out gpu.Buffer, outBytes *int64, stream gpu.Stream) error {
	const op = OpCompressAsync
	if err := e.validate(op, inBytes, typ, opts); err != nil {
		return err
	}
	if outBytes == nil {
		return newError(op, StatusInvalidValue, "nil output size")
	}
	need := e.compressTempSize(inBytes, typ)
	if tempBytes < need {
		return newError(op, StatusInvalidValue, "temp space of %d bytes, need %d", tempBytes, need)
	}
	src, err := e.memory(op, in, inBytes)
	if err != nil {
		return err
	}
	table, err := e.memory(op, temp, need)
	if err != nil {
		return err
	}
	dst, err := e.memory(op, out, *outBytes)
	if err != nil {
		return err
	}
	l, err := e.launcher(op, stream)
	if err != nil {
		return err
	}

	capacity := *outBytes
	src = src[:inBytes]
	dst = dst[:capacity]
	w := typ.Size()

	return l.Launch(func() error {
		h := &blobHeader{
			typ:        typ,
			opts:       opts,
			elements:   inBytes / int64(w),
			chunkShift: e.chunkShift,
		}
		chunkBytes := h.chunkElements() * w
		chunks := make([][]byte, numChunks(h.elements, h.chunkShift))

		var g errgroup.Group
		g.SetLimit(e.workers)
		for i := range chunks {
			g.Go(func() error {
				lo := i * chunkBytes
				hi := min(lo+chunkBytes, len(src))
				chunks[i] = encodeChunk(nil, src[lo:hi], w, opts)
				binary.LittleEndian.PutUint64(table[i*8:], uint64(len(chunks[i])))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		h.chunkLens = make([]int, len(chunks))
		for i := range chunks {
			h.chunkLens[i] = int(binary.LittleEndian.Uint64(table[i*8:]))
		}
		blob := h.appendTo(nil)
		off := int64(len(blob))
		for _, c := range chunks {
			off += int64(len(c))
		}
		if off > capacity {
			return newError(op, StatusInvalidValue, "output buffer of %d bytes, need %d", capacity, off)
		}

		n := copy(dst, blob)
		for _, c := range chunks {
			n += copy(dst[n:], c)
		}
		*outBytes = int64(n)

		e.logger.Debug("compressed",
			zap.Int("chunks", len(chunks)),
			zap.Int64("in_bytes", inBytes),
			zap.Int("out_bytes", n))
		return nil
	})
}

// DecompressGetMetadata parses the blob header once the stream has drained.
func (e *HostEngine) DecompressGetMetadata(in gpu.Buffer, inBytes int64, stream gpu.Stream) (Metadata, error) {
	const op = OpDecompressGetMetadata
	src, err := e.memory(op, in, inBytes)
	if err != nil {
		return nil, err
	}
	l, err := e.launcher(op, stream)
	if err != nil {
		return nil, err
	}

	var meta *hostMetadata
	var parseErr error
	if err := l.Launch(func() error {
		h, payload, err := parseBlobHeader(src[:inBytes])
		if err != nil {
			parseErr = newError(op, StatusCannotDecompress, "invalid blob header")
			return nil
		}
		meta = &hostMetadata{header: h, payload: payload}
		return nil
	}); err != nil {
		return nil, newError(op, StatusCUDAError, "%v", err)
	}
	if err := l.Synchronize(); err != nil {
		return nil, newError(op, StatusCUDAError, "%v", err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return meta, nil
}

func (e *HostEngine) hostMeta(op string, meta Metadata) (*hostMetadata, error) {
	m, ok := meta.(*hostMetadata)
	if !ok || m == nil {
		return nil, newError(op, StatusInvalidValue, "metadata %T was not produced by this engine", meta)
	}
	if m.destroyed {
		return nil, newError(op, StatusInvalidValue, "metadata already destroyed")
	}
	return m, nil
}

// DecompressGetTempSize returns the size of the chunk offset table.
func (e *HostEngine) DecompressGetTempSize(meta Metadata) (int64, error) {
	m, err := e.hostMeta(OpDecompressGetTempSize, meta)
	if err != nil {
		return 0, err
	}
	return int64(len(m.header.chunkLens)) * 8, nil
}

// DecompressGetOutputSize returns the exact uncompressed size.
func (e *HostEngine) DecompressGetOutputSize(meta Metadata) (int64, error) {
	m, err := e.hostMeta(OpDecompressGetOutputSize, meta)
	if err != nil {
		return 0, err
	}
	return m.UncompressedBytes(), nil
}

// DecompressAsync launches decompression of in onto stream.
func (e *HostEngine) DecompressAsync(in gpu.Buffer, inBytes int64, temp gpu.Buffer, tempBytes int64,
	meta Metadata, out gpu.Buffer, outBytes int64, stream gpu.Stream) error {
	const op = OpDecompressAsync
	m, err := e.hostMeta(op, meta)
	if err != nil {
		return err
	}
	h := m.header
	need := int64(len(h.chunkLens)) * 8
	if tempBytes < need {
		return newError(op, StatusInvalidValue, "temp space of %d bytes, need %d", tempBytes, need)
	}
	if outBytes < m.UncompressedBytes() {
		return newError(op, StatusInvalidValue, "output space of %d bytes, need %d", outBytes, m.UncompressedBytes())
	}
	src, err := e.memory(op, in, inBytes)
	if err != nil {
		return err
	}
	table, err := e.memory(op, temp, need)
	if err != nil {
		return err
	}
	dst, err := e.memory(op, out, m.UncompressedBytes())
	if err != nil {
		return err
	}
	l, err := e.launcher(op, stream)
	if err != nil {
		return err
	}

	src = src[:inBytes]
	w := h.typ.Size()

	return l.Launch(func() error {
		off := uint64(m.payload)
		for i, n := range h.chunkLens {
			binary.LittleEndian.PutUint64(table[i*8:], off)
			off += uint64(n)
		}
		if off > uint64(len(src)) {
			return newError(op, StatusCannotDecompress, "blob truncated")
		}

		chunkElems := h.chunkElements()
		var g errgroup.Group
		g.SetLimit(e.workers)
		for i, n := range h.chunkLens {
			g.Go(func() error {
				start := binary.LittleEndian.Uint64(table[i*8:])
				first := int64(i) * int64(chunkElems)
				count := int(min(int64(chunkElems), h.elements-first))
				lo := int(first) * w
				if err := decodeChunk(dst[lo:lo+count*w], src[start:start+uint64(n)], count, w, h.opts); err != nil {
					return newError(op, StatusCannotDecompress, "chunk %d: %v", i, err)
				}
				return nil
			})
		}
		return g.Wait()
	})
}

// DecompressDestroyMetadata releases metadata
func (e *HostEngine) DecompressDestroyMetadata(meta Metadata) {
	if m, ok := meta.(*hostMetadata); ok && m != nil {
		m.destroyed = true
	}
}
