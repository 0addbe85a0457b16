package cascaded

import (
	"encoding/binary"
	"math/bits"
)

// Blob layout:
//
//	[0]   magic
//	[1]   version<<4 | bitpack<<3 | type
//	[2]   number of RLE stages
//	[3]   number of delta stages
//	[4]   log2 of the chunk size in elements
//	uvarint element count
//	uvarint compressed length of every chunk
//	chunk payloads
const (
	blobMagic      byte = 0xCA
	blobVersion    byte = 1
	blobFixedBytes      = 5
	flagBitPacking byte = 1 << 3
)

// MaxStages is the largest RLE or delta stage count the host engine accepts.
const MaxStages = 8

type blobHeader struct {
	typ        Type
	opts       FormatOptions
	elements   int64
	chunkShift uint
	chunkLens  []int
}

func (h *blobHeader) chunkElements() int {
	return 1 << h.chunkShift
}

func numChunks(elements int64, chunkShift uint) int {
	return int((elements + (1 << chunkShift) - 1) >> chunkShift)
}

func (h *blobHeader) appendTo(dst []byte) []byte {
	flags := blobVersion<<4 | byte(h.typ)
	if h.opts.UseBitPacking {
		flags |= flagBitPacking
	}
	dst = append(dst, blobMagic, flags, byte(h.opts.NumRLEs), byte(h.opts.NumDeltas), byte(h.chunkShift))
	dst = binary.AppendUvarint(dst, uint64(h.elements))
	for _, n := range h.chunkLens {
		dst = binary.AppendUvarint(dst, uint64(n))
	}
	return dst
}

// parseBlobHeader decodes the header and returns the offset of the first
// chunk payload.
func parseBlobHeader(src []byte) (*blobHeader, int, error) {
	if len(src) < blobFixedBytes || src[0] != blobMagic || src[1]>>4 != blobVersion {
		return nil, 0, errMalformed
	}
	h := &blobHeader{
		typ: Type(src[1] & 0x7),
		opts: FormatOptions{
			NumRLEs:       int(src[2]),
			NumDeltas:     int(src[3]),
			UseBitPacking: src[1]&flagBitPacking != 0,
		},
		chunkShift: uint(src[4]),
	}
	if !h.typ.Valid() || h.opts.NumRLEs > MaxStages || h.opts.NumDeltas > MaxStages || h.chunkShift > 30 {
		return nil, 0, errMalformed
	}
	off := blobFixedBytes

	elements, n := binary.Uvarint(src[off:])
	if n <= 0 || elements > uint64(len(src))<<(h.chunkShift+1) {
		// every chunk costs at least a byte of header, so the element
		// count cannot exceed the blob size times the chunk size
		return nil, 0, errMalformed
	}
	off += n
	h.elements = int64(elements)

	chunks := numChunks(h.elements, h.chunkShift)
	h.chunkLens = make([]int, chunks)
	total := 0
	for i := range h.chunkLens {
		l, n := binary.Uvarint(src[off:])
		if n <= 0 || l > uint64(len(src)) {
			return nil, 0, errMalformed
		}
		off += n
		h.chunkLens[i] = int(l)
		total += int(l)
	}
	if off+total > len(src) {
		return nil, 0, errMalformed
	}
	return h, off, nil
}

// chunkShiftFor rounds a configured chunk size down to a power of two.
func chunkShiftFor(chunkElements int) uint {
	if chunkElements < 1 {
		chunkElements = DefaultChunkElements
	}
	if chunkElements > 1<<30 {
		chunkElements = 1 << 30
	}
	return uint(bits.Len(uint(chunkElements)) - 1)
}

// compressBound is the largest blob encodeChunk can produce for the input.
func compressBound(elements int64, w int, opts FormatOptions, chunkShift uint) int64 {
	chunks := numChunks(elements, chunkShift)
	bound := int64(blobFixedBytes + binary.MaxVarintLen64 + chunks*binary.MaxVarintLen64)
	chunkElems := int64(1) << chunkShift
	for remaining := elements; remaining > 0; remaining -= chunkElems {
		n := chunkElems
		if remaining < n {
			n = remaining
		}
		// value stream at native width, run streams at most 4 bytes per run
		perChunk := streamBound(int(n), w) + opts.NumRLEs*streamBound(int(n), 4)
		bound += int64(perChunk)
	}
	return bound
}
