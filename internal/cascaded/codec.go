package cascaded

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

// Stream storage modes inside a chunk
const (
	modeRaw    byte = 0
	modePacked byte = 1
)

// Upper bound on the header bytes of one encoded stream:
// count uvarint, mode, width or bit count, reference varint.
const maxStreamHeader = binary.MaxVarintLen64 + 1 + 1 + binary.MaxVarintLen64

var errMalformed = errors.New("malformed chunk")

// widthMask returns the mask selecting the low w bytes of a value.
func widthMask(w int) uint64 {
	if w >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*uint(w)) - 1
}

// signExtend interprets the low w bytes of v as a two's complement integer.
func signExtend(v uint64, w int) int64 {
	shift := 64 - 8*uint(w)
	return int64(v<<shift) >> shift
}

// loadValues decodes little-endian elements of width w.
func loadValues(src []byte, w int) []uint64 {
	n := len(src) / w
	vals := make([]uint64, n)
	switch w {
	case 1:
		for i := range vals {
			vals[i] = uint64(src[i])
		}
	case 2:
		for i := range vals {
			vals[i] = uint64(binary.LittleEndian.Uint16(src[2*i:]))
		}
	case 4:
		for i := range vals {
			vals[i] = uint64(binary.LittleEndian.Uint32(src[4*i:]))
		}
	default:
		for i := range vals {
			vals[i] = binary.LittleEndian.Uint64(src[8*i:])
		}
	}
	return vals
}

// storeValues encodes vals as little-endian elements of width w.
func storeValues(dst []byte, vals []uint64, w int) {
	switch w {
	case 1:
		for i, v := range vals {
			dst[i] = byte(v)
		}
	case 2:
		for i, v := range vals {
			binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
		}
	case 4:
		for i, v := range vals {
			binary.LittleEndian.PutUint32(dst[4*i:], uint32(v))
		}
	default:
		for i, v := range vals {
			binary.LittleEndian.PutUint64(dst[8*i:], v)
		}
	}
}

// rleEncode collapses runs of equal values into (values, run lengths).
func rleEncode(vals []uint64) ([]uint64, []uint64) {
	if len(vals) == 0 {
		return nil, nil
	}
	values := make([]uint64, 0, len(vals)/2+1)
	runs := make([]uint64, 0, len(vals)/2+1)
	current, count := vals[0], uint64(1)
	for _, v := range vals[1:] {
		if v == current {
			count++
			continue
		}
		values = append(values, current)
		runs = append(runs, count)
		current, count = v, 1
	}
	values = append(values, current)
	runs = append(runs, count)
	return values, runs
}

// rleDecode expands (values, runs) back into exactly n values.
func rleDecode(values, runs []uint64, n int) ([]uint64, error) {
	if len(values) != len(runs) {
		return nil, errMalformed
	}
	out := make([]uint64, 0, n)
	for i, run := range runs {
		if run == 0 || run > uint64(n-len(out)) {
			return nil, errMalformed
		}
		for j := uint64(0); j < run; j++ {
			out = append(out, values[i])
		}
	}
	if len(out) != n {
		return nil, errMalformed
	}
	return out, nil
}

// deltaEncode replaces every value but the first with its difference to the
// previous one, wrapping at width w.
func deltaEncode(vals []uint64, w int) {
	m := widthMask(w)
	for i := len(vals) - 1; i > 0; i-- {
		vals[i] = (vals[i] - vals[i-1]) & m
	}
}

// deltaDecode is the prefix sum inverting deltaEncode.
func deltaDecode(vals []uint64, w int) {
	m := widthMask(w)
	for i := 1; i < len(vals); i++ {
		vals[i] = (vals[i] + vals[i-1]) & m
	}
}

// narrowestWidth returns the smallest of 1, 2, 4 or 8 bytes that holds max.
func narrowestWidth(max uint64) int {
	switch {
	case max <= 0xff:
		return 1
	case max <= 0xffff:
		return 2
	case max <= 0xffffffff:
		return 4
	default:
		return 8
	}
}

// packBits appends the low nbits of every value, LSB first.
func packBits(dst []byte, vals []uint64, nbits uint) []byte {
	if nbits == 0 {
		return dst
	}
	var acc uint64
	var filled uint
	for _, v := range vals {
		if nbits < 64 {
			v &= uint64(1)<<nbits - 1
		}
		acc |= v << filled
		taken := 64 - filled
		if nbits >= taken {
			// acc is full: flush 8 bytes and keep the leftover high bits
			dst = binary.LittleEndian.AppendUint64(dst, acc)
			if taken == 64 {
				acc = 0
			} else {
				acc = v >> taken
			}
			filled = nbits - taken
		} else {
			filled += nbits
		}
	}
	for filled > 0 {
		dst = append(dst, byte(acc))
		acc >>= 8
		if filled < 8 {
			filled = 0
		} else {
			filled -= 8
		}
	}
	return dst
}

// unpackBits reads n values of nbits each written by packBits.
func unpackBits(src []byte, n int, nbits uint) ([]uint64, error) {
	vals := make([]uint64, n)
	if nbits == 0 {
		return vals, nil
	}
	if uint64(len(src))*8 < uint64(n)*uint64(nbits) {
		return nil, errMalformed
	}
	var mask uint64 = ^uint64(0)
	if nbits < 64 {
		mask = uint64(1)<<nbits - 1
	}
	bitPos := uint64(0)
	for i := range vals {
		var v uint64
		got := uint(0)
		for got < nbits {
			byteIdx := bitPos / 8
			off := uint(bitPos % 8)
			chunk := uint64(src[byteIdx]) >> off
			avail := 8 - off
			v |= chunk << got
			got += avail
			bitPos += uint64(avail)
		}
		// the loop may overshoot into the next value's bits
		over := got - nbits
		bitPos -= uint64(over)
		vals[i] = v & mask
	}
	return vals, nil
}

// packedLen is the number of bytes packBits emits for n values of nbits.
func packedLen(n int, nbits uint) int {
	return int((uint64(n)*uint64(nbits) + 7) / 8)
}

// appendStream encodes one stream. Values are compared as signed integers of
// signWidth bytes when choosing the bit-packing reference; raw streams store
// each value in rawWidth bytes.
func appendStream(dst []byte, vals []uint64, signWidth, rawWidth int, pack bool) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(vals)))
	if !pack {
		dst = append(dst, modeRaw, byte(rawWidth))
		start := len(dst)
		dst = append(dst, make([]byte, len(vals)*rawWidth)...)
		storeValues(dst[start:], vals, rawWidth)
		return dst
	}

	var ref int64
	if len(vals) > 0 {
		ref = signExtend(vals[0], signWidth)
		for _, v := range vals[1:] {
			if s := signExtend(v, signWidth); s < ref {
				ref = s
			}
		}
	}
	var maxDiff uint64
	diffs := make([]uint64, len(vals))
	for i, v := range vals {
		diffs[i] = uint64(signExtend(v, signWidth) - ref)
		if diffs[i] > maxDiff {
			maxDiff = diffs[i]
		}
	}
	nbits := uint(bits.Len64(maxDiff))
	dst = append(dst, modePacked, byte(nbits))
	dst = binary.AppendVarint(dst, ref)
	return packBits(dst, diffs, nbits)
}

// readStream decodes one stream written by appendStream. limit bounds the
// element count so corrupt headers cannot force huge allocations.
func readStream(src []byte, signWidth int, limit int) ([]uint64, []byte, error) {
	count, n := binary.Uvarint(src)
	if n <= 0 || count > uint64(limit) || len(src) < n+2 {
		return nil, nil, errMalformed
	}
	src = src[n:]
	mode, param := src[0], src[1]
	src = src[2:]

	switch mode {
	case modeRaw:
		w := int(param)
		if w != 1 && w != 2 && w != 4 && w != 8 {
			return nil, nil, errMalformed
		}
		size := int(count) * w
		if len(src) < size {
			return nil, nil, errMalformed
		}
		return loadValues(src[:size], w), src[size:], nil

	case modePacked:
		nbits := uint(param)
		if nbits > 64 {
			return nil, nil, errMalformed
		}
		ref, n := binary.Varint(src)
		if n <= 0 {
			return nil, nil, errMalformed
		}
		src = src[n:]
		size := packedLen(int(count), nbits)
		if len(src) < size {
			return nil, nil, errMalformed
		}
		vals, err := unpackBits(src[:size], int(count), nbits)
		if err != nil {
			return nil, nil, err
		}
		m := widthMask(signWidth)
		for i, d := range vals {
			vals[i] = (uint64(ref) + d) & m
		}
		return vals, src[size:], nil

	default:
		return nil, nil, errMalformed
	}
}

// streamBound is the worst-case encoded size of a stream of n values whose
// data occupies at most dataWidth bytes per value.
func streamBound(n, dataWidth int) int {
	return maxStreamHeader + n*dataWidth
}

// encodeChunk runs the cascade over one chunk of raw little-endian elements.
// Layout: one stream per RLE stage holding run lengths, then the value stream.
func encodeChunk(dst []byte, src []byte, w int, opts FormatOptions) []byte {
	vals := loadValues(src, w)
	runs := make([][]uint64, opts.NumRLEs)
	for i := range runs {
		vals, runs[i] = rleEncode(vals)
	}
	for i := 0; i < opts.NumDeltas; i++ {
		deltaEncode(vals, w)
	}
	for _, r := range runs {
		var max uint64
		for _, v := range r {
			if v > max {
				max = v
			}
		}
		dst = appendStream(dst, r, 8, narrowestWidth(max), opts.UseBitPacking)
	}
	return appendStream(dst, vals, w, w, opts.UseBitPacking)
}

// decodeChunk inverts encodeChunk, writing exactly n elements into dst.
func decodeChunk(dst []byte, src []byte, n, w int, opts FormatOptions) error {
	var err error
	runs := make([][]uint64, opts.NumRLEs)
	for i := range runs {
		runs[i], src, err = readStream(src, 8, n)
		if err != nil {
			return err
		}
	}
	vals, rest, err := readStream(src, w, n)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errMalformed
	}
	for i := 0; i < opts.NumDeltas; i++ {
		deltaDecode(vals, w)
	}
	for i := len(runs) - 1; i >= 0; i-- {
		expected := n
		if i > 0 {
			expected = len(runs[i-1])
		}
		vals, err = rleDecode(vals, runs[i], expected)
		if err != nil {
			return err
		}
	}
	if len(vals) != n {
		return errMalformed
	}
	storeValues(dst[:n*w], vals, w)
	return nil
}
