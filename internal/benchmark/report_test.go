package benchmark

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	start := time.Unix(1700000000, 0)
	return &Report{
		UncompressedBytes:   4_000_000_000,
		CompressedBytes:     1_500_000_000,
		CompressTempBytes:   64,
		CompressOutputBytes: 4_100_000_000,
		Compression: Measurement{
			Start: start,
			End:   start.Add(2 * time.Second),
			Bytes: 4_000_000_000,
		},
		DecompressTempBytes:   32,
		DecompressOutputBytes: 4_000_000_000,
		Decompression: Measurement{
			Start: start,
			End:   start.Add(500 * time.Millisecond),
			Bytes: 4_000_000_000,
		},
	}
}

func TestReport_Emit(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, sampleReport().Emit(&buf, false))
		assert.Equal(t, "----------\n"+
			"uncompressed (B): 4000000000\n"+
			"comp_size: 1500000000, compressed ratio: 2.67\n"+
			"compression throughput (GB/s): 2.00\n"+
			"decompression throughput (GB/s): 8.00\n", buf.String())
	})

	t.Run("verbose memory", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, sampleReport().Emit(&buf, true))
		assert.Equal(t, "----------\n"+
			"uncompressed (B): 4000000000\n"+
			"compression memory (input+output+temp) (B): 8100000064\n"+
			"compression temp space (B): 64\n"+
			"compression output space (B): 4100000000\n"+
			"comp_size: 1500000000, compressed ratio: 2.67\n"+
			"compression throughput (GB/s): 2.00\n"+
			"decompression memory (input+output+temp) (B): 5500000032\n"+
			"decompression temp space (B): 32\n"+
			"decompression output space (B): 4000000000\n"+
			"decompression throughput (GB/s): 8.00\n", buf.String())
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestReport_EmitWriteError(t *testing.T) {
	assert.EqualError(t, sampleReport().Emit(failingWriter{}, false), "closed")
}

func TestReport_Ratio(t *testing.T) {
	assert.Zero(t, (&Report{UncompressedBytes: 10}).Ratio())
	assert.InDelta(t, 32.0/28.0, (&Report{UncompressedBytes: 32, CompressedBytes: 28}).Ratio(), 1e-12)
}

func TestMeasurement_Throughput(t *testing.T) {
	start := time.Now()
	testCases := []struct {
		name string
		m    Measurement
		want float64
	}{
		{"one GB per second", Measurement{Start: start, End: start.Add(time.Second), Bytes: 1e9}, 1},
		{"sub-second window", Measurement{Start: start, End: start.Add(250 * time.Millisecond), Bytes: 1e9}, 4},
		{"empty window", Measurement{Start: start, End: start, Bytes: 1e9}, 0},
		{"clock went backwards", Measurement{Start: start, End: start.Add(-time.Second), Bytes: 1e9}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.m.Throughput(), 1e-9)
		})
	}
}

func TestOutcome(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&UsageError{Msg: "missing -f"}, "usage_error"},
		{fmt.Errorf("run: %w", &IOError{Path: "x", Err: errors.New("denied")}), "io_error"},
		{&InsufficientResourceError{What: "dataset", Required: 2, Free: 1}, "insufficient_resource"},
		{engineError(cascaded.OpCompressAsync, errors.New("boom")), "engine_error"},
		{&CorruptionError{Index: 3}, "corruption"},
		{errors.New("other"), "error"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Outcome(tc.err))
	}
}

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t, &InsufficientResourceError{What: "dataset", Required: 2048, Free: 1024},
		"insufficient device memory for dataset: need 2.00 KiB, 1.00 KiB free")
	assert.EqualError(t, &CorruptionError{Index: -1, ExpectedBytes: 32, ActualBytes: 28},
		"decompressed result incorrect size: got 28 B, want 32 B")
	assert.EqualError(t, &CorruptionError{Index: 7, Expected: 1, Actual: 2},
		"failed to verify decompressed data at element 7: got 2, want 1")
	assert.EqualError(t, &UsageError{Msg: "missing -f"}, "missing -f")

	// an engine-raised error keeps the engine's operation name
	err := engineError(cascaded.OpCompressAsync, &cascaded.Error{Op: cascaded.OpDecompressAsync, Status: cascaded.StatusCUDAError})
	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, cascaded.OpDecompressAsync, engineErr.Op)
	assert.Equal(t, cascaded.StatusCUDAError, engineErr.Status())
}
