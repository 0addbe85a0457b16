package gpu

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
)

func BenchmarkCPUBackend_HostToDevice(b *testing.B) {
	backend := NewCPUBackend(zap.NewNop(), 0)
	if err := backend.Initialize(); err != nil {
		b.Fatal(err)
	}
	defer backend.Cleanup()

	sizes := []int64{1 << 10, 1 << 20, 16 << 20}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("size_%s", FormatBytes(size)), func(b *testing.B) {
			buf, err := backend.Malloc(size)
			if err != nil {
				b.Fatal(err)
			}
			defer backend.Free(buf)

			src := make([]byte, size)
			for i := range src {
				src[i] = byte(i)
			}

			b.SetBytes(size)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if err := backend.CopyHostToDevice(buf, src); err != nil {
					b.Fatal(err)
				}
			}

			gbs := float64(size) * float64(b.N) / b.Elapsed().Seconds() / 1e9
			b.ReportMetric(gbs, "GB/s")
		})
	}
}

func BenchmarkHostStream_LaunchSynchronize(b *testing.B) {
	s := newHostStream()
	defer s.Destroy()

	for i := 0; i < b.N; i++ {
		if err := s.Launch(func() error { return nil }); err != nil {
			b.Fatal(err)
		}
		if err := s.Synchronize(); err != nil {
			b.Fatal(err)
		}
	}
}
