package benchmark

import "time"

// Measurement is a timed transfer of Bytes. Start and End carry the
// monotonic clock reading of time.Now.
type Measurement struct {
	Start time.Time
	End   time.Time
	Bytes int64
}

// Elapsed returns the duration of the measured window.
func (m Measurement) Elapsed() time.Duration {
	return m.End.Sub(m.Start)
}

// Throughput returns GB/s, or zero when the window is empty.
func (m Measurement) Throughput() float64 {
	secs := m.Elapsed().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(m.Bytes) / secs / 1e9
}
