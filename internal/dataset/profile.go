package dataset

import (
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Profile summarizes the value distribution of a dataset. Runs is the number
// of maximal runs of equal adjacent values, which bounds what one RLE stage
// can achieve.
type Profile struct {
	Elements int
	Min      float64
	Max      float64
	Mean     float64
	StdDev   float64
	Runs     int
}

// Profile computes summary statistics over the elements.
func (d *Dataset) Profile() Profile {
	n := d.Len()
	p := Profile{Elements: n}
	if n == 0 {
		return p
	}

	xs := make([]float64, n)
	prev := d.Element(0)
	p.Runs = 1
	for i := range xs {
		v := d.Element(i)
		if v != prev {
			p.Runs++
			prev = v
		}
		xs[i] = float64(v)
	}

	p.Min = floats.Min(xs)
	p.Max = floats.Max(xs)
	p.Mean, p.StdDev = stat.MeanStdDev(xs, nil)
	return p
}

// MarshalLogObject lets a profile be logged with zap.Object.
func (p Profile) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("elements", p.Elements)
	enc.AddFloat64("min", p.Min)
	enc.AddFloat64("max", p.Max)
	enc.AddFloat64("mean", p.Mean)
	enc.AddFloat64("stddev", p.StdDev)
	enc.AddInt("runs", p.Runs)
	return nil
}
