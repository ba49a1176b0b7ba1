// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package timing summarizes the per-case elapsed times of a batch.
package timing

import (
	"fmt"
	"math"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1µs up to one day, three significant digits.
const (
	histMin     = 1
	histMax     = int64(24 * time.Hour / time.Microsecond)
	histSigFigs = 3
)

// Summary holds aggregate timing figures, all in seconds.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	P50    float64
	P95    float64
	Max    float64
	// Unrecorded counts durations the histogram rejected. They still count
	// towards Mean, StdDev and Max but are missing from P50 and P95.
	Unrecorded int
}

// Summarize computes the mean and population standard deviation of the
// durations exactly, and the percentiles from an HDR histogram. An empty
// input yields NaN mean and deviation.
func Summarize(durations []time.Duration) Summary {
	s := Summary{Count: len(durations)}
	if len(durations) == 0 {
		s.Mean, s.StdDev = math.NaN(), math.NaN()
		return s
	}

	hist := hdrhistogram.New(histMin, histMax, histSigFigs)
	var sum float64
	for _, d := range durations {
		sec := d.Seconds()
		sum += sec
		s.Max = math.Max(s.Max, sec)
		if !record(hist, d) {
			s.Unrecorded++
		}
	}
	s.Mean = sum / float64(len(durations))

	var sq float64
	for _, d := range durations {
		diff := d.Seconds() - s.Mean
		sq += diff * diff
	}
	s.StdDev = math.Sqrt(sq / float64(len(durations)))

	s.P50 = microsToSeconds(hist.ValueAtQuantile(50))
	s.P95 = microsToSeconds(hist.ValueAtQuantile(95))
	return s
}

// record adds d to the histogram, clamped to the histogram bounds, and
// reports whether the histogram accepted it.
func record(hist *hdrhistogram.Histogram, d time.Duration) bool {
	us := min(max(d.Microseconds(), histMin), histMax)
	return hist.RecordValue(us) == nil
}

func microsToSeconds(us int64) float64 {
	return float64(us) / 1e6
}

// String renders the terminal summary line.
func (s Summary) String() string {
	return fmt.Sprintf("Average execution time: %.2f +/- %.2f seconds", s.Mean, s.StdDev)
}
