// Package locator finds the strongest reflection in a captured waveform and
// converts its round-trip delay into a speed of sound estimate.
package locator

import (
	"math"
)

// Estimate is the result of an echo search over one waveform.
type Estimate struct {
	EchoTimeMs float64 // time of the strongest in-window reflection, ms from capture start
	PeakIndex  int     // sample index of that reflection
	Degenerate bool    // true when the search window was empty after clamping
}

// msToIndex converts a millisecond offset to a sample index, clamped to
// [0, length]. Out-of-range window configuration must never index past
// buffer bounds.
func msToIndex(ms, sampleRate, length int) int {
	idx := int(math.Round(float64(ms) / 1000.0 * float64(sampleRate)))
	return clamp(idx, 0, length)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Locate returns the timestamp of the loudest sample inside the search
// window. The window start is the larger of the ignore lead-in and the
// configured search start, so the direct buzzer leak before the window and
// any late noise after it are both excluded. Ties are broken by the lowest
// index, so results are reproducible.
//
// If the window is empty after clamping there is no measurable echo; the
// estimate carries a zero echo time so the speed computation resolves to
// its zero sentinel.
func Locate(wave []float32, sampleRate, ignoreFirstMs, searchStartMs, searchEndMs int) Estimate {
	start := msToIndex(searchStartMs, sampleRate, len(wave))
	if ignore := msToIndex(ignoreFirstMs, sampleRate, len(wave)); ignore > start {
		start = ignore
	}
	end := msToIndex(searchEndMs, sampleRate, len(wave))

	if start >= end {
		return Estimate{EchoTimeMs: 0, PeakIndex: start, Degenerate: true}
	}

	peakIndex := start
	var peak float32
	for i := start; i < end; i++ {
		loud := wave[i]
		if loud < 0 {
			loud = -loud
		}
		if loud > peak {
			peak = loud
			peakIndex = i
		}
	}

	return Estimate{
		EchoTimeMs: float64(peakIndex) / float64(sampleRate) * 1000.0,
		PeakIndex:  peakIndex,
	}
}

// Speed converts a round-trip echo delay into a speed in m/s for a known
// one-way distance. A non-positive delay means no measurable echo and
// resolves to 0.0 rather than an error.
func Speed(echoTimeMs, oneWayDistanceM float64) float64 {
	t := echoTimeMs / 1000.0
	if t <= 0 {
		return 0.0
	}
	return (2.0 * oneWayDistanceM) / t
}
