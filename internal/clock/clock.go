// ABOUTME: Musical time math for the playback engine
// ABOUTME: Sample/second conversion and beat-grid snapping, guarded against NaN
package clock

import (
	"log"
	"math"
)

// Defaults used when a caller hands us an unusable tempo or grid.
const (
	DefaultBPM          = 120.0
	DefaultGridDivision = 16.0 // sixteenth notes
)

// TimeSignature is a musical meter, e.g. 4/4.
type TimeSignature struct {
	Numerator   int
	Denominator int
}

// Valid reports whether both parts of the signature are positive.
func (ts TimeSignature) Valid() bool {
	return ts.Numerator > 0 && ts.Denominator > 0
}

// SamplesToSeconds converts a sample count to seconds at the given rate.
func SamplesToSeconds(samples int64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(samples) / float64(sampleRate)
}

// SecondsToSamples converts seconds to the nearest sample count. Samples are
// the authoritative integer representation of position; all position math
// goes through here to avoid floating-point drift.
func SecondsToSamples(seconds float64, sampleRate int) int64 {
	if sampleRate <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return int64(math.Round(seconds * float64(sampleRate)))
}

// GridDuration returns the length in seconds of one grid unit. A quarter note
// is one beat, so seconds per unit = (60/bpm) / (division/4). Unusable inputs
// fall back to 120 BPM sixteenths rather than propagating NaN.
func GridDuration(bpm, gridDivision float64, sig TimeSignature) float64 {
	if !isUsable(bpm) || bpm <= 0 {
		log.Printf("clock: invalid bpm %v, falling back to %v", bpm, DefaultBPM)
		bpm = DefaultBPM
	}
	if !isUsable(gridDivision) || gridDivision <= 0 {
		log.Printf("clock: invalid grid division %v, falling back to %v", gridDivision, DefaultGridDivision)
		gridDivision = DefaultGridDivision
	}
	return (60.0 / bpm) / (gridDivision / 4.0)
}

// SnapToGrid rounds a time to the nearest grid unit. If the grid duration
// cannot be computed the original time is returned unchanged.
func SnapToGrid(t, bpm, gridDivision float64, sig TimeSignature) float64 {
	if !isUsable(t) {
		return t
	}
	unit := GridDuration(bpm, gridDivision, sig)
	if unit <= 0 || !isUsable(unit) {
		return t
	}
	return math.Round(t/unit) * unit
}

// BeatDuration returns seconds per beat (quarter-note referenced, as DAWs
// conventionally treat BPM regardless of the time signature denominator).
func BeatDuration(bpm float64) float64 {
	if !isUsable(bpm) || bpm <= 0 {
		bpm = DefaultBPM
	}
	return 60.0 / bpm
}

// BarDuration returns seconds per bar for the given meter.
func BarDuration(bpm float64, sig TimeSignature) float64 {
	if !sig.Valid() {
		sig = TimeSignature{Numerator: 4, Denominator: 4}
	}
	return BeatDuration(bpm) * float64(sig.Numerator) * 4.0 / float64(sig.Denominator)
}

// BarsBeats splits a time into one-based bar and beat numbers for display.
func BarsBeats(t, bpm float64, sig TimeSignature) (bar, beat int) {
	if !isUsable(t) || t < 0 {
		t = 0
	}
	barDur := BarDuration(bpm, sig)
	if !sig.Valid() {
		sig = TimeSignature{Numerator: 4, Denominator: 4}
	}
	bar = int(t/barDur) + 1
	within := math.Mod(t, barDur)
	beatDur := barDur / float64(sig.Numerator)
	beat = int(within/beatDur) + 1
	return bar, beat
}

// PixelsToTime converts a horizontal pixel offset to seconds at a zoom level.
func PixelsToTime(pixels, pixelsPerSecond float64) float64 {
	if !isUsable(pixels) || !isUsable(pixelsPerSecond) || pixelsPerSecond <= 0 {
		return 0
	}
	return pixels / pixelsPerSecond
}

// TimeToPixels converts seconds to a horizontal pixel offset at a zoom level.
func TimeToPixels(t, pixelsPerSecond float64) float64 {
	if !isUsable(t) || !isUsable(pixelsPerSecond) {
		return 0
	}
	return t * pixelsPerSecond
}

func isUsable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
