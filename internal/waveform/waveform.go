// ABOUTME: Waveform peak extraction for clip rendering
// ABOUTME: Reduces a decoded buffer to a fixed number of max-abs buckets
package waveform

import "github.com/Clipdeck/clipdeck-go/internal/audio"

// DefaultResolution is the peak count computed for each decoded clip.
const DefaultResolution = 200

// Peaks reduces buf to n max-absolute-amplitude buckets in [0, 1]. All
// channels contribute to a bucket. A nil or empty buffer yields n zeros so
// callers always get a drawable slice.
func Peaks(buf *audio.Buffer, n int) []float64 {
	if n <= 0 {
		return nil
	}
	peaks := make([]float64, n)

	frames := buf.Frames()
	if frames == 0 {
		return peaks
	}

	framesPerBucket := frames / n
	if framesPerBucket == 0 {
		framesPerBucket = 1
	}

	for i := 0; i < n; i++ {
		start := i * framesPerBucket
		end := start + framesPerBucket
		if end > frames {
			end = frames
		}

		var peak float64
		for f := start; f < end; f++ {
			for ch := 0; ch < buf.Channels; ch++ {
				v := float64(buf.Sample(f, ch))
				if v < 0 {
					v = -v
				}
				if v > peak {
					peak = v
				}
			}
		}
		if peak > 1 {
			peak = 1
		}
		peaks[i] = peak
	}
	return peaks
}
