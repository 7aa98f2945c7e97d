// ABOUTME: Audio type definitions for the playback engine
// ABOUTME: Decoded PCM is stored as interleaved float32 frames
package audio

// Buffer holds decoded PCM audio at a fixed sample rate.
// Data is interleaved: frame i occupies Data[i*Channels : (i+1)*Channels].
type Buffer struct {
	SampleRate int
	Channels   int
	Data       []float32
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the buffer's native length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Sample returns the sample for a frame and channel. A mono buffer serves
// every channel from its single one; out-of-range frames read as silence.
func (b *Buffer) Sample(frame, channel int) float32 {
	if b == nil || frame < 0 || frame >= b.Frames() {
		return 0
	}
	if channel >= b.Channels {
		channel = b.Channels - 1
	}
	return b.Data[frame*b.Channels+channel]
}

// SampleToInt16 converts a float32 sample to int16 with clipping.
func SampleToInt16(s float32) int16 {
	if s > 1.0 {
		s = 1.0
	}
	if s < -1.0 {
		s = -1.0
	}
	return int16(s * 32767)
}

// SampleFromInt16 converts an int16 sample to float32 in [-1, 1].
func SampleFromInt16(s int16) float32 {
	return float32(s) / 32768
}
