// ABOUTME: Whole-file audio decoding for dropped media
// ABOUTME: Sniffs the container, decodes to float32 PCM, resamples to engine rate
package codec

import (
	"bytes"
	"fmt"

	"github.com/Clipdeck/clipdeck-go/internal/audio"
)

// DecodeError describes a failed decode. Surfaced to the UI per file; one bad
// file never affects other decodes in flight.
type DecodeError struct {
	Format string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Format, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Result is a completed decode: an engine-rate buffer plus the source facts.
type Result struct {
	Buffer          *audio.Buffer
	NativeRate      int
	DurationSeconds float64
}

// Decode turns raw file bytes into a stereo buffer at targetRate. The
// container is sniffed from the bytes; WAV, FLAC, and MP3 are supported.
func Decode(data []byte, targetRate int) (*Result, error) {
	if targetRate <= 0 {
		return nil, &DecodeError{Format: "any", Reason: fmt.Sprintf("invalid target rate %d", targetRate)}
	}

	switch sniff(data) {
	case "wav":
		return decodeWAV(data, targetRate)
	case "flac":
		return decodeFLAC(data, targetRate)
	case "mp3":
		return decodeMP3(data, targetRate)
	default:
		return nil, &DecodeError{Format: "unknown", Reason: "unrecognized audio container"}
	}
}

// sniff identifies the container from magic bytes. MP3 is the fallthrough
// for an ID3 tag or a bare MPEG sync word.
func sniff(data []byte) string {
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return "wav"
	}
	if len(data) >= 4 && bytes.Equal(data[0:4], []byte("fLaC")) {
		return "flac"
	}
	if len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")) {
		return "mp3"
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return "mp3"
	}
	return ""
}

// finish wraps decoded interleaved stereo PCM into a Result, resampling to
// the engine rate when the source rate differs.
func finish(format string, pcm []float32, nativeRate, targetRate int) (*Result, error) {
	if len(pcm) == 0 {
		return nil, &DecodeError{Format: format, Reason: "no audio frames"}
	}
	if nativeRate <= 0 {
		return nil, &DecodeError{Format: format, Reason: fmt.Sprintf("invalid sample rate %d", nativeRate)}
	}

	out := resampleStereo(pcm, nativeRate, targetRate)
	buf := &audio.Buffer{
		SampleRate: targetRate,
		Channels:   2,
		Data:       out,
	}
	return &Result{
		Buffer:          buf,
		NativeRate:      nativeRate,
		DurationSeconds: buf.Duration(),
	}, nil
}
