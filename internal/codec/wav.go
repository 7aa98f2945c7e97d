// ABOUTME: WAV decoding via youpy/go-wav
// ABOUTME: Reads RIFF/WAVE samples and normalizes them to interleaved stereo float32
package codec

import (
	"bytes"
	"io"

	"github.com/youpy/go-wav"
)

func decodeWAV(data []byte, targetRate int) (*Result, error) {
	r := wav.NewReader(bytes.NewReader(data))

	format, err := r.Format()
	if err != nil {
		return nil, &DecodeError{Format: "wav", Reason: "reading format chunk", Err: err}
	}
	if format.NumChannels == 0 {
		return nil, &DecodeError{Format: "wav", Reason: "zero channels"}
	}
	if format.BitsPerSample != 8 && format.BitsPerSample != 16 && format.BitsPerSample != 24 && format.BitsPerSample != 32 {
		return nil, &DecodeError{Format: "wav", Reason: "unsupported bit depth"}
	}

	var pcm []float32
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Format: "wav", Reason: "reading samples", Err: err}
		}
		for _, s := range samples {
			l := normalizeWAV(s.Values[0], format.BitsPerSample)
			rv := l
			if format.NumChannels > 1 {
				rv = normalizeWAV(s.Values[1], format.BitsPerSample)
			}
			pcm = append(pcm, l, rv)
		}
	}

	return finish("wav", pcm, int(format.SampleRate), targetRate)
}

// normalizeWAV maps a raw WAV sample value into [-1, 1). 8-bit WAV is
// unsigned with a 128 midpoint; wider depths are signed.
func normalizeWAV(v int, bits uint16) float32 {
	if bits == 8 {
		return float32(v-128) / 128.0
	}
	return float32(v) / float32(int64(1)<<(bits-1))
}
