// ABOUTME: Tests for format sniffing, WAV decoding, and resampling
// ABOUTME: Builds WAV fixtures in memory with the go-wav writer
package codec

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/youpy/go-wav"
)

// wavBytes renders frames of a constant 16-bit stereo value into a RIFF blob.
func wavBytes(t *testing.T, frames int, sampleRate uint32, value int) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(frames), 2, sampleRate, 16)
	samples := make([]wav.Sample, frames)
	for i := range samples {
		samples[i].Values[0] = value
		samples[i].Values[1] = value
	}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"wav", append([]byte("RIFF\x00\x00\x00\x00WAVE"), 0), "wav"},
		{"flac", []byte("fLaC\x00\x00\x00\x00"), "flac"},
		{"mp3 id3", []byte("ID3\x04\x00"), "mp3"},
		{"mp3 sync", []byte{0xFF, 0xFB, 0x90, 0x00}, "mp3"},
		{"garbage", []byte("not audio at all"), ""},
		{"empty", nil, ""},
	}
	for _, c := range cases {
		if got := sniff(c.data); got != c.want {
			t.Errorf("sniff(%s) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestDecodeWAV(t *testing.T) {
	data := wavBytes(t, 4410, 44100, 16384) // half-scale for 100ms

	res, err := Decode(data, 44100)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.NativeRate != 44100 {
		t.Errorf("expected native rate 44100, got %d", res.NativeRate)
	}
	if res.Buffer.Frames() != 4410 {
		t.Errorf("expected 4410 frames, got %d", res.Buffer.Frames())
	}
	if math.Abs(res.DurationSeconds-0.1) > 1e-3 {
		t.Errorf("expected ~0.1s, got %f", res.DurationSeconds)
	}
	if got := res.Buffer.Sample(100, 0); math.Abs(float64(got)-0.5) > 0.01 {
		t.Errorf("expected ~0.5 amplitude, got %f", got)
	}
	if got := res.Buffer.Sample(100, 1); math.Abs(float64(got)-0.5) > 0.01 {
		t.Errorf("expected ~0.5 amplitude on right channel, got %f", got)
	}
}

func TestDecodeResamplesToTargetRate(t *testing.T) {
	data := wavBytes(t, 22050, 22050, 8192) // 1s at 22.05kHz

	res, err := Decode(data, 44100)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Buffer.SampleRate != 44100 {
		t.Errorf("expected buffer at 44100, got %d", res.Buffer.SampleRate)
	}
	if res.NativeRate != 22050 {
		t.Errorf("expected native rate 22050, got %d", res.NativeRate)
	}
	// 1s of audio stays ~1s after resampling
	if math.Abs(res.DurationSeconds-1.0) > 1e-3 {
		t.Errorf("expected ~1s after resample, got %f", res.DurationSeconds)
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode([]byte("definitely not audio"), 44100)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T", err)
	}
	if de.Format != "unknown" {
		t.Errorf("expected format unknown, got %q", de.Format)
	}
}

func TestDecodeTruncatedFLAC(t *testing.T) {
	_, err := Decode([]byte("fLaC\x00\x00\x00\x00"), 44100)
	if err == nil {
		t.Fatal("expected error for truncated flac")
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T", err)
	}
	if de.Format != "flac" {
		t.Errorf("expected format flac, got %q", de.Format)
	}
}

func TestDecodeInvalidTargetRate(t *testing.T) {
	if _, err := Decode(wavBytes(t, 10, 44100, 0), 0); err == nil {
		t.Fatal("expected error for zero target rate")
	}
}

func TestResampleStereo(t *testing.T) {
	in := make([]float32, 100*2)
	for i := range in {
		in[i] = 0.25
	}

	out := resampleStereo(in, 48000, 24000)
	if len(out) != 50*2 {
		t.Errorf("expected 50 frames after downsampling, got %d", len(out)/2)
	}
	for i, v := range out {
		if math.Abs(float64(v)-0.25) > 1e-6 {
			t.Fatalf("constant signal should survive resampling, out[%d]=%f", i, v)
		}
	}

	// Same rate is a pass-through
	same := resampleStereo(in, 48000, 48000)
	if len(same) != len(in) {
		t.Errorf("same-rate resample should not change length, got %d", len(same))
	}
}
