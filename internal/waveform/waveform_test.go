// ABOUTME: Tests for waveform peak extraction
// ABOUTME: Tests bucket maxima, clamping, and nil-buffer behavior
package waveform

import (
	"testing"

	"github.com/Clipdeck/clipdeck-go/internal/audio"
)

func TestPeaksFindBucketMaxima(t *testing.T) {
	// 100 frames: first half at 0.2, second half at 0.8
	data := make([]float32, 100*2)
	for i := 0; i < 50; i++ {
		data[i*2] = 0.2
		data[i*2+1] = 0.2
	}
	for i := 50; i < 100; i++ {
		data[i*2] = -0.8
		data[i*2+1] = -0.8
	}
	buf := &audio.Buffer{SampleRate: 8000, Channels: 2, Data: data}

	peaks := Peaks(buf, 2)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(peaks))
	}
	if peaks[0] != 0.2 {
		t.Errorf("expected first bucket 0.2, got %f", peaks[0])
	}
	if peaks[1] != 0.8 {
		t.Errorf("expected second bucket 0.8 from negative samples, got %f", peaks[1])
	}
}

func TestPeaksClampToUnity(t *testing.T) {
	buf := &audio.Buffer{SampleRate: 8000, Channels: 1, Data: []float32{1.7, -2.3}}

	peaks := Peaks(buf, 1)
	if peaks[0] != 1 {
		t.Errorf("expected clamp to 1, got %f", peaks[0])
	}
}

func TestPeaksNilBuffer(t *testing.T) {
	peaks := Peaks(nil, 5)
	if len(peaks) != 5 {
		t.Fatalf("expected 5 zeros, got %d", len(peaks))
	}
	for i, p := range peaks {
		if p != 0 {
			t.Errorf("peaks[%d] = %f, want 0", i, p)
		}
	}
}

func TestPeaksZeroResolution(t *testing.T) {
	if got := Peaks(nil, 0); got != nil {
		t.Errorf("expected nil for zero resolution, got %v", got)
	}
}

func TestPeaksMoreBucketsThanFrames(t *testing.T) {
	buf := &audio.Buffer{SampleRate: 8000, Channels: 1, Data: []float32{0.5, 0.5}}

	peaks := Peaks(buf, 10)
	if len(peaks) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(peaks))
	}
	if peaks[0] != 0.5 {
		t.Errorf("expected first bucket 0.5, got %f", peaks[0])
	}
}
