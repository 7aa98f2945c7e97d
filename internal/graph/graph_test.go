// ABOUTME: Tests for the mixer graph renderer
// ABOUTME: Tests voice timing, stop-at-duration, pan law, and teardown
package graph

import (
	"math"
	"testing"

	"github.com/Clipdeck/clipdeck-go/internal/audio"
)

const testRate = 44100

// constantBuffer returns a stereo buffer holding the same value everywhere.
func constantBuffer(frames int, value float32) *audio.Buffer {
	data := make([]float32, frames*2)
	for i := range data {
		data[i] = value
	}
	return &audio.Buffer{SampleRate: testRate, Channels: 2, Data: data}
}

func render(g *Graph, frames int) []float32 {
	out := make([]float32, frames*2)
	g.Render(out)
	return out
}

func TestSilentWhenStopped(t *testing.T) {
	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(1000, 0.5),
		StartSample: 0, EndSample: 1000, Rate: 1.0, Gain: 1.0,
	})

	out := render(g, 64)
	for _, s := range out {
		if s != 0 {
			t.Fatal("stopped graph should render silence")
		}
	}
	if g.Position() != 0 {
		t.Error("stopped graph should hold position")
	}
}

func TestVoiceRendersBufferContent(t *testing.T) {
	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(2000, 0.5),
		StartSample: 0, EndSample: 2000, Rate: 1.0, Gain: 1.0,
	})
	g.SetRunning(true)

	out := render(g, 64)

	// Equal-power center pan on both the clip and track stages: 0.5 * 0.707²
	want := 0.5 * math.Cos(math.Pi/4) * math.Cos(math.Pi/4)
	if math.Abs(float64(out[0])-want) > 1e-3 {
		t.Errorf("expected ~%.4f, got %f", want, out[0])
	}
	if g.Position() != 64 {
		t.Errorf("expected position 64, got %d", g.Position())
	}
}

func TestVoiceWaitsForStartSample(t *testing.T) {
	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(2000, 0.5),
		StartSample: 100, EndSample: 2100, Rate: 1.0, Gain: 1.0,
	})
	g.SetRunning(true)

	out := render(g, 200)
	if out[50*2] != 0 {
		t.Error("expected silence before the voice start sample")
	}
	if out[150*2] == 0 {
		t.Error("expected sound after the voice start sample")
	}
}

func TestVoiceStopsAtEndSample(t *testing.T) {
	// Buffer is 2000 frames but the voice is trimmed to 500: the voice itself
	// must stop there, not play out the buffer.
	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(2000, 0.5),
		StartSample: 0, EndSample: 500, Rate: 1.0, Gain: 1.0,
	})
	g.SetRunning(true)

	out := render(g, 1000)
	if out[499*2] == 0 {
		t.Error("expected sound just before the end sample")
	}
	if out[500*2] != 0 {
		t.Error("expected silence at the end sample")
	}

	// The finished voice is garbage-collected
	if got := g.ActiveVoices("c1"); got != 0 {
		t.Errorf("expected 0 active voices after end, got %d", got)
	}
}

func TestVoiceOffsetSkipsIntoBuffer(t *testing.T) {
	// Buffer: first 100 frames at 0.8, rest at 0.2. An offset of 100 must
	// start playback in the quiet region.
	buf := constantBuffer(1000, 0.2)
	for i := 0; i < 100*2; i++ {
		buf.Data[i] = 0.8
	}

	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: buf,
		StartSample: 0, EndSample: 800, OffsetFrames: 100, Rate: 1.0, Gain: 1.0,
	})
	g.SetRunning(true)

	out := render(g, 16)
	want := 0.2 * math.Cos(math.Pi/4) * math.Cos(math.Pi/4)
	if math.Abs(float64(out[0])-want) > 1e-3 {
		t.Errorf("expected offset playback ~%.4f, got %f", want, out[0])
	}
}

func TestDoubleRateConsumesBufferTwiceAsFast(t *testing.T) {
	// 1000-frame buffer at rate 2.0 runs out of material after ~500 frames.
	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(1000, 0.5),
		StartSample: 0, EndSample: 100000, Rate: 2.0, Gain: 1.0,
	})
	g.SetRunning(true)

	out := render(g, 600)
	if out[490*2] == 0 {
		t.Error("expected sound before buffer exhaustion")
	}
	if out[520*2] != 0 {
		t.Error("expected silence after buffer exhaustion at double rate")
	}
}

func TestPanLaw(t *testing.T) {
	l, r := equalPowerPan(0)
	if math.Abs(l-r) > 1e-9 {
		t.Error("center pan should be symmetric")
	}
	if math.Abs(l-math.Sqrt2/2) > 1e-9 {
		t.Errorf("center pan should sit at ~0.707, got %f", l)
	}

	l, r = equalPowerPan(-1)
	if math.Abs(l-1) > 1e-9 || math.Abs(r) > 1e-9 {
		t.Errorf("hard left should be (1, 0), got (%f, %f)", l, r)
	}

	l, r = equalPowerPan(1)
	if math.Abs(l) > 1e-9 || math.Abs(r-1) > 1e-9 {
		t.Errorf("hard right should be (0, 1), got (%f, %f)", l, r)
	}
}

func TestHardPannedTrack(t *testing.T) {
	g := New(testRate)
	g.AddChain("t1", 1.0, -1) // hard left
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(1000, 0.5),
		StartSample: 0, EndSample: 1000, Rate: 1.0, Gain: 1.0,
	})
	g.SetRunning(true)

	out := render(g, 16)
	if out[0] == 0 {
		t.Error("expected signal on the left channel")
	}
	if out[1] != 0 {
		t.Error("expected silence on the right channel")
	}
}

func TestMutedTrackChainIsSilent(t *testing.T) {
	g := New(testRate)
	g.AddChain("t1", 0, 0) // mute = zero gain stage
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(1000, 0.5),
		StartSample: 0, EndSample: 1000, Rate: 1.0, Gain: 1.0,
	})
	g.SetRunning(true)

	out := render(g, 16)
	for _, s := range out {
		if s != 0 {
			t.Fatal("muted track should be silent")
		}
	}
}

func TestTeardownStopsEverything(t *testing.T) {
	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(1000, 0.5),
		StartSample: 0, EndSample: 1000, Rate: 1.0, Gain: 1.0,
	})
	g.SetRunning(true)

	g.Teardown()
	g.Teardown() // repeat teardown must not panic

	out := render(g, 16)
	for _, s := range out {
		if s != 0 {
			t.Fatal("torn-down graph should be silent")
		}
	}
	if got := g.ActiveVoices("c1"); got != 0 {
		t.Errorf("expected no voices after teardown, got %d", got)
	}
}

func TestStopAllVoicesTolerated(t *testing.T) {
	g := New(testRate)
	g.StopAllVoices()
	g.StopAllVoices() // stop with nothing sounding is a no-op
}

func TestSeekSilencesVoices(t *testing.T) {
	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(10000, 0.5),
		StartSample: 0, EndSample: 10000, Rate: 1.0, Gain: 1.0,
	})
	g.SetRunning(true)
	render(g, 100)

	g.Seek(5000)
	if g.Position() != 5000 {
		t.Errorf("expected position 5000, got %d", g.Position())
	}
	if got := g.ActiveVoices("c1"); got != 0 {
		t.Errorf("seek should silence voices, got %d", got)
	}

	g.Seek(-10)
	if g.Position() != 0 {
		t.Error("negative seek should clamp to zero")
	}
}

func TestReadProducesInt16PCM(t *testing.T) {
	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{
		ClipID: "c1", Buffer: constantBuffer(1000, 0.5),
		StartSample: 0, EndSample: 1000, Rate: 1.0, Gain: 1.0,
	})
	g.SetRunning(true)

	p := make([]byte, 64*4)
	n, err := g.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(p) {
		t.Errorf("expected %d bytes, got %d", len(p), n)
	}

	// First left sample should be ~0.5*0.707² in int16 range
	got := int16(uint16(p[0]) | uint16(p[1])<<8)
	want := audio.SampleToInt16(float32(0.5 * 0.5))
	if got < want-100 || got > want+100 {
		t.Errorf("expected ~%d, got %d", want, got)
	}
}

func TestAddVoiceWithoutBufferDropped(t *testing.T) {
	g := New(testRate)
	g.AddChain("t1", 1.0, 0)
	g.AddVoice("t1", VoiceParams{ClipID: "c1", Buffer: nil, EndSample: 1000, Rate: 1, Gain: 1})

	if got := g.ActiveVoices("c1"); got != 0 {
		t.Errorf("nil-buffer voice should be dropped, got %d", got)
	}
}
