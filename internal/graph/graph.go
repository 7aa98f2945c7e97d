// ABOUTME: Pull-based mixer graph for sample-accurate playback
// ABOUTME: Master gain, per-track gain/pan chains, and per-clip voices
package graph

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/Clipdeck/clipdeck-go/internal/audio"
)

// VoiceParams describes one scheduled clip instance. Start, End, and Offset
// are in samples: Start/End on the project timeline, Offset into the buffer.
type VoiceParams struct {
	ClipID       string
	Buffer       *audio.Buffer
	StartSample  int64
	EndSample    int64
	OffsetFrames int64
	Rate         float64 // playback rate multiplier, 1.0 = native
	Gain         float64
	Pan          float64
}

// VoiceInfo is a read-only view of a live voice, for stats and tests.
type VoiceInfo struct {
	ClipID       string
	TrackID      string
	StartSample  int64
	EndSample    int64
	OffsetFrames int64
	Rate         float64
}

type voice struct {
	clipID string
	buf    *audio.Buffer
	start  int64
	end    int64
	offset int64
	rate   float64
	gain   float64
	panL   float64
	panR   float64
	done   bool
}

type chain struct {
	trackID string
	gain    float64
	panL    float64
	panR    float64
	voices  []*voice
}

// Graph is the audio routing topology and its renderer. The render side is
// pulled by the output device's real-time thread via Read; the control side
// (chains, voices, transport position) is mutated under the lock by the
// engine. Output is interleaved stereo float32.
type Graph struct {
	mu         sync.Mutex
	sampleRate int
	masterGain float64
	chains     []*chain
	pos        int64
	running    bool
	scratch    []float32
}

// New creates an empty graph at the given engine sample rate.
func New(sampleRate int) *Graph {
	return &Graph{
		sampleRate: sampleRate,
		masterGain: 1.0,
	}
}

// SampleRate returns the engine sample rate.
func (g *Graph) SampleRate() int {
	return g.sampleRate
}

// SetMasterGain sets the master output gain, clamped to 0..1.
func (g *Graph) SetMasterGain(gain float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.masterGain = clampGain(gain)
}

// MasterGain returns the master output gain.
func (g *Graph) MasterGain() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.masterGain
}

// SetRunning starts or freezes the timeline. While stopped the graph renders
// silence and the position does not advance.
func (g *Graph) SetRunning(running bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = running
}

// Running reports whether the timeline is advancing.
func (g *Graph) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Position returns the timeline position in samples.
func (g *Graph) Position() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos
}

// Seek moves the timeline position and silences all voices. Voices for the
// new position are the scheduler's job; stale ones must not keep sounding.
func (g *Graph) Seek(samples int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if samples < 0 {
		samples = 0
	}
	g.pos = samples
	g.stopVoicesLocked()
}

// Teardown removes every chain and voice. Safe to call repeatedly; a rebuild
// always starts from an empty topology so no stale voice can overlap a new one.
func (g *Graph) Teardown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopVoicesLocked()
	g.chains = nil
}

// AddChain creates the gain/pan stage for one track.
func (g *Graph) AddChain(trackID string, gain, pan float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	panL, panR := equalPowerPan(pan)
	g.chains = append(g.chains, &chain{
		trackID: trackID,
		gain:    clampGain(gain),
		panL:    panL,
		panR:    panR,
	})
}

// AddVoice schedules a clip instance onto a track's chain. Voices with no
// chain or no buffer are dropped silently.
func (g *Graph) AddVoice(trackID string, p VoiceParams) {
	if p.Buffer == nil || p.Buffer.Frames() == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range g.chains {
		if c.trackID != trackID {
			continue
		}
		rate := p.Rate
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			rate = 1.0
		}
		panL, panR := equalPowerPan(p.Pan)
		c.voices = append(c.voices, &voice{
			clipID: p.ClipID,
			buf:    p.Buffer,
			start:  p.StartSample,
			end:    p.EndSample,
			offset: p.OffsetFrames,
			rate:   rate,
			gain:   clampGain(p.Gain),
			panL:   panL,
			panR:   panR,
		})
		return
	}
}

// StopAllVoices silences every voice immediately. Stopping an already-stopped
// or already-finished voice is a no-op.
func (g *Graph) StopAllVoices() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopVoicesLocked()
}

func (g *Graph) stopVoicesLocked() {
	for _, c := range g.chains {
		c.voices = nil
	}
}

// ActiveVoices returns the number of live voices for a clip.
func (g *Graph) ActiveVoices(clipID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, c := range g.chains {
		for _, v := range c.voices {
			if v.clipID == clipID && !v.done {
				n++
			}
		}
	}
	return n
}

// Voices returns a view of all live voices.
func (g *Graph) Voices() []VoiceInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []VoiceInfo
	for _, c := range g.chains {
		for _, v := range c.voices {
			if v.done {
				continue
			}
			out = append(out, VoiceInfo{
				ClipID:       v.clipID,
				TrackID:      c.trackID,
				StartSample:  v.start,
				EndSample:    v.end,
				OffsetFrames: v.offset,
				Rate:         v.rate,
			})
		}
	}
	return out
}

// Render mixes the next len(dst)/2 frames of interleaved stereo into dst.
// While the graph is not running it writes silence and holds position.
func (g *Graph) Render(dst []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range dst {
		dst[i] = 0
	}
	if !g.running {
		return
	}

	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		p := g.pos + int64(f)
		var outL, outR float64
		for _, c := range g.chains {
			var trkL, trkR float64
			for _, v := range c.voices {
				l, r := v.sampleAt(p, g.sampleRate)
				trkL += l
				trkR += r
			}
			outL += trkL * c.gain * c.panL
			outR += trkR * c.gain * c.panR
		}
		dst[f*2] = float32(outL * g.masterGain)
		dst[f*2+1] = float32(outR * g.masterGain)
	}
	g.pos += int64(frames)
	g.pruneLocked()
}

// sampleAt produces one stereo frame for the voice at timeline sample p,
// or silence when the voice is not sounding there. The voice enforces its
// own stop: at its end sample or when the buffer runs out, whichever first.
func (v *voice) sampleAt(p int64, engineRate int) (float64, float64) {
	if v.done || p < v.start || p >= v.end {
		if p >= v.end {
			v.done = true
		}
		return 0, 0
	}

	rate := v.rate
	if v.buf.SampleRate != engineRate && engineRate > 0 {
		rate *= float64(v.buf.SampleRate) / float64(engineRate)
	}
	fpos := float64(v.offset) + float64(p-v.start)*rate
	frame := int(fpos)
	if frame >= v.buf.Frames()-1 {
		v.done = true
		return 0, 0
	}
	frac := fpos - float64(frame)

	l := float64(v.buf.Sample(frame, 0))*(1-frac) + float64(v.buf.Sample(frame+1, 0))*frac
	r := float64(v.buf.Sample(frame, 1))*(1-frac) + float64(v.buf.Sample(frame+1, 1))*frac
	return l * v.gain * v.panL, r * v.gain * v.panR
}

// pruneLocked garbage-collects voices that finished sounding.
func (g *Graph) pruneLocked() {
	for _, c := range g.chains {
		kept := c.voices[:0]
		for _, v := range c.voices {
			if !v.done && g.pos < v.end {
				kept = append(kept, v)
			}
		}
		c.voices = kept
	}
}

// Read implements io.Reader for the output device: interleaved stereo
// 16-bit little-endian PCM.
func (g *Graph) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(g.scratch) < need {
		g.scratch = make([]float32, need)
	}
	buf := g.scratch[:need]
	g.Render(buf)

	for i, s := range buf {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(audio.SampleToInt16(s)))
	}
	return frames * 4, nil
}

// equalPowerPan maps pan in -1..1 to left/right gains on a constant-power
// curve, so center sits at ~0.707 on both sides.
func equalPowerPan(pan float64) (float64, float64) {
	if math.IsNaN(pan) {
		pan = 0
	}
	if pan < -1 {
		pan = -1
	}
	if pan > 1 {
		pan = 1
	}
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

func clampGain(gain float64) float64 {
	if math.IsNaN(gain) || gain < 0 {
		return 0
	}
	if gain > 1 {
		return 1
	}
	return gain
}
