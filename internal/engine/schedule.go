// ABOUTME: Mixer graph builder and clip scheduler
// ABOUTME: Pure functions from a project snapshot to scheduled graph voices
package engine

import (
	"math"

	"github.com/Clipdeck/clipdeck-go/internal/clock"
	"github.com/Clipdeck/clipdeck-go/internal/graph"
	"github.com/Clipdeck/clipdeck-go/internal/project"
)

// Build tears down the graph and reconstructs it from the snapshot: one
// gain/pan chain per track, one voice per clip still sounding at or after
// posSamples. Teardown always runs first, so repeated builds never leave a
// stale voice overlapping a fresh one.
func Build(g *graph.Graph, snap project.Snapshot, posSamples int64) {
	g.Teardown()

	soloActive := false
	for _, tr := range snap.Tracks {
		if tr.Solo {
			soloActive = true
			break
		}
	}

	for _, tr := range snap.Tracks {
		g.AddChain(tr.ID, trackGain(tr, soloActive), tr.Pan)
		for _, c := range snap.ClipsFor(tr.ID) {
			scheduleClip(g, tr.ID, c, posSamples)
		}
	}
}

// trackGain computes the track gain stage: muted tracks are silent, and when
// any track is soloed every non-soloed track is gated to zero.
func trackGain(tr project.Track, soloActive bool) float64 {
	if tr.Muted {
		return 0
	}
	if soloActive && !tr.Solo {
		return 0
	}
	return tr.Volume
}

// scheduleClip arms one clip. A clip with no decoded buffer is skipped
// silently (decode still pending), as is a clip that fully elapsed before
// posSamples. A clip already underway starts immediately with an in-buffer
// offset; a future clip starts at its own timeline sample.
func scheduleClip(g *graph.Graph, trackID string, c project.Clip, posSamples int64) {
	if c.Buffer == nil || c.Loading {
		return
	}

	rate := g.SampleRate()
	startSamples := clock.SecondsToSamples(c.StartTime, rate)
	durSamples := clock.SecondsToSamples(c.Duration, rate)
	if startSamples+durSamples < posSamples {
		return
	}

	voiceStart := startSamples
	var offset int64
	if posSamples > startSamples {
		voiceStart = posSamples
		offset = posSamples - startSamples
	}

	g.AddVoice(trackID, graph.VoiceParams{
		ClipID:       c.ID,
		Buffer:       c.Buffer,
		StartSample:  voiceStart,
		EndSample:    startSamples + durSamples,
		OffsetFrames: offset,
		Rate:         math.Pow(2, c.PitchSemitones/12.0),
		Gain:         c.Volume,
	})
}
