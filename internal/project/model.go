// ABOUTME: Data model for projects, tracks, and clips
// ABOUTME: Plain structs; all mutation goes through the Store
package project

import (
	"github.com/Clipdeck/clipdeck-go/internal/audio"
	"github.com/Clipdeck/clipdeck-go/internal/clock"
)

// MinProjectDuration is the floor for the derived project length in seconds.
const MinProjectDuration = 16.0

// Project holds timeline-wide parameters. Duration is derived: the furthest
// clip end, never below MinProjectDuration.
type Project struct {
	ID       string
	Name     string
	BPM      float64
	TimeSig  clock.TimeSignature
	Duration float64
}

// Track is an ordered lane of clips with its own gain and pan stage.
type Track struct {
	ID      string
	Name    string
	Color   string
	Volume  float64 // 0..1 linear gain
	Pan     float64 // -1..1
	Muted   bool
	Solo    bool
	ClipIDs []string
	Index   int
}

// Clip is a placed, time-bounded reference to a decoded buffer. Buffer is nil
// and Loading true while a decode is in flight; such clips produce no sound.
type Clip struct {
	ID             string
	Name           string
	TrackID        string
	Buffer         *audio.Buffer
	Peaks          []float64
	StartTime      float64 // seconds from project origin, >= 0
	Duration       float64 // seconds, > 0, at most the buffer's native length
	Volume         float64 // 0..1
	PitchSemitones float64 // playback rate = 2^(semitones/12)
	Color          string
	Loading        bool
}

// Snapshot is a read-only copy of the full model state, taken under the store
// lock. Buffers are shared by pointer; everything else is copied.
type Snapshot struct {
	Project Project
	Tracks  []Track
	Clips   map[string]Clip
}

// ClipsFor returns the clips assigned to a track, in the track's clip order.
func (s *Snapshot) ClipsFor(trackID string) []Clip {
	for _, tr := range s.Tracks {
		if tr.ID != trackID {
			continue
		}
		clips := make([]Clip, 0, len(tr.ClipIDs))
		for _, id := range tr.ClipIDs {
			if c, ok := s.Clips[id]; ok {
				clips = append(clips, c)
			}
		}
		return clips
	}
	return nil
}
