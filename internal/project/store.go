// ABOUTME: Mutable state container for the project model
// ABOUTME: All mutations clamp, snap to the grid, and recompute duration
package project

import (
	"fmt"
	"math"
	"sync"

	"github.com/Clipdeck/clipdeck-go/internal/audio"
	"github.com/Clipdeck/clipdeck-go/internal/clock"
	"github.com/google/uuid"
)

// trackColors is cycled as tracks are added.
var trackColors = []string{"#e06c75", "#61afef", "#98c379", "#c678dd", "#e5c07b", "#56b6c2"}

// Config holds initial project parameters. Zero values get defaults.
type Config struct {
	Name         string
	BPM          float64
	TimeSig      clock.TimeSignature
	GridDivision float64
}

// Store owns all track and clip state. The playback engine reads snapshots;
// it never mutates the model.
type Store struct {
	mu           sync.RWMutex
	project      Project
	tracks       map[string]*Track
	order        []string
	clips        map[string]*Clip
	gridDivision float64
}

// NewStore creates a store with an empty project.
func NewStore(cfg Config) *Store {
	if cfg.Name == "" {
		cfg.Name = "Untitled"
	}
	if cfg.BPM <= 0 || math.IsNaN(cfg.BPM) || math.IsInf(cfg.BPM, 0) {
		cfg.BPM = clock.DefaultBPM
	}
	if !cfg.TimeSig.Valid() {
		cfg.TimeSig = clock.TimeSignature{Numerator: 4, Denominator: 4}
	}
	if cfg.GridDivision <= 0 {
		cfg.GridDivision = clock.DefaultGridDivision
	}

	return &Store{
		project: Project{
			ID:       uuid.NewString(),
			Name:     cfg.Name,
			BPM:      cfg.BPM,
			TimeSig:  cfg.TimeSig,
			Duration: MinProjectDuration,
		},
		tracks:       make(map[string]*Track),
		clips:        make(map[string]*Clip),
		gridDivision: cfg.GridDivision,
	}
}

// AddTrack creates a track and returns a copy of it.
func (s *Store) AddTrack(name string) Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.order)
	if name == "" {
		name = fmt.Sprintf("Track %d", idx+1)
	}
	tr := &Track{
		ID:     uuid.NewString(),
		Name:   name,
		Color:  trackColors[idx%len(trackColors)],
		Volume: 1.0,
		Pan:    0,
		Index:  idx,
	}
	s.tracks[tr.ID] = tr
	s.order = append(s.order, tr.ID)
	return *tr
}

// RemoveTrack deletes a track and cascades to every clip it owns.
func (s *Store) RemoveTrack(trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.tracks[trackID]
	if !ok {
		return fmt.Errorf("no such track: %s", trackID)
	}
	for _, clipID := range tr.ClipIDs {
		delete(s.clips, clipID)
	}
	delete(s.tracks, trackID)
	for i, id := range s.order {
		if id == trackID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for i, id := range s.order {
		s.tracks[id].Index = i
	}
	s.recomputeDuration()
	return nil
}

// AddClip creates a pending clip on a track: no buffer, no peaks, Loading set.
// The start time is snapped to the grid and clamped to zero.
func (s *Store) AddClip(trackID, name string, startTime float64) (Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.tracks[trackID]
	if !ok {
		return Clip{}, fmt.Errorf("no such track: %s", trackID)
	}
	c := &Clip{
		ID:        uuid.NewString(),
		Name:      name,
		TrackID:   trackID,
		StartTime: s.snapLocked(startTime),
		Duration:  0,
		Volume:    1.0,
		Color:     tr.Color,
		Loading:   true,
	}
	s.clips[c.ID] = c
	tr.ClipIDs = append(tr.ClipIDs, c.ID)
	return *c, nil
}

// AttachBuffer completes a pending decode: the clip gets its buffer and
// waveform peaks, and its duration defaults to the buffer's native length.
func (s *Store) AttachBuffer(clipID string, buf *audio.Buffer, peaks []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clips[clipID]
	if !ok {
		return fmt.Errorf("no such clip: %s", clipID)
	}
	c.Buffer = buf
	c.Peaks = peaks
	c.Loading = false
	if c.Duration <= 0 {
		c.Duration = buf.Duration()
	}
	c.Duration = clampDuration(c.Duration, buf)
	s.recomputeDuration()
	return nil
}

// RemoveClip deletes a clip and unlinks it from its track.
func (s *Store) RemoveClip(clipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clips[clipID]
	if !ok {
		return fmt.Errorf("no such clip: %s", clipID)
	}
	if tr, ok := s.tracks[c.TrackID]; ok {
		for i, id := range tr.ClipIDs {
			if id == clipID {
				tr.ClipIDs = append(tr.ClipIDs[:i], tr.ClipIDs[i+1:]...)
				break
			}
		}
	}
	delete(s.clips, clipID)
	s.recomputeDuration()
	return nil
}

// MoveClip sets a clip's start time, snapped to the grid and clamped to zero.
func (s *Store) MoveClip(clipID string, startTime float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clips[clipID]
	if !ok {
		return fmt.Errorf("no such clip: %s", clipID)
	}
	c.StartTime = s.snapLocked(startTime)
	s.recomputeDuration()
	return nil
}

// MoveClipToTrack reassigns a clip to another track at a snapped start time.
func (s *Store) MoveClipToTrack(clipID, trackID string, startTime float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clips[clipID]
	if !ok {
		return fmt.Errorf("no such clip: %s", clipID)
	}
	dst, ok := s.tracks[trackID]
	if !ok {
		return fmt.Errorf("no such track: %s", trackID)
	}
	if src, ok := s.tracks[c.TrackID]; ok {
		for i, id := range src.ClipIDs {
			if id == clipID {
				src.ClipIDs = append(src.ClipIDs[:i], src.ClipIDs[i+1:]...)
				break
			}
		}
	}
	c.TrackID = trackID
	c.StartTime = s.snapLocked(startTime)
	dst.ClipIDs = append(dst.ClipIDs, clipID)
	s.recomputeDuration()
	return nil
}

// ResizeClip sets a clip's duration. Duration can truncate the buffer but
// never extend past its native length.
func (s *Store) ResizeClip(clipID string, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clips[clipID]
	if !ok {
		return fmt.Errorf("no such clip: %s", clipID)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return fmt.Errorf("invalid clip duration: %v", duration)
	}
	c.Duration = clampDuration(duration, c.Buffer)
	s.recomputeDuration()
	return nil
}

// SetClipVolume sets a clip's gain, clamped to 0..1.
func (s *Store) SetClipVolume(clipID string, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clips[clipID]
	if !ok {
		return fmt.Errorf("no such clip: %s", clipID)
	}
	c.Volume = clamp(volume, 0, 1)
	return nil
}

// SetClipPitch sets a clip's pitch shift in semitones.
func (s *Store) SetClipPitch(clipID string, semitones float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clips[clipID]
	if !ok {
		return fmt.Errorf("no such clip: %s", clipID)
	}
	if math.IsNaN(semitones) || math.IsInf(semitones, 0) {
		return fmt.Errorf("invalid pitch: %v", semitones)
	}
	c.PitchSemitones = semitones
	return nil
}

// SetTrackVolume sets a track's gain, clamped to 0..1.
func (s *Store) SetTrackVolume(trackID string, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.tracks[trackID]
	if !ok {
		return fmt.Errorf("no such track: %s", trackID)
	}
	tr.Volume = clamp(volume, 0, 1)
	return nil
}

// SetTrackPan sets a track's pan, clamped to -1..1.
func (s *Store) SetTrackPan(trackID string, pan float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.tracks[trackID]
	if !ok {
		return fmt.Errorf("no such track: %s", trackID)
	}
	tr.Pan = clamp(pan, -1, 1)
	return nil
}

// SetTrackMuted sets a track's mute flag.
func (s *Store) SetTrackMuted(trackID string, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.tracks[trackID]
	if !ok {
		return fmt.Errorf("no such track: %s", trackID)
	}
	tr.Muted = muted
	return nil
}

// SetTrackSolo sets a track's solo flag.
func (s *Store) SetTrackSolo(trackID string, solo bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.tracks[trackID]
	if !ok {
		return fmt.Errorf("no such track: %s", trackID)
	}
	tr.Solo = solo
	return nil
}

// SetBPM updates the project tempo. Unusable values are ignored.
func (s *Store) SetBPM(bpm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return
	}
	s.project.BPM = bpm
}

// SetTimeSignature updates the project meter. Invalid signatures are ignored.
func (s *Store) SetTimeSignature(sig clock.TimeSignature) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !sig.Valid() {
		return
	}
	s.project.TimeSig = sig
}

// SetGridDivision updates the snapping grid. Non-positive values are ignored.
func (s *Store) SetGridDivision(division float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if division <= 0 || math.IsNaN(division) || math.IsInf(division, 0) {
		return
	}
	s.gridDivision = division
}

// Project returns a copy of the project parameters.
func (s *Store) Project() Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

// Track returns a copy of one track.
func (s *Store) Track(trackID string) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, ok := s.tracks[trackID]
	if !ok {
		return Track{}, false
	}
	cp := *tr
	cp.ClipIDs = append([]string(nil), tr.ClipIDs...)
	return cp, true
}

// Clip returns a copy of one clip.
func (s *Store) Clip(clipID string) (Clip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clips[clipID]
	if !ok {
		return Clip{}, false
	}
	cp := *c
	cp.Peaks = append([]float64(nil), c.Peaks...)
	return cp, true
}

// Snapshot copies the full model state for the playback engine.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Project: s.project,
		Tracks:  make([]Track, 0, len(s.order)),
		Clips:   make(map[string]Clip, len(s.clips)),
	}
	for _, id := range s.order {
		tr := s.tracks[id]
		cp := *tr
		cp.ClipIDs = append([]string(nil), tr.ClipIDs...)
		snap.Tracks = append(snap.Tracks, cp)
	}
	for id, c := range s.clips {
		snap.Clips[id] = *c
	}
	return snap
}

// snapLocked quantizes a start time to the project grid and clamps it to zero.
func (s *Store) snapLocked(t float64) float64 {
	snapped := clock.SnapToGrid(t, s.project.BPM, s.gridDivision, s.project.TimeSig)
	if math.IsNaN(snapped) || math.IsInf(snapped, 0) || snapped < 0 {
		return 0
	}
	return snapped
}

// recomputeDuration derives the project length from the furthest clip end.
func (s *Store) recomputeDuration() {
	d := MinProjectDuration
	for _, c := range s.clips {
		if end := c.StartTime + c.Duration; end > d {
			d = end
		}
	}
	s.project.Duration = d
}

func clampDuration(d float64, buf *audio.Buffer) float64 {
	if buf != nil {
		if native := buf.Duration(); native > 0 && d > native {
			return native
		}
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
