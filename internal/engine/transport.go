// ABOUTME: Transport state machine for multi-track playback
// ABOUTME: Owns play/pause/seek/loop state and the position polling loop
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Clipdeck/clipdeck-go/internal/clock"
	"github.com/Clipdeck/clipdeck-go/internal/device"
	"github.com/Clipdeck/clipdeck-go/internal/graph"
	"github.com/Clipdeck/clipdeck-go/internal/project"
	"github.com/bep/debounce"
)

// State is the transport lifecycle state.
type State int

const (
	// StateIdle means the audio device has not been constructed yet.
	StateIdle State = iota
	// StateReady means the device exists but output is suspended.
	StateReady
	// StatePlaying means the timeline is advancing.
	StatePlaying
	// StatePaused means the position is held and nothing is scheduled.
	StatePaused
	// StateSeeking is the transient window while a reschedule is in flight.
	StateSeeking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateSeeking:
		return "seeking"
	default:
		return "unknown"
	}
}

const (
	// reportThreshold is how far (in samples) the position must advance
	// before an update is emitted. A throttle, not a correctness bound.
	reportThreshold = 1000
	// seekThreshold is the divergence (in samples) between the reported
	// position and an incoming authoritative one that counts as an
	// external seek.
	seekThreshold = 1000
	// seekDebounce is the settle window for external-seek reconciliation.
	seekDebounce = 10 * time.Millisecond

	defaultSampleRate   = 44100
	defaultMasterVolume = 0.8
	defaultPollInterval = 10 * time.Millisecond
)

// Config holds engine configuration. Zero values get defaults.
type Config struct {
	// SampleRate is the fixed engine rate, default 44100.
	SampleRate int

	// MasterVolume is the initial master gain (0..1), default 0.8.
	MasterVolume float64

	// PollInterval is the position polling period, default 10ms.
	PollInterval time.Duration

	// Device overrides the output device; nil means an oto device is
	// created lazily on Open.
	Device device.Device
}

// Update reports the live transport state over the reactive channel.
type Update struct {
	State           State
	PositionSamples int64
	PositionSeconds float64
}

// Engine is the playback engine: transport state machine, graph builder,
// and polling loop. It reads snapshots of the project store and never
// mutates track or clip data.
type Engine struct {
	mu    sync.Mutex
	cfg   Config
	store *project.Store
	graph *graph.Graph
	dev   device.Device
	state State

	loopEnabled bool
	loopStart   int64
	loopEnd     int64

	lastReported int64
	rebuilding   bool

	updates   chan Update
	debounced func(func())
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates an engine over the given project store. The audio device is
// not constructed until Open is called.
func New(store *project.Store, cfg Config) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.MasterVolume == 0 {
		cfg.MasterVolume = defaultMasterVolume
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		cfg:       cfg,
		store:     store,
		graph:     graph.New(cfg.SampleRate),
		dev:       cfg.Device,
		state:     StateIdle,
		updates:   make(chan Update, 64),
		debounced: debounce.New(seekDebounce),
		ctx:       ctx,
		cancel:    cancel,
	}
	e.graph.SetMasterGain(cfg.MasterVolume)
	return e
}

// Open constructs the audio device and moves Idle -> Ready. Deferred until
// explicitly requested since output devices commonly need a user action
// before they may start. The device is opened suspended.
func (e *Engine) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return nil
	}
	if e.dev == nil {
		e.dev = device.NewOto()
	}
	if err := e.dev.Open(e.cfg.SampleRate, e.graph); err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	e.state = StateReady
	go e.pollLoop()
	e.emitLocked()
	return nil
}

// Play starts or resumes playback. If the device cannot be resumed the
// transition does not happen: state is exactly as before and the error is
// returned for the caller to surface.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateIdle:
		return fmt.Errorf("engine not opened: %w", device.ErrUnavailable)
	case StatePlaying, StateSeeking:
		return nil
	}

	if err := e.dev.Resume(); err != nil {
		return fmt.Errorf("resume audio device: %w", err)
	}

	pos := e.graph.Position()
	e.rebuildLocked(pos)
	e.graph.SetRunning(true)
	e.state = StatePlaying
	e.lastReported = pos
	e.emitLocked()
	return nil
}

// Pause stops all sounding voices and freezes the position.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked()
	e.emitLocked()
}

// Stop pauses and resets the position to zero.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked()
	e.graph.Seek(0)
	e.lastReported = 0
	e.emitLocked()
}

func (e *Engine) pauseLocked() {
	if e.state != StatePlaying && e.state != StateSeeking {
		return
	}
	e.graph.SetRunning(false)
	e.graph.StopAllVoices()
	e.lastReported = e.graph.Position()
	e.state = StatePaused
}

// Seek moves the transport to an explicit position. While playing this
// reschedules immediately; otherwise it just moves the held position.
func (e *Engine) Seek(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := clock.SecondsToSamples(seconds, e.cfg.SampleRate)
	e.graph.Seek(pos)
	if e.state == StatePlaying {
		e.rebuildLocked(pos)
	}
	e.lastReported = pos
	e.emitLocked()
}

// SetPosition feeds the engine an authoritative position from the host. If
// it diverges from the last reported position by more than the seek
// threshold while playing, a debounced reconciliation reschedules from the
// new position; the latest position within the settle window wins.
func (e *Engine) SetPosition(seconds float64) {
	e.mu.Lock()

	pos := clock.SecondsToSamples(seconds, e.cfg.SampleRate)
	if e.state != StatePlaying && e.state != StateSeeking {
		e.graph.Seek(pos)
		e.lastReported = pos
		e.emitLocked()
		e.mu.Unlock()
		return
	}

	if abs64(pos-e.lastReported) <= seekThreshold {
		e.mu.Unlock()
		return
	}

	e.state = StateSeeking
	e.emitLocked()
	e.mu.Unlock()

	e.debounced(func() { e.reconcile(pos) })
}

// reconcile applies a debounced external seek: silence current voices, move
// the clock reference, and reschedule from the new position.
func (e *Engine) reconcile(pos int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateSeeking {
		return
	}
	e.graph.Seek(pos)
	e.rebuildLocked(pos)
	e.state = StatePlaying
	e.lastReported = pos
	e.emitLocked()
}

// Refresh reschedules from the current position after a timeline edit. The
// host calls this whenever tracks or clips change while transport runs.
func (e *Engine) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying {
		return
	}
	pos := e.graph.Position()
	e.graph.StopAllVoices()
	e.rebuildLocked(pos)
}

// SetVolume sets the master gain (0..1), applied live.
func (e *Engine) SetVolume(volume float64) {
	e.graph.SetMasterGain(volume)
}

// SetLoop configures the loop region. Start must be before end or the call
// is ignored.
func (e *Engine) SetLoop(enabled bool, startSeconds, endSeconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := clock.SecondsToSamples(startSeconds, e.cfg.SampleRate)
	end := clock.SecondsToSamples(endSeconds, e.cfg.SampleRate)
	if enabled && end <= start {
		log.Printf("engine: ignoring loop region with end %d <= start %d", end, start)
		return
	}
	e.loopEnabled = enabled
	e.loopStart = start
	e.loopEnd = end
}

// State returns the current transport state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// PositionSeconds returns the current timeline position in seconds.
func (e *Engine) PositionSeconds() float64 {
	return clock.SamplesToSeconds(e.graph.Position(), e.cfg.SampleRate)
}

// Updates returns the reactive channel of transport updates. Sends never
// block; when the receiver lags, intermediate updates are dropped.
func (e *Engine) Updates() <-chan Update {
	return e.updates
}

// Graph exposes the mixer graph for offline rendering and stats.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Close tears down the engine and releases the device.
func (e *Engine) Close() {
	e.cancel()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph.SetRunning(false)
	e.graph.Teardown()
	if e.dev != nil {
		if err := e.dev.Close(); err != nil {
			log.Printf("engine: closing device: %v", err)
		}
	}
	e.state = StateIdle
}

// pollLoop drives the position ticks while the engine is open.
func (e *Engine) pollLoop() {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick advances the reported position, wraps the loop, and stops playback at
// the end of the defined region. Pure over (graph position, engine state), so
// tests drive it directly.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying {
		return
	}

	pos := e.graph.Position()
	end := e.regionEndLocked()

	if end > 0 && pos >= end {
		if e.loopEnabled {
			e.graph.Seek(e.loopStart)
			e.rebuildLocked(e.loopStart)
			e.lastReported = e.loopStart
			e.emitLocked()
			return
		}
		// Region exhausted: stop and pin at the end.
		e.graph.SetRunning(false)
		e.graph.StopAllVoices()
		e.graph.Seek(end)
		e.state = StatePaused
		e.lastReported = end
		e.emitLocked()
		return
	}

	if abs64(pos-e.lastReported) > reportThreshold {
		e.lastReported = pos
		e.emitLocked()
	}
}

// regionEndLocked is the loop end when set, else the project duration.
func (e *Engine) regionEndLocked() int64 {
	if e.loopEnd > 0 {
		return e.loopEnd
	}
	return clock.SecondsToSamples(e.store.Project().Duration, e.cfg.SampleRate)
}

// rebuildLocked rebuilds the graph from a fresh snapshot. The in-progress
// flag guards against reentrant builds during teardown.
func (e *Engine) rebuildLocked(pos int64) {
	if e.rebuilding {
		return
	}
	e.rebuilding = true
	Build(e.graph, e.store.Snapshot(), pos)
	e.rebuilding = false
}

func (e *Engine) emitLocked() {
	u := Update{
		State:           e.state,
		PositionSamples: e.lastReported,
		PositionSeconds: clock.SamplesToSeconds(e.lastReported, e.cfg.SampleRate),
	}
	select {
	case e.updates <- u:
	default:
		// Receiver lagging; drop rather than block the transport
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
