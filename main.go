// ABOUTME: Entry point for the Clipdeck editor
// ABOUTME: Parses CLI flags, loads audio files, and wires the engine to the TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Clipdeck/clipdeck-go/internal/clock"
	"github.com/Clipdeck/clipdeck-go/internal/codec"
	"github.com/Clipdeck/clipdeck-go/internal/engine"
	"github.com/Clipdeck/clipdeck-go/internal/project"
	"github.com/Clipdeck/clipdeck-go/internal/ui"
	"github.com/Clipdeck/clipdeck-go/internal/version"
	"github.com/Clipdeck/clipdeck-go/internal/waveform"
)

var (
	projectName = flag.String("name", "untitled", "Project name")
	bpm         = flag.Float64("bpm", clock.DefaultBPM, "Project tempo in beats per minute")
	sampleRate  = flag.Int("sample-rate", 44100, "Engine sample rate in Hz")
	logFile     = flag.String("log-file", "clipdeck.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs  = flag.Bool("stream-logs", false, "Alias for -no-tui")
)

func main() {
	flag.Parse()

	// Determine if we should use TUI or streaming logs
	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	store := project.NewStore(project.Config{
		Name: *projectName,
		BPM:  *bpm,
	})

	eng := engine.New(store, engine.Config{SampleRate: *sampleRate})
	defer eng.Close()

	// TUI setup
	var tuiProg *tea.Program
	var ctrl *ui.Control

	if useTUI {
		ctrl = ui.NewControl()
		tuiProg, err = ui.Run(ctrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// One track per file argument; decoding runs in the background so a
	// slow or broken file never blocks the editor.
	for _, path := range flag.Args() {
		loadFile(store, eng, path, updateTUI)
	}

	if err := eng.Open(); err != nil {
		// Not fatal: the engine stays idle and Play reports the failure
		log.Printf("Audio device not available yet: %v", err)
	}

	pushProjectStatus(store, eng, updateTUI)

	quit := make(chan struct{}, 1)
	if ctrl != nil {
		go handleCommands(store, eng, ctrl, updateTUI, quit)
	}
	if tuiProg != nil {
		go statusUpdateLoop(store, eng, updateTUI)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	}

	log.Printf("Editor stopped")
}

// loadFile adds a track and a pending clip for path, then decodes it in the
// background and attaches the buffer when ready.
func loadFile(store *project.Store, eng *engine.Engine, path string, updateTUI func(ui.StatusMsg)) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	track := store.AddTrack(name)
	clip, err := store.AddClip(track.ID, name, 0)
	if err != nil {
		log.Printf("Adding clip for %s: %v", path, err)
		return
	}

	go func() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Reading %s: %v", path, err)
			store.RemoveClip(clip.ID)
			updateTUI(ui.StatusMsg{Message: fmt.Sprintf("Failed to read %s", filepath.Base(path))})
			return
		}

		res, err := codec.Decode(data, eng.Graph().SampleRate())
		if err != nil {
			log.Printf("Decoding %s: %v", path, err)
			store.RemoveClip(clip.ID)
			updateTUI(ui.StatusMsg{Message: fmt.Sprintf("Failed to decode %s", filepath.Base(path))})
			return
		}

		peaks := waveform.Peaks(res.Buffer, waveform.DefaultResolution)
		if err := store.AttachBuffer(clip.ID, res.Buffer, peaks); err != nil {
			log.Printf("Attaching buffer for %s: %v", path, err)
			return
		}
		eng.Refresh()

		log.Printf("Loaded %s: %.2fs at %dHz", path, res.DurationSeconds, res.NativeRate)
		pushProjectStatus(store, eng, updateTUI)
	}()
}

// handleCommands processes user actions from the TUI
func handleCommands(store *project.Store, eng *engine.Engine, ctrl *ui.Control, updateTUI func(ui.StatusMsg), quit chan<- struct{}) {
	volume := 0.8
	loopEnabled := false

	for cmd := range ctrl.Commands {
		switch cmd.Cmd {
		case ui.CmdTogglePlay:
			if eng.State() == engine.StatePlaying {
				eng.Pause()
			} else if err := eng.Play(); err != nil {
				log.Printf("Play: %v", err)
				updateTUI(ui.StatusMsg{Message: "Audio device unavailable"})
			}
		case ui.CmdStop:
			eng.Stop()
		case ui.CmdSeekBack:
			eng.Seek(eng.PositionSeconds() - 1)
		case ui.CmdSeekForward:
			eng.Seek(eng.PositionSeconds() + 1)
		case ui.CmdVolumeUp:
			volume = clampUnit(volume + 0.05)
			eng.SetVolume(volume)
		case ui.CmdVolumeDown:
			volume = clampUnit(volume - 0.05)
			eng.SetVolume(volume)
		case ui.CmdToggleMute:
			if tr, ok := store.Track(cmd.TrackID); ok {
				store.SetTrackMuted(tr.ID, !tr.Muted)
				eng.Refresh()
			}
		case ui.CmdToggleSolo:
			if tr, ok := store.Track(cmd.TrackID); ok {
				store.SetTrackSolo(tr.ID, !tr.Solo)
				eng.Refresh()
			}
		case ui.CmdToggleLoop:
			loopEnabled = !loopEnabled
			eng.SetLoop(loopEnabled, 0, store.Project().Duration)
			enabled := loopEnabled
			updateTUI(ui.StatusMsg{LoopEnabled: &enabled})
		case ui.CmdQuit:
			select {
			case quit <- struct{}{}:
			default:
			}
			return
		}
		pushProjectStatus(store, eng, updateTUI)
	}
}

// statusUpdateLoop forwards engine position updates to the TUI.
func statusUpdateLoop(store *project.Store, eng *engine.Engine, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case u := <-eng.Updates():
			pos := u.PositionSeconds
			updateTUI(ui.StatusMsg{
				State:    u.State.String(),
				Position: &pos,
			})
		case <-ticker.C:
			pushProjectStatus(store, eng, updateTUI)
		}
	}
}

// pushProjectStatus sends a full project snapshot to the TUI.
func pushProjectStatus(store *project.Store, eng *engine.Engine, updateTUI func(ui.StatusMsg)) {
	snap := store.Snapshot()

	tracks := make([]ui.TrackStatus, 0, len(snap.Tracks))
	for _, tr := range snap.Tracks {
		tracks = append(tracks, ui.TrackStatus{
			ID:     tr.ID,
			Name:   tr.Name,
			Volume: tr.Volume,
			Pan:    tr.Pan,
			Muted:  tr.Muted,
			Solo:   tr.Solo,
			Clips:  len(snap.ClipsFor(tr.ID)),
		})
	}

	pos := eng.PositionSeconds()
	updateTUI(ui.StatusMsg{
		ProjectName: snap.Project.Name,
		BPM:         snap.Project.BPM,
		TimeSig:     snap.Project.TimeSig,
		Duration:    snap.Project.Duration,
		State:       eng.State().String(),
		Position:    &pos,
		Tracks:      tracks,
	})
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
