// ABOUTME: Offline bounce tool for Clipdeck projects
// ABOUTME: Loads audio files, schedules them, and renders the mix to a WAV file
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/youpy/go-wav"

	"github.com/Clipdeck/clipdeck-go/internal/audio"
	"github.com/Clipdeck/clipdeck-go/internal/clock"
	"github.com/Clipdeck/clipdeck-go/internal/codec"
	"github.com/Clipdeck/clipdeck-go/internal/engine"
	"github.com/Clipdeck/clipdeck-go/internal/graph"
	"github.com/Clipdeck/clipdeck-go/internal/project"
)

var (
	out        = flag.String("out", "mix.wav", "Output WAV path")
	bpm        = flag.Float64("bpm", clock.DefaultBPM, "Project tempo in beats per minute")
	sampleRate = flag.Int("sample-rate", 44100, "Render sample rate in Hz")
	volume     = flag.Float64("volume", 0.8, "Master volume, 0..1")
	seconds    = flag.Float64("seconds", 0, "Render length in seconds (default: project duration)")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: clipdeck-render [flags] file...")
	}

	store := project.NewStore(project.Config{Name: "render", BPM: *bpm})

	// One track per input file, each clip at the timeline origin
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("reading %s: %v", path, err)
		}
		res, err := codec.Decode(data, *sampleRate)
		if err != nil {
			log.Fatalf("decoding %s: %v", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		track := store.AddTrack(name)
		clip, err := store.AddClip(track.ID, name, 0)
		if err != nil {
			log.Fatalf("adding clip for %s: %v", path, err)
		}
		if err := store.AttachBuffer(clip.ID, res.Buffer, nil); err != nil {
			log.Fatalf("attaching %s: %v", path, err)
		}
		log.Printf("Loaded %s: %.2fs at %dHz", path, res.DurationSeconds, res.NativeRate)
	}

	length := *seconds
	if length <= 0 {
		length = store.Project().Duration
	}

	g := graph.New(*sampleRate)
	g.SetMasterGain(*volume)
	engine.Build(g, store.Snapshot(), 0)
	g.SetRunning(true)

	frames := clock.SecondsToSamples(length, *sampleRate)
	if err := writeWAV(*out, g, frames, *sampleRate); err != nil {
		log.Fatalf("writing %s: %v", *out, err)
	}

	log.Printf("Rendered %.2fs to %s", length, *out)
}

// writeWAV pulls frames from the graph in chunks and streams them out as a
// 16-bit stereo WAV file.
func writeWAV(path string, g *graph.Graph, frames int64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := wav.NewWriter(f, uint32(frames), 2, uint32(sampleRate), 16)

	const chunkFrames = 4096
	buf := make([]float32, chunkFrames*2)
	samples := make([]wav.Sample, chunkFrames)

	for frames > 0 {
		n := int64(chunkFrames)
		if n > frames {
			n = frames
		}
		g.Render(buf[:n*2])

		for i := int64(0); i < n; i++ {
			samples[i].Values[0] = int(audio.SampleToInt16(buf[i*2]))
			samples[i].Values[1] = int(audio.SampleToInt16(buf[i*2+1]))
		}
		if err := w.WriteSamples(samples[:n]); err != nil {
			return err
		}
		frames -= n
	}
	return f.Sync()
}
