// ABOUTME: Oto-based audio output device
// ABOUTME: Pulls 16-bit stereo PCM from a reader on the real-time thread
package device

import (
	"fmt"
	"io"
	"log"

	"github.com/ebitengine/oto/v3"
)

// Oto is the production output device. It opens suspended; the engine
// resumes it on the first successful Play.
type Oto struct {
	otoCtx *oto.Context
	player *oto.Player
}

// NewOto creates an unopened oto device.
func NewOto() *Oto {
	return &Oto{}
}

// Open creates the oto context and a persistent player reading from src.
// The context is suspended immediately after creation; nothing sounds until
// Resume.
func (o *Oto) Open(sampleRate int, src io.Reader) error {
	if o.otoCtx != nil {
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.player = ctx.NewPlayer(src)
	o.player.Play()

	if err := ctx.Suspend(); err != nil {
		log.Printf("device: suspending fresh context: %v", err)
	}

	log.Printf("Audio device opened: %dHz, 2 channels", sampleRate)
	return nil
}

// Resume unblocks output. Fails with ErrUnavailable when the device was
// never opened or the platform refuses to resume.
func (o *Oto) Resume() error {
	if o.otoCtx == nil {
		return ErrUnavailable
	}
	if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Suspend pauses output without releasing the device.
func (o *Oto) Suspend() error {
	if o.otoCtx == nil {
		return nil
	}
	return o.otoCtx.Suspend()
}

// Close releases the player. The oto context itself cannot be destroyed
// (one per process), so it is left suspended.
func (o *Oto) Close() error {
	if o.otoCtx == nil {
		return nil
	}
	if err := o.otoCtx.Suspend(); err != nil {
		log.Printf("device: suspend on close: %v", err)
	}
	if o.player != nil {
		return o.player.Close()
	}
	return nil
}
