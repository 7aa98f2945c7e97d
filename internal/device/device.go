// ABOUTME: Audio output device abstraction
// ABOUTME: Defines the Device interface the transport engine drives
package device

import (
	"errors"
	"io"
)

// ErrUnavailable means the output device cannot be created or resumed.
// Recoverable: the caller may retry once the environment allows output.
var ErrUnavailable = errors.New("audio device unavailable")

// Device is an audio output. Open constructs it suspended; Resume starts
// real-time pulling from the source reader and may fail if the environment
// does not permit output yet.
type Device interface {
	Open(sampleRate int, src io.Reader) error
	Resume() error
	Suspend() error
	Close() error
}
