// ABOUTME: MP3 decoding via hajimehoshi/go-mp3
// ABOUTME: Converts the decoder's 16-bit LE stereo stream to float32
package codec

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

func decodeMP3(data []byte, targetRate int) (*Result, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: "mp3", Reason: "creating decoder", Err: err}
	}

	// go-mp3 always emits 16-bit LE stereo regardless of the source layout.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, &DecodeError{Format: "mp3", Reason: "decoding stream", Err: err}
	}

	pcm := make([]float32, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		v := int16(binary.LittleEndian.Uint16(raw[i:]))
		pcm = append(pcm, float32(v)/32768.0)
	}

	return finish("mp3", pcm, dec.SampleRate(), targetRate)
}
