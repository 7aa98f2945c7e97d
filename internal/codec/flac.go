// ABOUTME: FLAC decoding via mewkiz/flac
// ABOUTME: Walks frames and rescales subframe samples to float32
package codec

import (
	"bytes"
	"io"

	"github.com/mewkiz/flac"
)

func decodeFLAC(data []byte, targetRate int) (*Result, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: "flac", Reason: "parsing stream", Err: err}
	}

	info := stream.Info
	if info.NChannels == 0 {
		return nil, &DecodeError{Format: "flac", Reason: "zero channels"}
	}
	scale := float32(int64(1) << (info.BitsPerSample - 1))

	var pcm []float32
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Format: "flac", Reason: "parsing frame", Err: err}
		}

		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			l := float32(frame.Subframes[0].Samples[i]) / scale
			r := l
			if len(frame.Subframes) > 1 {
				r = float32(frame.Subframes[1].Samples[i]) / scale
			}
			pcm = append(pcm, l, r)
		}
	}

	return finish("flac", pcm, int(info.SampleRate), targetRate)
}
