// ABOUTME: Linear-interpolation resampler for decoded buffers
// ABOUTME: Converts interleaved stereo between sample rates at decode time
package codec

// resampleStereo converts interleaved stereo PCM from inputRate to
// outputRate with linear interpolation. Fine for one-shot conversion of
// whole files at decode time.
func resampleStereo(in []float32, inputRate, outputRate int) []float32 {
	if inputRate == outputRate || inputRate <= 0 || outputRate <= 0 {
		return in
	}

	inFrames := len(in) / 2
	if inFrames == 0 {
		return in
	}

	ratio := float64(inputRate) / float64(outputRate)
	outFrames := int(float64(inFrames) / ratio)
	if outFrames == 0 {
		outFrames = 1
	}

	out := make([]float32, outFrames*2)
	for i := 0; i < outFrames; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := float32(srcPos - float64(idx))

		next := idx + 1
		if next >= inFrames {
			next = inFrames - 1
		}

		for ch := 0; ch < 2; ch++ {
			a := in[idx*2+ch]
			b := in[next*2+ch]
			out[i*2+ch] = a + (b-a)*frac
		}
	}
	return out
}
