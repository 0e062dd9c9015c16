package process

// GetNumChannels returns the minimum of input and output channels
func (c *Context) GetNumChannels() int {
	numChannels := c.NumInputChannels()
	if c.NumOutputChannels() < numChannels {
		numChannels = c.NumOutputChannels()
	}
	return numChannels
}

// Host buffer conversion. Hosts hand over float32; kernels work in float64.

// LoadDeinterleaved copies frames samples of each source channel into dst.
// Missing source samples are zeroed. It returns the smallest number of
// frames any channel supplied.
func LoadDeinterleaved(dst [][]float64, src [][]float32, frames int) int {
	got := frames
	for ch := range dst {
		var in []float32
		if ch < len(src) {
			in = src[ch]
		}
		n := min(len(in), frames)
		out := dst[ch][:frames]
		for i := 0; i < n; i++ {
			out[i] = float64(in[i])
		}
		clear(out[n:])
		got = min(got, n)
	}
	return got
}

// LoadInterleaved splits an interleaved float32 buffer into dst. It returns
// the number of complete frames src supplied.
func LoadInterleaved(dst [][]float64, src []float32, frames int) int {
	channels := len(dst)
	if channels == 0 {
		return frames
	}
	n := min(len(src)/channels, frames)
	for ch := range dst {
		out := dst[ch][:frames]
		for i := 0; i < n; i++ {
			out[i] = float64(src[i*channels+ch])
		}
		clear(out[n:])
	}
	return n
}

// StoreDeinterleaved writes frames samples of src into dst.
func StoreDeinterleaved(dst [][]float32, src [][]float64, frames int) {
	for ch := range dst {
		out := dst[ch][:frames]
		in := src[ch][:frames]
		for i := range out {
			out[i] = float32(in[i])
		}
	}
}

// StoreInterleaved writes src into a single interleaved buffer.
func StoreInterleaved(dst []float32, src [][]float64, frames int) {
	channels := len(src)
	for ch, in := range src {
		in = in[:frames]
		for i, v := range in {
			dst[i*channels+ch] = float32(v)
		}
	}
}
