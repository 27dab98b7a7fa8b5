// Package audio decodes PCM windows from downloaded tracks for spectral
// inspection. WAV files are read natively with go-audio; every other
// container is first transcoded to a temporary mono WAV through FFmpeg and
// then read the same way. Decoders return mono samples normalized to
// [-1, 1] so downstream analysis never needs to care about bit depth or
// channel layout.
package audio

import "time"

// Clip is a decoded window of PCM audio.
type Clip struct {
	// Samples holds mono samples normalized to [-1, 1]. Multi-channel
	// sources are downmixed by averaging the channels per frame.
	Samples []float64
	// SampleRate is the source sample rate in Hz.
	SampleRate int
	// BitDepth is the source bit depth. Zero when the decode path cannot
	// know it, such as after an FFmpeg transcode.
	BitDepth int
}

// Duration reports the length of the decoded window.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || len(c.Samples) == 0 {
		return 0
	}
	seconds := float64(len(c.Samples)) / float64(c.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}
