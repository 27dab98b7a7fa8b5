package audio

import (
	"fmt"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// readChunkFrames bounds how much PCM is pulled per read so long files
	// never load whole into memory.
	readChunkFrames = 8192
)

// DecodeWAVWindow decodes a window of a WAV file into a mono Clip.
//
// startFraction positions the window start as a fraction of the total frame
// count and maxSeconds caps the window length. A maxSeconds of zero or less
// reads through to the end of the file.
func DecodeWAVWindow(path string, startFraction, maxSeconds float64) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return Clip{}, fmt.Errorf("%s is not a decodable wav file", filepath.Base(path))
	}
	if err := decoder.FwdToPCM(); err != nil {
		return Clip{}, fmt.Errorf("locate pcm chunk: %w", err)
	}

	switch decoder.WavAudioFormat {
	case wavFormatPCM, wavFormatExtensible:
	default:
		return Clip{}, fmt.Errorf("unsupported wav audio format %d", decoder.WavAudioFormat)
	}
	depth := int(decoder.BitDepth)
	switch depth {
	case 16, 24, 32:
	default:
		return Clip{}, fmt.Errorf("unsupported wav bit depth %d", depth)
	}
	channels := int(decoder.NumChans)
	if channels < 1 {
		return Clip{}, fmt.Errorf("wav reports %d channels", channels)
	}
	rate := int(decoder.SampleRate)
	if rate <= 0 {
		return Clip{}, fmt.Errorf("wav reports sample rate %d", rate)
	}

	totalFrames := decoder.PCMSize / (channels * depth / 8)
	start, limit := windowFrames(totalFrames, rate, startFraction, maxSeconds)
	if limit <= 0 {
		return Clip{}, fmt.Errorf("requested window starts past the end of %s", filepath.Base(path))
	}

	clip := Clip{
		Samples:    make([]float64, 0, limit),
		SampleRate: rate,
		BitDepth:   depth,
	}
	scale := float64(int64(1) << (depth - 1))
	raw := make([]int, readChunkFrames*channels)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:   raw,
	}

	seen := 0
	for len(clip.Samples) < limit {
		// PCMBuffer shrinks Data to the decoded count, so restore the full
		// backing slice before every read.
		buf.Data = raw
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return Clip{}, fmt.Errorf("read pcm: %w", err)
		}
		if n == 0 {
			break
		}
		frames := n / channels
		for i := 0; i < frames; i++ {
			if seen+i < start {
				continue
			}
			if len(clip.Samples) >= limit {
				break
			}
			sum := 0.0
			for c := 0; c < channels; c++ {
				sum += float64(buf.Data[i*channels+c])
			}
			clip.Samples = append(clip.Samples, sum/float64(channels)/scale)
		}
		seen += frames
	}
	if len(clip.Samples) == 0 {
		return Clip{}, fmt.Errorf("no pcm frames decoded from %s", filepath.Base(path))
	}
	return clip, nil
}

// windowFrames converts the fractional window spec into absolute bounds: the
// first frame to keep and the maximum number of frames to keep.
func windowFrames(totalFrames, sampleRate int, startFraction, maxSeconds float64) (start, limit int) {
	if startFraction < 0 {
		startFraction = 0
	}
	start = int(float64(totalFrames) * startFraction)
	if start > totalFrames {
		start = totalFrames
	}
	limit = totalFrames - start
	if maxSeconds > 0 {
		if most := int(maxSeconds * float64(sampleRate)); most < limit {
			limit = most
		}
	}
	return start, limit
}
