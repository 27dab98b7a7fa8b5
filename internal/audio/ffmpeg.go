package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const defaultDecodeTimeout = 2 * time.Minute

// FFmpegDecoder decodes arbitrary audio containers by transcoding them to a
// temporary mono WAV and reading that. The source sample rate is kept as-is
// because resampling would erase the high-frequency content the spectral
// analyzer inspects.
type FFmpegDecoder struct {
	binary  string
	timeout time.Duration
}

// NewFFmpegDecoder returns a decoder that shells out to the given FFmpeg
// binary. An empty binary falls back to "ffmpeg" on PATH.
func NewFFmpegDecoder(binary string) *FFmpegDecoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegDecoder{binary: binary, timeout: defaultDecodeTimeout}
}

// DecodeWindow transcodes path into workDir and decodes a window from the
// result. Window semantics match DecodeWAVWindow. The returned clip carries
// BitDepth zero since the transcode depth says nothing about the source.
func (d *FFmpegDecoder) DecodeWindow(ctx context.Context, path, workDir string, startFraction, maxSeconds float64) (Clip, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if strings.TrimSpace(workDir) == "" {
		workDir = os.TempDir()
	}
	tmp, err := os.CreateTemp(workDir, "analyze-*.wav")
	if err != nil {
		return Clip{}, fmt.Errorf("create temp wav: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(ctx, d.binary,
		"-y",
		"-v", "error",
		"-i", path,
		"-ac", "1",
		"-c:a", "pcm_s16le",
		tmpPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return Clip{}, fmt.Errorf("decode %s: %w", filepath.Base(path), ctx.Err())
		}
		if detail := toolOutput(out); detail != "" {
			return Clip{}, fmt.Errorf("decode %s: %w (%s)", filepath.Base(path), err, detail)
		}
		return Clip{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	clip, err := DecodeWAVWindow(tmpPath, startFraction, maxSeconds)
	if err != nil {
		return Clip{}, err
	}
	clip.BitDepth = 0
	return clip, nil
}

// toolOutput condenses FFmpeg stderr into a single error-sized line.
func toolOutput(out []byte) string {
	text := strings.TrimSpace(string(out))
	if text == "" {
		return ""
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	const limit = 200
	if len(text) > limit {
		text = text[:limit]
	}
	return text
}
