package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFmpeg reports the FFmpeg binary the spectral analyzer will execute.
//
// An explicit override (absolute path or bare name) wins when it resolves to
// an executable; otherwise "ffmpeg" is resolved from PATH. Status output and
// preflight share this helper so both report the same binary the decoder
// actually runs.
func ResolveFFmpeg(override string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used to decode audio for spectral analysis",
	}

	if candidate := strings.TrimSpace(override); candidate != "" && candidate != "ffmpeg" {
		if filepath.IsAbs(candidate) {
			if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
				result.Command = candidate
				result.Available = true
				return result
			}
		} else if resolved, err := exec.LookPath(candidate); err == nil {
			result.Command = resolved
			result.Available = true
			return result
		}
		result.Command = candidate
		result.Available = false
		result.Detail = fmt.Sprintf("configured binary %q not found", candidate)
		return result
	}

	ffmpegName := "ffmpeg"
	if ffmpegPath, err := exec.LookPath(ffmpegName); err == nil {
		result.Command = ffmpegPath
		result.Available = true
		return result
	}

	result.Command = ffmpegName
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found", ffmpegName)
	return result
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
