package spectral

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Verdict classifies how a file's spectrum compares to genuine lossless
// audio.
type Verdict string

const (
	// VerdictAuthentic means the spectrum extends to the Nyquist frequency.
	VerdictAuthentic Verdict = "AUTHENTIC"
	// VerdictWarning flags an early roll-off that could still be a clean
	// high-bitrate source or an old recording.
	VerdictWarning Verdict = "WARNING"
	// VerdictSuspicious flags a shelf in a known lossy-encoder band.
	VerdictSuspicious Verdict = "SUSPICIOUS"
	// VerdictFake means the cutoff sits far below Nyquist; the file was
	// almost certainly transcoded from a lossy source.
	VerdictFake Verdict = "FAKE"
	// VerdictUndetermined means the file could not be decoded and judged.
	VerdictUndetermined Verdict = "UNDETERMINED"
)

// Emoji returns the marker used in chat-facing summaries.
func (v Verdict) Emoji() string {
	switch v {
	case VerdictAuthentic:
		return "✅"
	case VerdictWarning:
		return "⚠️"
	case VerdictSuspicious:
		return "🟠"
	case VerdictFake:
		return "❌"
	default:
		return "❓"
	}
}

// Report is the outcome of one authenticity analysis. Identical input always
// produces an identical report.
type Report struct {
	Verdict    Verdict `json:"verdict"`
	CutoffKHz  float64 `json:"cutoff_khz"`
	NyquistKHz float64 `json:"nyquist_khz"`
	SampleRate int     `json:"sample_rate"`
	BitDepth   int     `json:"bit_depth,omitempty"`
	// Reason explains an UNDETERMINED verdict.
	Reason string `json:"reason,omitempty"`
}

// Summary renders a one-line human-readable result.
func (r Report) Summary() string {
	switch r.Verdict {
	case VerdictAuthentic:
		return fmt.Sprintf("Lossless OK (spectrum to %.1fkHz)", r.CutoffKHz)
	case VerdictWarning:
		return fmt.Sprintf("Possible transcode (cutoff %.1fkHz)", r.CutoffKHz)
	case VerdictSuspicious:
		return fmt.Sprintf("Likely transcode (cutoff %.1fkHz)", r.CutoffKHz)
	case VerdictFake:
		return fmt.Sprintf("Fake lossless (cutoff %.1fkHz)", r.CutoffKHz)
	case VerdictUndetermined:
		if r.Reason != "" {
			return fmt.Sprintf("Analysis inconclusive (%s)", r.Reason)
		}
		return "Analysis inconclusive"
	default:
		return string(r.Verdict)
	}
}

// Encode serializes the report for queue storage.
func (r Report) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode verdict: %w", err)
	}
	return string(data), nil
}

// DecodeReport parses a stored verdict report.
func DecodeReport(raw string) (Report, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Report{}, errors.New("no verdict recorded")
	}
	var report Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return Report{}, fmt.Errorf("decode verdict: %w", err)
	}
	return report, nil
}
