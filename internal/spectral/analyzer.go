package spectral

import (
	"context"
	"math"
	"path/filepath"
	"strings"

	"stylus/internal/audio"
	"stylus/internal/config"
)

const (
	// windowStartFraction positions the analysis window a third of the way
	// into the track, past quiet intros and fade-ins.
	windowStartFraction = 1.0 / 3.0

	// defaultSegmentLength backstops a zero analysis.segment_length.
	defaultSegmentLength = 8192

	silenceRMS = 1e-3
	psdFloor   = 1e-30

	midBandLowHz  = 2000.0
	midBandHighHz = 8000.0
	// fallbackReferenceDB stands in when no bin lands in the mid band.
	fallbackReferenceDB = -60.0

	highBandFloorHz = 14000.0
	minHighBins     = 10
	cutoffRunBins   = 4

	authenticNyquistRatio  = 0.92
	warningNyquistRatio    = 0.79
	suspiciousNyquistRatio = 0.71

	// fullBandRate is the lowest sample rate at which the absolute kHz
	// verdict bands apply; below it the bands scale with Nyquist.
	fullBandRate = 44100
)

// Analyzer judges losslessness from a Welch PSD estimate. Safe for
// concurrent use.
type Analyzer struct {
	dropDB        float64
	warningKHz    float64
	suspiciousKHz float64
	sampleSeconds float64
	segmentLength int
	ffmpeg        *audio.FFmpegDecoder
	workDir       string
}

// NewAnalyzer builds an analyzer with verdict thresholds from cfg. The
// ffmpeg binary and workDir serve AnalyzeFile's transcode fallback for
// non-WAV containers.
func NewAnalyzer(cfg config.Analysis, ffmpegBinary, workDir string) *Analyzer {
	segment := cfg.SegmentLength
	if segment <= 0 {
		segment = defaultSegmentLength
	}
	return &Analyzer{
		dropDB:        cfg.DropThresholdDB,
		warningKHz:    cfg.WarningCutoffKHz,
		suspiciousKHz: cfg.SuspiciousCutoffKHz,
		sampleSeconds: cfg.SampleSeconds,
		segmentLength: segment,
		ffmpeg:        audio.NewFFmpegDecoder(ffmpegBinary),
		workDir:       workDir,
	}
}

// AnalyzeFile decodes a window from the middle of the file and classifies
// it. Decode problems produce an UNDETERMINED report instead of an error so
// a corrupt download never wedges the pipeline.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) Report {
	clip, err := a.decodeWindow(ctx, path)
	if err != nil {
		return Report{
			Verdict: VerdictUndetermined,
			Reason:  err.Error(),
		}
	}
	return a.Analyze(clip)
}

func (a *Analyzer) decodeWindow(ctx context.Context, path string) (audio.Clip, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return audio.DecodeWAVWindow(path, windowStartFraction, a.sampleSeconds)
	}
	return a.ffmpeg.DecodeWindow(ctx, path, a.workDir, windowStartFraction, a.sampleSeconds)
}

// Analyze classifies a decoded clip. Deterministic: identical samples and
// rate always produce an identical report.
func (a *Analyzer) Analyze(clip audio.Clip) Report {
	report := Report{
		SampleRate: clip.SampleRate,
		BitDepth:   clip.BitDepth,
	}
	if clip.SampleRate <= 0 || len(clip.Samples) == 0 {
		report.Verdict = VerdictUndetermined
		report.Reason = "no decoded samples"
		return report
	}

	nyquist := float64(clip.SampleRate) / 2
	report.NyquistKHz = round2(nyquist / 1000)

	// Near-silent windows carry no spectral evidence either way.
	if rms(clip.Samples) < silenceRMS {
		report.Verdict = VerdictAuthentic
		report.CutoffKHz = report.NyquistKHz
		return report
	}

	nperseg := a.segmentLength
	if len(clip.Samples) < nperseg {
		nperseg = len(clip.Samples)
	}
	freqs, psd := welchPSD(clip.Samples, clip.SampleRate, nperseg)
	db := make([]float64, len(psd))
	for i, p := range psd {
		db[i] = 10 * math.Log10(p+psdFloor)
	}

	highStart := len(freqs)
	for i, f := range freqs {
		if f >= highBandFloorHz {
			highStart = i
			break
		}
	}
	if len(freqs)-highStart < minHighBins {
		// Not enough resolution above 14 kHz to judge the shelf.
		report.Verdict = VerdictAuthentic
		report.CutoffKHz = report.NyquistKHz
		return report
	}

	threshold := midReference(freqs, db) - a.dropDB
	cutoff := nyquist
	if idx, ok := firstSustainedDrop(db[highStart:], threshold); ok {
		cutoff = freqs[highStart+idx]
	}

	report.CutoffKHz = round2(cutoff / 1000)
	report.Verdict = a.classify(cutoff/1000, nyquist/1000, clip.SampleRate)
	return report
}

// midReference averages the dB level across the 2-8 kHz passband. Thresholds
// are relative to this level, which makes the scan independent of overall
// loudness and PSD scaling.
func midReference(freqs, db []float64) float64 {
	sum, count := 0.0, 0
	for i, f := range freqs {
		if f >= midBandLowHz && f <= midBandHighHz {
			sum += db[i]
			count++
		}
	}
	if count == 0 {
		return fallbackReferenceDB
	}
	return sum / float64(count)
}

// classify maps the cutoff to a verdict band. Rates below 44.1 kHz scale the
// warning and suspicious floors with Nyquist; the absolute bands would sit
// above their whole spectrum.
func (a *Analyzer) classify(cutoffKHz, nyquistKHz float64, sampleRate int) Verdict {
	if cutoffKHz >= nyquistKHz*authenticNyquistRatio {
		return VerdictAuthentic
	}
	warning, suspicious := a.warningKHz, a.suspiciousKHz
	if sampleRate < fullBandRate {
		warning = nyquistKHz * warningNyquistRatio
		suspicious = nyquistKHz * suspiciousNyquistRatio
	}
	switch {
	case cutoffKHz >= warning:
		return VerdictWarning
	case cutoffKHz >= suspicious:
		return VerdictSuspicious
	default:
		return VerdictFake
	}
}

// firstSustainedDrop returns the index opening the first run of at least
// cutoffRunBins consecutive bins below threshold. Shorter dips do not count
// as a shelf.
func firstSustainedDrop(db []float64, threshold float64) (int, bool) {
	run := 0
	for i, v := range db {
		if v < threshold {
			run++
			if run == cutoffRunBins {
				return i - cutoffRunBins + 1, true
			}
		} else {
			run = 0
		}
	}
	return 0, false
}

func rms(samples []float64) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
