// Package spectral classifies downloaded lossless files as genuine or
// transcoded from a lossy source.
//
// Lossy encoders low-pass their input, so a FLAC re-encoded from MP3 keeps a
// hard spectral shelf around 16-20 kHz while true lossless audio carries
// energy up to the Nyquist frequency. The Analyzer estimates the power
// spectral density of a window from the middle of the file with Welch's
// method, finds where high-frequency energy drops well below the passband
// reference, and maps that cutoff to a verdict: AUTHENTIC, WARNING,
// SUSPICIOUS, or FAKE. Files that cannot be decoded come back UNDETERMINED
// and never block the pipeline.
//
// Verifier is the workflow stage that runs the analyzer on staged downloads
// and routes rejected verdicts to review. The thresholds live in the
// [analysis] config section so verdict bands can be recalibrated without
// touching the algorithm.
package spectral
