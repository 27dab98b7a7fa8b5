package search

import (
	"strconv"
	"strings"

	"stylus/internal/config"
	"stylus/internal/trackinfo"
)

// maxDurationDiffSeconds is the hard duration exclusion bound: a candidate
// this far from the reference is a different recording, not a variant.
const maxDurationDiffSeconds = 30

// losslessExtensions is the strict first-pass format gate.
var losslessExtensions = map[string]struct{}{
	"flac": {}, "alac": {}, "wav": {}, "aiff": {},
}

// formatClass is one entry of the fallback priority: an extension with an
// optional minimum bitrate. "mp3 320" admits mp3 at 320 kbps and up; a
// candidate with an unknown bitrate only matches the bare extension.
type formatClass struct {
	extension  string
	minBitRate int
}

func (c formatClass) matches(candidate Candidate) bool {
	if candidate.Extension != c.extension {
		return false
	}
	return c.minBitRate == 0 || candidate.BitRate >= c.minBitRate
}

func (c formatClass) String() string {
	if c.minBitRate > 0 {
		return c.extension + " " + strconv.Itoa(c.minBitRate)
	}
	return c.extension
}

// parseFormatClasses reads the configured fallback priority. Entries arrive
// normalized from the config loader, which also rejects malformed bitrates.
func parseFormatClasses(formats []string) []formatClass {
	classes := make([]formatClass, 0, len(formats))
	for _, format := range formats {
		fields := strings.Fields(format)
		if len(fields) == 0 {
			continue
		}
		class := formatClass{extension: fields[0]}
		if len(fields) > 1 {
			class.minBitRate, _ = strconv.Atoi(fields[1])
		}
		classes = append(classes, class)
	}
	return classes
}

// FilterReport explains what one filter pass did, for logs and metrics.
// FallbackFormat names the winning fallback class when Fallback is set.
type FilterReport struct {
	Input               int
	Kept                int
	ExcludedByExtension int
	ExcludedByKeyword   int
	ExcludedByDuration  int
	Fallback            bool
	FallbackFormat      string
}

// Filter applies the format, exclude-keyword, and duration gates.
type Filter struct {
	losslessOnly    bool
	fallback        []formatClass
	excludeKeywords []string
	maxDurationDiff int
}

// NewFilter constructs a filter from search and matching configuration.
// Keywords and fallback formats are already normalized to lowercase by the
// config loader.
func NewFilter(search config.Search, matching config.Matching) *Filter {
	return &Filter{
		losslessOnly:    search.LosslessOnly,
		fallback:        parseFormatClasses(search.FallbackFormats),
		excludeKeywords: matching.ExcludeKeywords,
		maxDurationDiff: matching.MaxDurationDiffSeconds,
	}
}

// Apply runs the gates lossless-first: when no lossless candidate survives,
// the same gates re-run once per configured fallback class, in priority
// order, and the first class with survivors wins. Working from one result
// set beats searching twice; Soulseek keyword matching is too unreliable to
// put "flac" in the query itself. With lossless_only off there is a single
// pass instead, where lossless and fallback formats compete on score.
func (f *Filter) Apply(candidates []Candidate, ref trackinfo.Track) ([]Candidate, FilterReport) {
	if !f.losslessOnly {
		return f.pass(candidates, ref, f.anyConfiguredFormat)
	}

	kept, report := f.pass(candidates, ref, isLossless)
	if len(kept) > 0 {
		return kept, report
	}
	for _, class := range f.fallback {
		classKept, classReport := f.pass(candidates, ref, class.matches)
		if len(classKept) > 0 {
			classReport.Fallback = true
			classReport.FallbackFormat = class.String()
			return classKept, classReport
		}
		kept, report = classKept, classReport
	}
	return kept, report
}

func (f *Filter) pass(candidates []Candidate, ref trackinfo.Track, allowed func(Candidate) bool) ([]Candidate, FilterReport) {
	report := FilterReport{Input: len(candidates)}
	kept := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if !allowed(candidate) {
			report.ExcludedByExtension++
			continue
		}
		if f.excludedKeyword(candidate, ref) {
			report.ExcludedByKeyword++
			continue
		}
		if f.excludedByDuration(candidate, ref) {
			report.ExcludedByDuration++
			continue
		}
		kept = append(kept, candidate)
	}
	report.Kept = len(kept)
	return kept, report
}

func isLossless(candidate Candidate) bool {
	_, ok := losslessExtensions[candidate.Extension]
	return ok
}

// anyConfiguredFormat admits lossless extensions plus every configured
// fallback class.
func (f *Filter) anyConfiguredFormat(candidate Candidate) bool {
	if isLossless(candidate) {
		return true
	}
	for _, class := range f.fallback {
		if class.matches(candidate) {
			return true
		}
	}
	return false
}

// excludedKeyword reports whether the candidate basename carries an exclude
// keyword. A keyword that also appears in the reference title is exempt: a
// track actually named "Live Wire" must keep its "live" results.
func (f *Filter) excludedKeyword(candidate Candidate, ref trackinfo.Track) bool {
	basename := strings.ToLower(candidate.BaseName())
	title := strings.ToLower(ref.Title)
	for _, keyword := range f.excludeKeywords {
		if strings.Contains(basename, keyword) && !strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

// excludedByDuration applies the hard duration bound when both durations
// are known. A configured max diff above the bound admits differently-cut
// versions of the same song; they score zero duration points later.
func (f *Filter) excludedByDuration(candidate Candidate, ref trackinfo.Track) bool {
	if candidate.DurationSeconds <= 0 || ref.DurationSeconds <= 0 {
		return false
	}
	diff := candidate.DurationSeconds - ref.DurationSeconds
	if diff < 0 {
		diff = -diff
	}
	limit := maxDurationDiffSeconds
	if f.maxDurationDiff > limit {
		limit = f.maxDurationDiff
	}
	return diff > limit
}
