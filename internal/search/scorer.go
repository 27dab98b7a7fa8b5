package search

import (
	"math"
	"sort"
	"strings"

	"stylus/internal/config"
	"stylus/internal/textutil"
	"stylus/internal/trackinfo"
)

// Tie-break policies for equal totals.
const (
	// TieBreakReliability prefers the more reliable uploader first.
	TieBreakReliability = "reliability"
	// TieBreakFilename prefers the shorter filename first; short names are
	// a decent proxy for cleanly labelled releases.
	TieBreakFilename = "filename"
)

// Scorer computes the deterministic 0-100 rank from duration, quality,
// reliability, and filename factors. Scoring never excludes; exclusion is
// the filter's job, so every input candidate appears in the output.
type Scorer struct {
	tolerance int
	tieBreak  string
}

// NewScorer constructs a scorer from matching configuration.
func NewScorer(cfg config.Matching) *Scorer {
	return &Scorer{
		tolerance: cfg.DurationToleranceSeconds,
		tieBreak:  cfg.TieBreak,
	}
}

// Score computes the breakdown for a single candidate. Pure function of its
// inputs; identical inputs always produce identical output.
func (s *Scorer) Score(candidate Candidate, ref trackinfo.Track) Scored {
	scored := Scored{Candidate: candidate}
	scored.DurationScore = round2(s.durationScore(candidate, ref))
	scored.QualityScore = round2(qualityScore(candidate))
	scored.ReliabilityScore = round2(reliabilityScore(candidate))
	scored.FilenameScore = round2(filenameScore(candidate, ref))
	scored.Total = round2(scored.DurationScore + scored.QualityScore + scored.ReliabilityScore + scored.FilenameScore)
	return scored
}

// Rank scores every candidate, deduplicates by basename keeping the best,
// and sorts by total with the configured tie-break policy. Output order is
// a pure function of the candidate set.
func (s *Scorer) Rank(candidates []Candidate, ref trackinfo.Track) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, s.Score(candidate, ref))
	}

	sort.Slice(scored, func(i, j int) bool {
		return s.less(scored[i], scored[j])
	})

	// The same file offered by many peers floods the list; keep the best
	// offer per basename. Sorted order makes first-seen the winner.
	seen := make(map[string]struct{}, len(scored))
	deduplicated := scored[:0]
	for _, entry := range scored {
		key := strings.ToLower(entry.BaseName())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduplicated = append(deduplicated, entry)
	}
	for i := range deduplicated {
		deduplicated[i].Rank = i + 1
	}
	return deduplicated
}

// less is a strict total order so ranking is independent of input order.
func (s *Scorer) less(a, b Scored) bool {
	if a.Total != b.Total {
		return a.Total > b.Total
	}
	if s.tieBreak == TieBreakFilename {
		if len(a.Filename) != len(b.Filename) {
			return len(a.Filename) < len(b.Filename)
		}
		if a.ReliabilityScore != b.ReliabilityScore {
			return a.ReliabilityScore > b.ReliabilityScore
		}
	} else {
		if a.ReliabilityScore != b.ReliabilityScore {
			return a.ReliabilityScore > b.ReliabilityScore
		}
		if len(a.Filename) != len(b.Filename) {
			return len(a.Filename) < len(b.Filename)
		}
	}
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	return a.Username < b.Username
}

// durationScore awards up to 40 points in bands around the reference
// duration. Unknown durations land in the middle rather than at either
// extreme: the file may be fine, the peer just did not report length.
func (s *Scorer) durationScore(candidate Candidate, ref trackinfo.Track) float64 {
	if candidate.DurationSeconds <= 0 || ref.DurationSeconds <= 0 {
		return 15
	}
	diff := float64(candidate.DurationSeconds - ref.DurationSeconds)
	if diff < 0 {
		diff = -diff
	}
	tolerance := float64(s.tolerance)
	switch {
	case diff <= tolerance:
		return 40 - diff*2
	case diff <= 10:
		return 25 - (diff-tolerance)*3
	case diff <= maxDurationDiffSeconds:
		return math.Max(0, 10-(diff-10)*0.5)
	default:
		// Beyond the exclusion bound; reachable only with a raised max
		// duration diff, where a different cut is acceptable at zero.
		return 0
	}
}

// qualityScore awards up to 25 points, preferring CD-standard 16/44.1 over
// hi-res for library consistency. Unknown metadata scores the lowest
// non-zero band.
func qualityScore(candidate Candidate) float64 {
	var score float64
	switch candidate.BitDepth {
	case 16:
		score += 15
	case 24:
		score += 12
	default:
		score += 5
	}
	switch candidate.SampleRate {
	case 44100:
		score += 10
	case 48000, 88200, 96000:
		score += 7
	default:
		score += 3
	}
	return score
}

// reliabilityScore awards up to 20 points from uploader behaviour. Each
// sub-factor is capped so no single one dominates, and the composite is
// clamped so a perfect candidate tops out at exactly 100 overall.
func reliabilityScore(candidate Candidate) float64 {
	var score float64
	if candidate.HasFreeSlot {
		score += 10
	}
	if candidate.UploadSpeed > 0 {
		score += math.Min(float64(candidate.UploadSpeed)/1_000_000, 10)
	}
	switch {
	case candidate.QueueLength == 0:
		score += 5
	case candidate.QueueLength < 5:
		score += 2
	}
	return math.Min(score, 20)
}

// filenameScore awards up to 15 points for artist and title words present
// in the remote path.
func filenameScore(candidate Candidate, ref trackinfo.Track) float64 {
	fileWords := textutil.Words(candidate.Filename)
	return wordOverlap(textutil.Words(ref.Artist), fileWords)*7.5 +
		wordOverlap(textutil.Words(ref.Title), fileWords)*7.5
}

func wordOverlap(want, have map[string]struct{}) float64 {
	if len(want) == 0 {
		return 0
	}
	matched := 0
	for word := range want {
		if _, ok := have[word]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
