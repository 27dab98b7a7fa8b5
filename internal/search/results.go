package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"stylus/internal/slskd"
)

// Candidate is one downloadable file offered by a peer, flattened from the
// slskd response structure so the filter and scorer can treat uploader
// context (slots, speed, queue) as per-file attributes.
type Candidate struct {
	Username        string `json:"username"`
	Filename        string `json:"filename"`
	Size            int64  `json:"size"`
	Extension       string `json:"extension"`
	BitRate         int    `json:"bit_rate,omitempty"`
	BitDepth        int    `json:"bit_depth,omitempty"`
	SampleRate      int    `json:"sample_rate,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	HasFreeSlot     bool   `json:"has_free_slot"`
	UploadSpeed     int64  `json:"upload_speed"`
	QueueLength     int    `json:"queue_length"`
}

// CandidatesFromResponses flattens peer responses into candidates.
func CandidatesFromResponses(responses []slskd.Response) []Candidate {
	var candidates []Candidate
	for _, response := range responses {
		for _, file := range response.Files {
			candidates = append(candidates, Candidate{
				Username:        response.Username,
				Filename:        file.Filename,
				Size:            file.Size,
				Extension:       file.Extension(),
				BitRate:         file.BitRate,
				BitDepth:        file.BitDepth,
				SampleRate:      file.SampleRate,
				DurationSeconds: file.Length,
				HasFreeSlot:     response.HasFreeUploadSlot,
				UploadSpeed:     response.UploadSpeed,
				QueueLength:     response.QueueLength,
			})
		}
	}
	return candidates
}

// BaseName extracts the file name from the full remote path.
func (c Candidate) BaseName() string {
	name := c.Filename
	if idx := strings.LastIndexAny(name, "\\/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// DurationDisplay renders the candidate duration as M:SS, or ?:?? when the
// peer did not report one.
func (c Candidate) DurationDisplay() string {
	if c.DurationSeconds <= 0 {
		return "?:??"
	}
	return fmt.Sprintf("%d:%02d", c.DurationSeconds/60, c.DurationSeconds%60)
}

// QualityDisplay summarizes the declared audio attributes for humans.
func (c Candidate) QualityDisplay() string {
	parts := make([]string, 0, 3)
	if c.BitDepth > 0 && c.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%d/%.1fkHz", c.BitDepth, float64(c.SampleRate)/1000))
	} else if c.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%.1fkHz", float64(c.SampleRate)/1000))
	}
	if c.BitRate > 0 {
		parts = append(parts, fmt.Sprintf("%dkbps", c.BitRate))
	}
	if ext := strings.ToUpper(c.Extension); ext != "" {
		parts = append(parts, ext)
	}
	if len(parts) == 0 {
		return "unknown quality"
	}
	return strings.Join(parts, " ")
}

// SizeDisplay renders the file size for humans.
func (c Candidate) SizeDisplay() string {
	return humanize.Bytes(uint64(c.Size))
}

// Scored is a candidate with its score breakdown and final rank position.
type Scored struct {
	Candidate
	DurationScore    float64 `json:"duration_score"`
	QualityScore     float64 `json:"quality_score"`
	ReliabilityScore float64 `json:"reliability_score"`
	FilenameScore    float64 `json:"filename_score"`
	Total            float64 `json:"total"`
	Rank             int     `json:"rank"`
}

// Encode serializes the scored candidate for queue storage.
func (s Scored) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode candidate: %w", err)
	}
	return string(data), nil
}

// DecodeScored parses a stored candidate selection.
func DecodeScored(raw string) (Scored, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Scored{}, errors.New("no candidate recorded")
	}
	var scored Scored
	if err := json.Unmarshal([]byte(raw), &scored); err != nil {
		return Scored{}, fmt.Errorf("decode candidate: %w", err)
	}
	return scored, nil
}

// SearchOutcome summarizes one pipeline run across tiers for logs, metrics,
// and the stored result set.
type SearchOutcome struct {
	TiersTried    []Tier        `json:"tiers_tried"`
	QueriesTried  int           `json:"queries_tried"`
	WinningTier   Tier          `json:"winning_tier,omitempty"`
	WinningQuery  string        `json:"winning_query,omitempty"`
	RawCount      int           `json:"raw_count"`
	FilteredCount int           `json:"filtered_count"`
	RankedCount   int           `json:"ranked_count"`
	Fallback      bool          `json:"fallback,omitempty"`
	Elapsed       time.Duration `json:"-"`
	ElapsedMS     int64         `json:"elapsed_ms"`
}

// ResultSet is the ranked outcome of one search run, persisted on the queue
// item so selection and download retries survive daemon restarts.
type ResultSet struct {
	Query      string        `json:"query"`
	Tier       Tier          `json:"tier"`
	Fallback   bool          `json:"fallback,omitempty"`
	Candidates []Scored      `json:"candidates"`
	Outcome    SearchOutcome `json:"outcome"`
	SearchedAt time.Time     `json:"searched_at"`
}

// Encode serializes the result set for queue storage.
func (r *ResultSet) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode result set: %w", err)
	}
	return string(data), nil
}

// DecodeResultSet parses a stored result set.
func DecodeResultSet(raw string) (*ResultSet, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("no search results recorded")
	}
	var set ResultSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return nil, fmt.Errorf("decode result set: %w", err)
	}
	return &set, nil
}

// Best returns the top-ranked candidate.
func (r *ResultSet) Best() (Scored, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return Scored{}, false
	}
	return r.Candidates[0], true
}

// CandidateAt returns the candidate at a zero-based rank offset, used by the
// download stage to walk down the list on retries.
func (r *ResultSet) CandidateAt(index int) (Scored, bool) {
	if r == nil || index < 0 || index >= len(r.Candidates) {
		return Scored{}, false
	}
	return r.Candidates[index], true
}
