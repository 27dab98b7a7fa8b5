package logging

import "strings"

// ProgressSampler thins out transfer-progress logs. slskd reports progress
// many times per second; without sampling a single download floods the log.
type ProgressSampler struct {
	bucketSize float64
	lastStage  string
	lastBucket int
}

// NewProgressSampler returns a sampler that lets a record through when the
// stage label changes or the percentage crosses into a new bucket. Bucket
// width defaults to 5 percent.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether this progress event is worth a log line. Negative
// percent means unknown. The message is ignored when deciding, since it tends
// to carry volatile detail like transfer speed.
func (s *ProgressSampler) ShouldLog(percent float64, stage, message string) bool {
	if s == nil {
		return true
	}
	emit := false
	if stage = strings.TrimSpace(stage); stage != "" && stage != s.lastStage {
		s.lastStage = stage
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		if bucket := s.bucketFor(percent); bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

func (s *ProgressSampler) bucketFor(percent float64) int {
	if percent >= 100 {
		return int(100 / s.bucketSize)
	}
	return int(percent / s.bucketSize)
}

// Reset clears sampler state, typically when a new transfer begins.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastStage = ""
	s.lastBucket = -1
}
