package logging

import "sync"

// ProgressSampler thins per-item progress lines in batch runs so a line is
// emitted only when completion crosses into a new percentage bucket. It is
// safe for concurrent use.
type ProgressSampler struct {
	mu         sync.Mutex
	bucketSize float64
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent (default 10%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether finishing done of total items should be logged.
// The last item always logs.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil || total <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if done >= total {
		s.lastBucket = int(100 / s.bucketSize)
		return true
	}
	bucket := int(Percent(done, total) / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		return true
	}
	return false
}

// Percent returns done/total as a percentage, or 0 when total is zero.
func Percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) * 100 / float64(total)
}
