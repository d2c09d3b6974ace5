package services

import (
	"sync"
	"time"
)

// AppliedRewardSample is one applied reward as seen by the in-process
// analytics sink.
type AppliedRewardSample struct {
	UserID           string    `json:"user_id"`
	ActivityID       string    `json:"activity_id"`
	Source           string    `json:"source"`
	SeasonalCredited int64     `json:"seasonal_credited"`
	CoreGain         int64     `json:"core_gain"`
	AppliedAt        time.Time `json:"applied_at"`
}

// AnalyticsBuffer is a bounded per-process ring buffer of recently applied
// rewards. It is a secondary sink only — the durable record is the reward
// event log, and in a horizontally-scaled deployment each process sees just
// its own slice of traffic.
type AnalyticsBuffer struct {
	mu    sync.Mutex
	buf   []AppliedRewardSample
	next  int
	count int
}

const DefaultAnalyticsCapacity = 512

func NewAnalyticsBuffer(capacity int) *AnalyticsBuffer {
	if capacity <= 0 {
		capacity = DefaultAnalyticsCapacity
	}
	return &AnalyticsBuffer{buf: make([]AppliedRewardSample, capacity)}
}

// Record stores a sample, overwriting the oldest once the buffer is full.
func (b *AnalyticsBuffer) Record(sample AppliedRewardSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf[b.next] = sample
	b.next = (b.next + 1) % len(b.buf)
	if b.count < len(b.buf) {
		b.count++
	}
}

// Recent returns up to n samples, newest first.
func (b *AnalyticsBuffer) Recent(n int) []AppliedRewardSample {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || n > b.count {
		n = b.count
	}
	out := make([]AppliedRewardSample, 0, n)
	for i := 1; i <= n; i++ {
		idx := (b.next - i + len(b.buf)) % len(b.buf)
		out = append(out, b.buf[idx])
	}
	return out
}

// Len returns the number of samples currently held.
func (b *AnalyticsBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
