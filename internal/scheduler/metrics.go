package scheduler

import (
	"sync/atomic"
	"time"
)

type CycleMetrics struct {
	totalSent       int64
	totalFailed     int64
	totalSkipped    int64
	totalCycles     int64
	totalDurationNs int64
	lastResetNs     int64
}

func NewCycleMetrics() *CycleMetrics {
	return &CycleMetrics{
		lastResetNs: time.Now().UnixNano(),
	}
}

func (m *CycleMetrics) RecordSent(duration time.Duration) {
	atomic.AddInt64(&m.totalSent, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
}

func (m *CycleMetrics) RecordFailed(duration time.Duration) {
	atomic.AddInt64(&m.totalFailed, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
}

func (m *CycleMetrics) RecordSkippedCycle() {
	atomic.AddInt64(&m.totalSkipped, 1)
}

func (m *CycleMetrics) RecordCycle() {
	atomic.AddInt64(&m.totalCycles, 1)
}

func (m *CycleMetrics) GetStats() map[string]interface{} {
	sent := atomic.LoadInt64(&m.totalSent)
	failed := atomic.LoadInt64(&m.totalFailed)
	skipped := atomic.LoadInt64(&m.totalSkipped)
	cycles := atomic.LoadInt64(&m.totalCycles)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	lastResetNs := atomic.LoadInt64(&m.lastResetNs)

	elapsed := time.Since(time.Unix(0, lastResetNs)).Seconds()

	avgDuration := time.Duration(0)
	if sent+failed > 0 {
		avgDuration = time.Duration(durationNs / (sent + failed))
	}

	return map[string]interface{}{
		"total_sent":      sent,
		"total_failed":    failed,
		"skipped_cycles":  skipped,
		"total_cycles":    cycles,
		"avg_dispatch_ms": avgDuration.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}

func (m *CycleMetrics) Reset() {
	atomic.StoreInt64(&m.totalSent, 0)
	atomic.StoreInt64(&m.totalFailed, 0)
	atomic.StoreInt64(&m.totalSkipped, 0)
	atomic.StoreInt64(&m.totalCycles, 0)
	atomic.StoreInt64(&m.totalDurationNs, 0)
	atomic.StoreInt64(&m.lastResetNs, time.Now().UnixNano())
}
