package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests    uint64
	clientErrors     uint64
	serverErrors     uint64
	rateLimited      uint64
	totalDurationMs  uint64
	payrollRuns      uint64
	payrollWorkLogs  uint64
	worklogsRecorded uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	switch {
	case status == 429:
		atomic.AddUint64(&c.rateLimited, 1)
	case status >= 500:
		atomic.AddUint64(&c.serverErrors, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(max(duration.Milliseconds(), 0)))
}

// RecordPayroll counts one payroll aggregation and the work-log entries it read.
func (c *Collector) RecordPayroll(entries int) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.payrollRuns, 1)
	atomic.AddUint64(&c.payrollWorkLogs, uint64(max(entries, 0)))
}

func (c *Collector) RecordWorkLogs(count int) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.worklogsRecorded, uint64(max(count, 0)))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":         total,
		"clientErrorsTotal":     atomic.LoadUint64(&c.clientErrors),
		"serverErrorsTotal":     atomic.LoadUint64(&c.serverErrors),
		"rateLimitedTotal":      atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":         avg,
		"totalDurationMs":       totalMs,
		"payrollRunsTotal":      atomic.LoadUint64(&c.payrollRuns),
		"payrollWorkLogsTotal":  atomic.LoadUint64(&c.payrollWorkLogs),
		"worklogsRecordedTotal": atomic.LoadUint64(&c.worklogsRecorded),
	}
}
