package resource

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Progress counts processed items and reports at most once per interval.
type Progress struct {
	total  atomic.Int64
	every  rate.Sometimes
	report func(done int64)
}

// NewProgress returns a Progress that calls report with the running total at
// most once per interval. The first Add always reports.
func NewProgress(interval time.Duration, report func(done int64)) *Progress {
	return &Progress{
		every:  rate.Sometimes{First: 1, Interval: interval},
		report: report,
	}
}

// Add records n processed items.
func (p *Progress) Add(n int) {
	if p == nil {
		return
	}
	done := p.total.Add(int64(n))
	p.every.Do(func() { p.report(done) })
}

// Done returns the running total.
func (p *Progress) Done() int64 {
	if p == nil {
		return 0
	}
	return p.total.Load()
}
