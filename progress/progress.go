// Package progress carries completion reports out of long-running
// computations.
package progress

import (
	"sync/atomic"
)

// Observer receives progress reports. Implementations must be safe for
// concurrent use; reports from parallel workers may arrive out of order.
type Observer interface {
	Progress(done, total int64)
}

// Func adapts a plain function to an Observer
type Func func(done, total int64)

func (f Func) Progress(done, total int64) { f(done, total) }

type multi []Observer

func (m multi) Progress(done, total int64) {
	for _, o := range m {
		o.Progress(done, total)
	}
}

// Multi fans reports out to every non-nil observer
func Multi(observers ...Observer) Observer {
	var m multi
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// Counter accumulates completed work from many goroutines and forwards a
// report each time roughly another 1% of the total has finished.
type Counter struct {
	obs      Observer
	total    int64
	step     int64
	done     atomic.Int64
	reported atomic.Int64
}

// NewCounter returns a counter over total units. A nil observer is allowed.
func NewCounter(obs Observer, total int64) *Counter {
	step := total / 100
	if step < 1 {
		step = 1
	}
	return &Counter{obs: obs, total: total, step: step}
}

// Add records n completed units
func (c *Counter) Add(n int64) {
	d := c.done.Add(n)
	if c.obs == nil {
		return
	}
	last := c.reported.Load()
	if d-last >= c.step && c.reported.CompareAndSwap(last, d) {
		c.obs.Progress(d, c.total)
	}
}

// Done sends a final report with the accumulated count unless Add already
// reported it. Call it once all workers have returned.
func (c *Counter) Done() {
	d := c.done.Load()
	if last := c.reported.Swap(d); last == d && d != 0 {
		return
	}
	if c.obs != nil {
		c.obs.Progress(d, c.total)
	}
}

// Completed returns the units recorded so far
func (c *Counter) Completed() int64 { return c.done.Load() }
