package music

import (
	"container/heap"
	"sync"
	"time"
)

// Clock runs fn once, roughly d from now, without blocking the caller.
type Clock interface {
	After(d time.Duration, fn func())
}

type RealClock struct{}

func (RealClock) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// FakeClock only moves when Advance is called. Callbacks run on the goroutine
// calling Advance, in deadline order.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending timerQueue
}

func (c *FakeClock) After(d time.Duration, fn func()) {
	c.mu.Lock()
	if d < 0 {
		d = 0
	}
	c.seq++
	heap.Push(&c.pending, &timer{at: c.now + d, seq: c.seq, fn: fn})
	c.mu.Unlock()
}

// Advance moves the clock forward by d, firing every callback due on the way,
// including the ones scheduled by earlier callbacks.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	end := c.now + d
	for len(c.pending) > 0 && c.pending[0].at <= end {
		t := heap.Pop(&c.pending).(*timer)
		c.now = t.at
		c.mu.Unlock()
		t.fn()
		c.mu.Lock()
	}
	c.now = end
	c.mu.Unlock()
}

func (c *FakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

type timer struct {
	at  time.Duration
	seq uint64
	fn  func()
}

type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }
func (q timerQueue) Less(i, j int) bool {
	if q[i].at == q[j].at {
		return q[i].seq < q[j].seq
	}
	return q[i].at < q[j].at
}
func (q timerQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *timerQueue) Push(x interface{}) { *q = append(*q, x.(*timer)) }
func (q *timerQueue) Pop() interface{} {
	old := *q
	t := old[len(old)-1]
	*q = old[:len(old)-1]
	return t
}
