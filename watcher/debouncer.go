package watcher

import (
	"sort"
	"sync"
	"time"
)

// DebouncedEvent is the last operation seen for a path during one quiet period.
type DebouncedEvent struct {
	Path string
	Op   EventOp
}

// EventOp is the kind of change reported for a path.
type EventOp int

const (
	OpCreate EventOp = iota
	OpWrite
	OpRemove
	OpRename
)

func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	}
	return "unknown"
}

// Debouncer coalesces events per path and emits them as one sorted batch once no new
// event has arrived for the quiet interval. A batch is never held back longer than
// maxDelay after its first event, so a document that is written continuously (a large
// PDF being copied in) is still picked up.
type Debouncer struct {
	interval time.Duration
	maxDelay time.Duration

	mu       sync.Mutex
	pending  map[string]EventOp
	first    time.Time // arrival of the oldest pending event
	timer    *time.Timer
	output   chan []DebouncedEvent
	done     chan struct{}
	stopOnce sync.Once
}

// NewDebouncer creates a debouncer with the given quiet interval and a max delay of
// ten intervals.
func NewDebouncer(interval time.Duration) *Debouncer {
	return NewDebouncerWithMaxDelay(interval, 10*interval)
}

// NewDebouncerWithMaxDelay creates a debouncer whose batches are flushed at most
// maxDelay after their first event. A maxDelay below interval is raised to interval.
func NewDebouncerWithMaxDelay(interval, maxDelay time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		maxDelay: max(maxDelay, interval),
		pending:  make(map[string]EventOp),
		output:   make(chan []DebouncedEvent, 16),
		done:     make(chan struct{}),
	}
}

// Output returns the channel that receives batches.
func (d *Debouncer) Output() <-chan []DebouncedEvent {
	return d.output
}

// Add records op for path, replacing any earlier op for the same path.
func (d *Debouncer) Add(path string, op EventOp) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if len(d.pending) == 0 {
		d.first = now
	}
	d.pending[path] = op

	wait := d.interval
	if deadline := d.first.Add(d.maxDelay); now.Add(wait).After(deadline) {
		wait = max(deadline.Sub(now), 0)
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(wait, d.flush)
}

// Stop cancels any pending flush. Events added afterwards are never delivered.
func (d *Debouncer) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.timer != nil {
			d.timer.Stop()
		}
	})
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]DebouncedEvent, 0, len(d.pending))
	for path, op := range d.pending {
		batch = append(batch, DebouncedEvent{Path: path, Op: op})
	}
	d.pending = make(map[string]EventOp)
	d.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	select {
	case d.output <- batch:
	case <-d.done:
	}
}
