package watcher

import (
	"testing"
	"time"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []DebouncedEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func Test_Debouncer_SingleEvent(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("guide.md", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch))
	}
	if batch[0].Path != "guide.md" {
		t.Errorf("expected path 'guide.md', got '%s'", batch[0].Path)
	}
	if batch[0].Op != OpWrite {
		t.Errorf("expected OpWrite, got %d", batch[0].Op)
	}
}

func Test_Debouncer_EventCollapsing(t *testing.T) {
	d := NewDebouncer(testInterval)

	// Add the same path twice; it should collapse to one event with the latest op
	d.Add("guide.md", OpCreate)
	d.Add("guide.md", OpWrite)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 event (collapsed), got %d", len(batch))
	}
	if batch[0].Op != OpWrite {
		t.Errorf("expected latest op OpWrite, got %d", batch[0].Op)
	}
}

func Test_Debouncer_MultiplePaths(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("guide.md", OpWrite)
	d.Add("notes.txt", OpCreate)
	d.Add("paper.pdf", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 3 {
		t.Fatalf("expected 3 events, got %d", len(batch))
	}

	// Batches arrive sorted by path
	expectedPaths := []string{"guide.md", "notes.txt", "paper.pdf"}
	for i, expected := range expectedPaths {
		if batch[i].Path != expected {
			t.Errorf("event[%d]: expected path '%s', got '%s'", i, expected, batch[i].Path)
		}
	}
}

func Test_Debouncer_TimerReset(t *testing.T) {
	d := NewDebouncer(testInterval)

	// Add first event
	d.Add("guide.md", OpWrite)

	// Wait less than the interval, then add another event; it should reset the timer
	time.Sleep(testInterval / 2)
	d.Add("notes.txt", OpWrite)

	// Both events should arrive in a single batch
	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 2 {
		t.Fatalf("expected 2 events in single batch, got %d", len(batch))
	}

	paths := make(map[string]bool)
	for _, e := range batch {
		paths[e.Path] = true
	}
	if !paths["guide.md"] || !paths["notes.txt"] {
		t.Errorf("expected both guide.md and notes.txt in batch, got: %v", batch)
	}
}

func Test_Debouncer_StopDropsPendingEvents(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("guide.md", OpWrite)
	d.Stop()
	d.Stop()

	select {
	case batch := <-d.Output():
		t.Fatalf("expected no batch after Stop, got %v", batch)
	case <-time.After(3 * testInterval):
	}
}

func Test_EventOp_String(t *testing.T) {
	ops := map[EventOp]string{OpCreate: "create", OpWrite: "write", OpRemove: "remove", OpRename: "rename", EventOp(42): "unknown"}
	for op, want := range ops {
		if got := op.String(); got != want {
			t.Errorf("EventOp(%d).String() = %q, want %q", int(op), got, want)
		}
	}
}

func Test_Debouncer_MaxDelayFlushesBusyPath(t *testing.T) {
	d := NewDebouncerWithMaxDelay(testInterval, 2*testInterval)
	defer d.Stop()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(testInterval / 5)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				d.Add("copy.pdf", OpWrite)
			}
		}
	}()

	// Without the cap the quiet interval never elapses while writes keep arriving
	batch := receiveBatch(t, d, 10*testInterval)
	if len(batch) != 1 || batch[0].Path != "copy.pdf" {
		t.Fatalf("expected one event for copy.pdf, got %v", batch)
	}
}

func Test_NewDebouncerWithMaxDelay_RaisesToInterval(t *testing.T) {
	d := NewDebouncerWithMaxDelay(testInterval, time.Millisecond)
	if d.maxDelay != testInterval {
		t.Errorf("expected max delay %v, got %v", testInterval, d.maxDelay)
	}
}
