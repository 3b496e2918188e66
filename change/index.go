package change

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Index owns the path → FileRecord map. All reads and writes run on a single
// goroutine, so directory scans and watcher events never race on the state.
//
// Every commit and removal carries a ticket taken before the file was read.
// A commit whose ticket is older than the last one applied to the same path is
// refused, so a slow scan cannot overwrite a newer watcher update.
type Index struct {
	ops       chan func(*state)
	done      chan struct{}
	closeOnce sync.Once
	tickets   atomic.Uint64
}

type state struct {
	records map[string]FileRecord
	applied map[string]uint64 // last ticket applied per path, kept after Forget
}

// NewIndex starts the goroutine that owns the records.
func NewIndex() *Index {
	idx := &Index{
		ops:  make(chan func(*state)),
		done: make(chan struct{}),
	}
	go idx.run()
	return idx
}

func (idx *Index) run() {
	st := &state{
		records: make(map[string]FileRecord),
		applied: make(map[string]uint64),
	}
	for {
		select {
		case op := <-idx.ops:
			op(st)
		case <-idx.done:
			return
		}
	}
}

// do runs op on the owner goroutine and waits for it.
// It reports false when the index has been closed.
func (idx *Index) do(op func(*state)) bool {
	select {
	case <-idx.done:
		return false
	default:
	}

	finished := make(chan struct{})
	wrapped := func(st *state) {
		defer close(finished)
		op(st)
	}
	select {
	case idx.ops <- wrapped:
		<-finished
		return true
	case <-idx.done:
		return false
	}
}

// Ticket returns a sequence number ordering observations of files. Take it
// before fingerprinting the file it will be committed with.
func (idx *Index) Ticket() uint64 {
	return idx.tickets.Add(1)
}

// Classify compares snapshot with the stored record for the same path.
func (idx *Index) Classify(snapshot FileRecord, force bool) Status {
	status := New
	idx.do(func(st *state) {
		previous, known := st.records[snapshot.Path]
		status = Classify(snapshot, previous, known, force)
	})
	return status
}

// Commit stores rec as the latest ingested state of its path.
func (idx *Index) Commit(rec FileRecord) {
	idx.CommitObserved(rec, idx.Ticket())
}

// CommitObserved stores rec unless a commit or removal with a later ticket has
// already been applied to its path. It reports whether rec was stored.
func (idx *Index) CommitObserved(rec FileRecord, ticket uint64) bool {
	stored := false
	idx.do(func(st *state) {
		if ticket < st.applied[rec.Path] {
			return
		}
		st.records[rec.Path] = rec
		st.applied[rec.Path] = ticket
		stored = true
	})
	return stored
}

// Forget drops the record for path. It reports whether a record existed.
// Commits holding a ticket taken before the call are refused afterwards.
func (idx *Index) Forget(path string) bool {
	ticket := idx.Ticket()
	existed := false
	idx.do(func(st *state) {
		_, existed = st.records[path]
		delete(st.records, path)
		st.applied[path] = ticket
	})
	return existed
}

// Get returns the stored record for path.
func (idx *Index) Get(path string) (FileRecord, bool) {
	var rec FileRecord
	var ok bool
	idx.do(func(st *state) {
		rec, ok = st.records[path]
	})
	return rec, ok
}

// Records returns a copy of all stored records sorted by path.
func (idx *Index) Records() []FileRecord {
	var all []FileRecord
	idx.do(func(st *state) {
		all = make([]FileRecord, 0, len(st.records))
		for _, rec := range st.records {
			all = append(all, rec)
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })
	return all
}

// Len returns the number of tracked files.
func (idx *Index) Len() int {
	n := 0
	idx.do(func(st *state) {
		n = len(st.records)
	})
	return n
}

// Close stops the owner goroutine. Calls after Close see an empty index.
func (idx *Index) Close() {
	idx.closeOnce.Do(func() {
		close(idx.done)
	})
}
