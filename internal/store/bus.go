package store

import "sync"

// ChangeKind names the collection a Change touched.
type ChangeKind string

const (
	ChangeLoad     ChangeKind = "load"
	ChangeProject  ChangeKind = "project"
	ChangeTask     ChangeKind = "task"
	ChangeSubTask  ChangeKind = "subtask"
	ChangeActivity ChangeKind = "activity"
	ChangeProfile  ChangeKind = "profile"
	ChangeSync     ChangeKind = "sync"
	ChangeReset    ChangeKind = "reset"
)

// Change is sent to subscribers after every local state transition.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Op   string     `json:"op,omitempty"` // create, update, delete, reconcile, refresh
	ID   string     `json:"id,omitempty"`
}

// bus fans out changes to subscribers without blocking the store.
type bus struct {
	mu   sync.RWMutex
	subs map[chan Change]struct{}
}

func newBus() *bus {
	return &bus{subs: make(map[chan Change]struct{})}
}

func (b *bus) publish(c Change) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
			// subscriber is behind; drop rather than stall a mutation
		}
	}
	b.mu.RUnlock()
}

func (b *bus) subscribe() chan Change {
	ch := make(chan Change, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *bus) unsubscribe(ch chan Change) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *bus) closeAll() {
	b.mu.Lock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
