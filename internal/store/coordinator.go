package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncState is how far a record's remote writes have got.
type SyncState int

const (
	SyncUnknown   SyncState = iota // no write was issued for this id
	SyncPending                    // at least one write is in flight
	SyncConfirmed                  // the latest completed write succeeded
	SyncFailed                     // the latest completed write failed
)

func (s SyncState) String() string {
	switch s {
	case SyncPending:
		return "pending"
	case SyncConfirmed:
		return "confirmed"
	case SyncFailed:
		return "failed"
	}
	return "unknown"
}

// MarshalText renders the state by name in JSON.
func (s SyncState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const tempPrefix = "tmp-"

func newTempID() string { return tempPrefix + uuid.NewString() }

// IsTemporary reports whether id was assigned locally and not yet replaced by
// a server id.
func IsTemporary(id string) bool { return strings.HasPrefix(id, tempPrefix) }

// idTable tracks locally created records until the server assigns their id.
// Temporary ids stay resolvable after reconciliation so callers holding them
// keep working.
type idTable struct {
	mu      sync.Mutex
	entries map[string]*idEntry
}

type idEntry struct {
	done     chan struct{}
	settled  bool
	serverID string
	err      error
}

func newIDTable() *idTable {
	return &idTable{entries: make(map[string]*idEntry)}
}

func (t *idTable) reserve(tmp string) {
	t.mu.Lock()
	t.entries[tmp] = &idEntry{done: make(chan struct{})}
	t.mu.Unlock()
}

func (t *idTable) settle(tmp, serverID string) {
	t.finish(tmp, serverID, nil)
}

func (t *idTable) fail(tmp string, err error) {
	t.finish(tmp, "", err)
}

func (t *idTable) finish(tmp, serverID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[tmp]
	if !ok || e.settled {
		return
	}
	e.settled = true
	e.serverID = serverID
	e.err = err
	close(e.done)
}

// resolve maps a temporary id to its server id once known. Any other id is
// returned unchanged.
func (t *idTable) resolve(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok && e.settled && e.err == nil {
		return e.serverID
	}
	return id
}

// await blocks until the creation of id has finished and returns the server
// id. Ids that were never temporary return immediately.
func (t *idTable) await(ctx context.Context, id string) (string, error) {
	t.mu.Lock()
	e, ok := t.entries[id]
	t.mu.Unlock()
	if !ok {
		return id, nil
	}
	select {
	case <-e.done:
	case <-ctx.Done():
		return "", fmt.Errorf("await %s: %w", id, ctx.Err())
	}
	if e.err != nil {
		return "", fmt.Errorf("%w: %s: %v", errCreationFailed, id, e.err)
	}
	return e.serverID, nil
}

// reset forgets every entry. Waiters already blocked keep their entry.
func (t *idTable) reset() {
	t.mu.Lock()
	t.entries = make(map[string]*idEntry)
	t.mu.Unlock()
}

// coordinator runs remote writes off the caller's goroutine and records the
// outcome per record id.
type coordinator struct {
	ctx     context.Context
	timeout time.Duration
	log     *zap.Logger
	notify  func(id string)

	wg sync.WaitGroup

	mu      sync.Mutex
	seq     uint64
	states  map[string]*syncEntry
	aliases map[string]string
}

// syncEntry counts in-flight writes for one id. The result of the most
// recently issued write that has completed decides failed.
type syncEntry struct {
	pending   int
	resultSeq uint64
	failed    bool
}

func newCoordinator(ctx context.Context, timeout time.Duration, log *zap.Logger, notify func(string)) *coordinator {
	return &coordinator{
		ctx:     ctx,
		timeout: timeout,
		log:     log,
		notify:  notify,
		states:  make(map[string]*syncEntry),
		aliases: make(map[string]string),
	}
}

// run marks id pending and executes fn on a new goroutine. fn receives a
// context bounded by the write timeout and cancelled by Close. An empty id
// runs fn without sync state, for writes nothing ever looks up.
func (c *coordinator) run(op, id string, fn func(ctx context.Context) error) {
	var seq uint64
	if id != "" {
		seq = c.begin(id)
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()

		err := fn(ctx)
		if id == "" {
			if err != nil {
				c.log.Warn("remote write failed", zap.String("op", op), zap.Error(err))
			}
			return
		}
		key := c.end(id, seq, err)
		if err != nil {
			c.log.Warn("remote write failed", zap.String("op", op), zap.String("id", key), zap.Error(err))
		} else {
			c.log.Debug("remote write ok", zap.String("op", op), zap.String("id", key))
		}
		if c.notify != nil {
			c.notify(key)
		}
	}()
}

func (c *coordinator) begin(id string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	e := c.entry(id)
	e.pending++
	return c.seq
}

// end records the outcome of write seq and returns the id it was filed
// under, which is the server id if the record was reconciled meanwhile.
func (c *coordinator) end(id string, seq uint64, err error) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id = c.key(id)
	e := c.entry(id)
	if e.pending > 0 {
		e.pending--
	}
	if seq >= e.resultSeq {
		e.resultSeq = seq
		e.failed = err != nil
	}
	return id
}

func (c *coordinator) key(id string) string {
	if to, ok := c.aliases[id]; ok {
		return to
	}
	return id
}

func (c *coordinator) entry(id string) *syncEntry {
	id = c.key(id)
	e, ok := c.states[id]
	if !ok {
		e = &syncEntry{}
		c.states[id] = e
	}
	return e
}

// rename moves the sync record of a temporary id to its server id.
func (c *coordinator) rename(tmp, serverID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[tmp] = serverID
	old, ok := c.states[tmp]
	if !ok {
		return
	}
	delete(c.states, tmp)
	if cur, ok := c.states[serverID]; ok {
		cur.pending += old.pending
		if old.resultSeq > cur.resultSeq {
			cur.resultSeq = old.resultSeq
			cur.failed = old.failed
		}
		return
	}
	c.states[serverID] = old
}

func (c *coordinator) state(id string) SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.states[c.key(id)]
	switch {
	case !ok:
		return SyncUnknown
	case e.pending > 0:
		return SyncPending
	case e.failed:
		return SyncFailed
	}
	return SyncConfirmed
}

func (c *coordinator) forget() {
	c.mu.Lock()
	c.states = make(map[string]*syncEntry)
	c.aliases = make(map[string]string)
	c.mu.Unlock()
}

func (c *coordinator) wait() { c.wg.Wait() }
