package inkwell

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// SyncStore is the slice of the local store the engine needs. *Store
// satisfies it; tests substitute fakes.
type SyncStore interface {
	FetchUnsynced(ctx context.Context) ([]Note, error)
	MergeFromServer(ctx context.Context, serverNotes []Note) error
	MarkSynced(ctx context.Context, notes []Note, syncedAt time.Time) error
	SetLastSync(at time.Time) error
}

// RemoteClient is the batch synchronization RPC against the remote
// authority.
//
// BatchSync must return exactly one resolved record per input ID: the
// remote accepts an incoming record when its logical clock is at least
// the stored one and echoes it back, otherwise it echoes its own stored
// version. FetchAll returns all non-deleted remote records for initial
// bootstrap.
type RemoteClient interface {
	BatchSync(ctx context.Context, notes []Note) ([]Note, error)
	FetchAll(ctx context.Context) ([]Note, error)
	Health(ctx context.Context) error
}

// ConnectivityMonitor produces a stream of online/offline transitions.
type ConnectivityMonitor interface {
	// Changes emits reachability transitions. Sends may be coalesced; a
	// slow consumer only ever misses intermediate flaps, never the final
	// state.
	Changes() <-chan bool

	// Online reports the last observed reachability.
	Online() bool

	Close() error
}

// Engine orchestrates synchronization: it decides when to sync, collapses
// the pending queue, drives the batch RPC, merges the resolved records
// and applies exponential backoff under failure. It is a single logical
// actor: at most one sync is in flight at a time, and triggers arriving
// during a sync are dropped.
type Engine struct {
	store   SyncStore
	remote  RemoteClient
	monitor ConnectivityMonitor
	log     *slog.Logger

	syncing atomic.Bool

	mu     sync.Mutex
	status Status
	subs   []chan Status

	backoffBase time.Duration
	maxRetries  int

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	started   bool
}

// NewEngine constructs an engine with injected dependencies. monitor may
// be nil for offline-only operation; remote may be nil, in which case
// every sync attempt short-circuits with ErrOffline.
func NewEngine(store SyncStore, remote RemoteClient, monitor ConnectivityMonitor) *Engine {
	e := &Engine{
		store:       store,
		remote:      remote,
		monitor:     monitor,
		log:         slog.New(slog.NewTextHandler(os.Stderr, nil)),
		backoffBase: DefaultBackoffBase,
		maxRetries:  MaxSyncRetries,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	if monitor != nil {
		e.status.Online = monitor.Online()
	}
	return e
}

// WithLogger sets the structured logger used by the engine.
func (e *Engine) WithLogger(log *slog.Logger) *Engine {
	if log != nil {
		e.log = log
	}
	return e
}

// WithBackoffBase overrides the backoff unit (for testing).
func (e *Engine) WithBackoffBase(d time.Duration) *Engine {
	e.backoffBase = d
	return e
}

// Start subscribes to connectivity transitions. Every offline-to-online
// edge triggers exactly one sync; edges arriving while a sync is in
// flight are coalesced by the at-most-one-in-flight rule.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	go e.watchConnectivity()
}

func (e *Engine) watchConnectivity() {
	defer close(e.done)

	if e.monitor == nil {
		<-e.stop
		return
	}

	wasOnline := e.monitor.Online()
	for {
		select {
		case <-e.stop:
			return
		case online, ok := <-e.monitor.Changes():
			if !ok {
				return
			}
			e.setStatus(func(st *Status) { st.Online = online })
			if online && !wasOnline {
				e.log.Info("connectivity restored, triggering sync")
				go func() {
					_ = e.SyncNow(context.Background())
				}()
			}
			wasOnline = online
		}
	}
}

// Status returns a snapshot of the engine's observable state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Subscribe returns a channel receiving status snapshots after every
// state change. The channel is buffered; a slow consumer drops
// intermediate snapshots but always receives a fresh one eventually.
func (e *Engine) Subscribe() <-chan Status {
	ch := make(chan Status, 8)
	e.mu.Lock()
	e.subs = append(e.subs, ch)
	e.mu.Unlock()
	return ch
}

func (e *Engine) setStatus(mutate func(*Status)) {
	e.mu.Lock()
	mutate(&e.status)
	snapshot := e.status
	subs := e.subs
	e.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// RefreshPending recomputes the pending-change count from the store and
// publishes it. Called after local mutations so the status surface stays
// accurate without a sync.
func (e *Engine) RefreshPending(ctx context.Context) error {
	pending, err := e.store.FetchUnsynced(ctx)
	if err != nil {
		return err
	}
	e.setStatus(func(st *Status) { st.PendingCount = len(pending) })
	return nil
}

// SyncNow runs one synchronization cycle.
//
// Offline, it recomputes the pending count and returns nil without
// contacting the remote. If a sync is already in flight it returns
// immediately. Otherwise it collapses the pending queue, pushes the batch,
// merges the resolved records and marks the batch synced. On failure it
// backs off exponentially and retries; once the retry budget is exhausted
// it surfaces a terminal failure, resets the counter and leaves the next
// attempt to a manual trigger. The engine is idle again when SyncNow
// returns, whatever the outcome.
func (e *Engine) SyncNow(ctx context.Context) error {
	select {
	case <-e.stop:
		return ErrEngineClosed
	default:
	}

	if e.remote == nil {
		return ErrOffline
	}

	if e.monitor != nil && !e.monitor.Online() {
		// No error: the local copy stays usable and the next
		// connectivity edge will retrigger us.
		if err := e.RefreshPending(ctx); err != nil {
			return err
		}
		e.setStatus(func(st *Status) { st.Online = false })
		return nil
	}

	if !e.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer e.syncing.Store(false)

	e.setStatus(func(st *Status) {
		st.Syncing = true
		st.LastError = ""
	})
	defer e.setStatus(func(st *Status) { st.Syncing = false })

	retry := 0
	for {
		err := e.attempt(ctx)
		if err == nil {
			now := time.Now().UTC()
			e.setStatus(func(st *Status) {
				st.RetryCount = 0
				st.LastSyncAt = now
			})
			return nil
		}

		retry++
		e.log.Warn("sync attempt failed", "retry", retry, "error", err)
		e.setStatus(func(st *Status) {
			st.RetryCount = retry
			st.LastError = err.Error()
		})

		if retry > e.maxRetries {
			msg := fmt.Sprintf("sync failed after %d attempts", e.maxRetries)
			e.setStatus(func(st *Status) {
				st.RetryCount = 0
				st.LastError = msg
			})
			return fmt.Errorf("%s: %w", msg, ErrSyncFailed)
		}

		// Backoff holds no store lock: local edits stay responsive
		// while we wait.
		wait := e.backoffBase << uint(retry)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-e.stop:
			timer.Stop()
			return ErrEngineClosed
		}
	}
}

// attempt runs a single push-merge-mark cycle.
func (e *Engine) attempt(ctx context.Context) error {
	pending, err := e.store.FetchUnsynced(ctx)
	if err != nil {
		return fmt.Errorf("fetch unsynced: %w", err)
	}

	if len(pending) == 0 {
		e.setStatus(func(st *Status) { st.PendingCount = 0 })
		return nil
	}

	// Latest fetched version per ID. MarkSynced guards on these logical
	// clocks, so an edit committed after this snapshot stays pending.
	marks := make([]Note, 0, len(pending))
	seen := make(map[string]int, len(pending))
	for _, n := range pending {
		if i, ok := seen[n.ID]; ok {
			if n.LastModifiedAt.After(marks[i].LastModifiedAt) {
				marks[i] = n
			}
			continue
		}
		seen[n.ID] = len(marks)
		marks = append(marks, n)
	}

	collapsed := Collapse(pending)
	now := time.Now().UTC()

	if len(collapsed) == 0 {
		// Everything cancelled out locally (created then deleted before
		// ever syncing). Nothing to transmit, but the local tombstones
		// stand and stop being pending.
		if err := e.store.MarkSynced(ctx, marks, now); err != nil {
			return fmt.Errorf("mark cancelled: %w", err)
		}
		if err := e.store.SetLastSync(now); err != nil {
			return fmt.Errorf("record last sync: %w", err)
		}
		e.setStatus(func(st *Status) { st.PendingCount = 0 })
		return nil
	}

	resolved, err := e.remote.BatchSync(ctx, collapsed)
	if err != nil {
		return err
	}

	if err := e.store.MergeFromServer(ctx, resolved); err != nil {
		return fmt.Errorf("merge resolved: %w", err)
	}

	// Mark the transmitted versions synced, plus the IDs collapse
	// dropped: their net change was "never existed" and the remote needs
	// nothing.
	if err := e.store.MarkSynced(ctx, marks, now); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	if err := e.store.SetLastSync(now); err != nil {
		return fmt.Errorf("record last sync: %w", err)
	}

	// Recompute rather than assume zero: edits made while the batch was
	// in flight are pending again.
	remaining, err := e.store.FetchUnsynced(ctx)
	if err != nil {
		return fmt.Errorf("recount pending: %w", err)
	}
	e.setStatus(func(st *Status) { st.PendingCount = len(remaining) })

	e.log.Info("sync complete", "pushed", len(collapsed), "resolved", len(resolved))
	return nil
}

// Bootstrap pulls the remote's full non-deleted record set and merges it
// locally through the normal merge rule. Intended for first run or a full
// refresh; local unsynced changes survive because merge is last-writer-wins.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if e.remote == nil {
		return ErrOffline
	}

	all, err := e.remote.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if err := e.store.MergeFromServer(ctx, all); err != nil {
		return fmt.Errorf("bootstrap merge: %w", err)
	}
	return e.RefreshPending(ctx)
}

// Close stops the connectivity watcher. In-flight backoff waits are
// released with ErrEngineClosed.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.stop)
		e.mu.Lock()
		started := e.started
		e.mu.Unlock()
		if started {
			<-e.done
		}
	})
	return nil
}
