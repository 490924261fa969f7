package inkwell

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/inkwellhq/inkwell/internal/connectivity"
)

// closeFlushTimeout bounds the final best-effort sync during Close.
const closeFlushTimeout = 10 * time.Second

// Client is the main entry point: an explicitly constructed service
// owning the local store, the sync engine and the connectivity probe.
// There is no shared global state; construct one per database.
type Client struct {
	store   *Store
	engine  *Engine
	monitor ConnectivityMonitor
	debug   *DebugLogger
	config  Config
	log     *slog.Logger
}

// New creates a new inkwell client. The local copy is usable immediately
// regardless of remote state; sync is best-effort in the background.
func New(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	debug := NewDebugLogger(cfg.Debug, cfg.DebugLogPath)

	st, err := NewStore(cfg.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	st.WithLogger(log)
	if cfg.Modes != nil {
		st.WithModes(*cfg.Modes)
	}

	// A client keeps its first identity for the lifetime of the store so
	// the remote can attribute changes consistently.
	if persisted, err := st.GetMetadata(metadataKeySourceID); err == nil && persisted != "" {
		cfg.SourceID = persisted
	} else {
		_ = st.SetMetadata(metadataKeySourceID, cfg.SourceID)
	}

	var remote RemoteClient
	var monitor ConnectivityMonitor
	if !cfg.IsOffline() {
		remote = NewHTTPRemote(cfg.ServerURL, cfg.APIKey, cfg.SourceID).WithDebugLogger(debug)
		probe := connectivity.NewProbe(cfg.ServerURL+"/api/v1/health", cfg.APIKey, cfg.ProbeInterval).WithLogger(log)
		probe.Start()
		monitor = probe
	}

	engine := NewEngine(st, remote, monitor).WithLogger(log)

	c := &Client{
		store:   st,
		engine:  engine,
		monitor: monitor,
		debug:   debug,
		config:  cfg,
		log:     log,
	}

	// Opportunistic startup sweep. Failure is logged, never fatal: the
	// tombstones just wait for the next start.
	if _, err := st.PurgeExpiredTombstones(context.Background(), TombstoneRetention); err != nil {
		log.Warn("tombstone purge failed", "error", err)
	}

	if cfg.AutoSync && monitor != nil {
		engine.Start()
	}

	_ = engine.RefreshPending(context.Background())

	return c, nil
}

// CreateNote persists a new local note. It always succeeds locally and
// is transmitted on the next sync.
func (c *Client) CreateNote(ctx context.Context, fields NoteFields) (*Note, error) {
	note, err := c.store.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	_ = c.engine.RefreshPending(ctx)
	return note, nil
}

// UpdateNote replaces a note's user-editable fields. Returns ErrNotFound
// (logged, nothing written) if the ID does not exist locally.
func (c *Client) UpdateNote(ctx context.Context, id string, fields NoteFields) (*Note, error) {
	note, err := c.store.Update(ctx, id, fields)
	if err != nil {
		if err == ErrNotFound {
			c.log.Warn("update target missing", "id", id)
		}
		return nil, err
	}
	_ = c.engine.RefreshPending(ctx)
	return note, nil
}

// DeleteNote tombstones a note. The deletion propagates on the next sync
// and the row is purged after the retention window.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	if err := c.store.SoftDelete(ctx, id); err != nil {
		if err == ErrNotFound {
			c.log.Warn("delete target missing", "id", id)
		}
		return err
	}
	_ = c.engine.RefreshPending(ctx)
	return nil
}

// ListNotes returns all visible notes, newest modification first.
func (c *Client) ListNotes(ctx context.Context) ([]Note, error) {
	return c.store.FetchVisible(ctx)
}

// GetNote retrieves a note by ID, including tombstones.
func (c *Client) GetNote(ctx context.Context, id string) (*Note, error) {
	return c.store.Get(ctx, id)
}

// SyncNow triggers a synchronization cycle. See Engine.SyncNow.
func (c *Client) SyncNow(ctx context.Context) error {
	return c.engine.SyncNow(ctx)
}

// Bootstrap pulls the full remote record set and merges it locally.
func (c *Client) Bootstrap(ctx context.Context) error {
	return c.engine.Bootstrap(ctx)
}

// Status returns the engine's observable state.
func (c *Client) Status() Status {
	return c.engine.Status()
}

// SubscribeStatus returns a channel receiving status snapshots on every
// engine state change.
func (c *Client) SubscribeStatus() <-chan Status {
	return c.engine.Subscribe()
}

// Stats returns local store statistics.
func (c *Client) Stats(ctx context.Context) (*StoreStats, error) {
	return c.store.Stats(ctx)
}

// PurgeTombstones runs the tombstone sweep with the standard retention.
func (c *Client) PurgeTombstones(ctx context.Context) (int, error) {
	return c.store.PurgeExpiredTombstones(ctx, TombstoneRetention)
}

// Close attempts a final sync of pending changes, then releases all
// resources. The flush is best-effort: failure never blocks shutdown.
func (c *Client) Close() error {
	if c.monitor != nil && c.monitor.Online() {
		ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
		if err := c.engine.SyncNow(ctx); err != nil {
			c.log.Warn("final sync on close failed", "error", err)
		}
		cancel()
	}

	_ = c.engine.Close()
	if c.monitor != nil {
		_ = c.monitor.Close()
	}
	_ = c.debug.Close()
	return c.store.Close()
}
