package inkwell

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inkwellhq/inkwell/internal/store/migrations"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// timeLayout is a fixed-width RFC 3339 variant with nanosecond precision.
// Fixed width keeps lexicographic comparison of stored timestamps
// consistent with chronological order, which the purge sweep relies on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Metadata keys used by the store.
const (
	metadataKeyLastSync = "last_sync"
	metadataKeySourceID = "source_id"
)

// ExecModes selects the execution context per mutation path. Updates and
// deletes default to the immediate context so the effect is visible on
// the very next read; creation, server merges and the purge sweep go
// through the deferred writer.
type ExecModes struct {
	Create ExecMode
	Update ExecMode
	Delete ExecMode
	Merge  ExecMode
	Purge  ExecMode
}

// DefaultExecModes mirrors the behavior interactive callers expect.
func DefaultExecModes() ExecModes {
	return ExecModes{
		Create: ModeDeferred,
		Update: ModeImmediate,
		Delete: ModeImmediate,
		Merge:  ModeDeferred,
		Purge:  ModeDeferred,
	}
}

// Store manages the local SQLite note database.
//
// All mutations are committed atomically. Immediate-mode mutations run on
// the caller's goroutine; deferred-mode mutations are serialized through
// a single background writer, and the caller still blocks until the
// commit so a subsequent read observes the change.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
	modes  ExecModes
	log    *slog.Logger

	jobs chan storeJob
	stop chan struct{}
	done chan struct{}
}

type storeJob struct {
	fn   func() error
	done chan error
}

// NewStore opens or creates a local note store.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets the deferred writer commit while foreground reads proceed.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{
		db:    db,
		path:  path,
		modes: DefaultExecModes(),
		log:   slog.New(slog.NewTextHandler(os.Stderr, nil)),
		jobs:  make(chan storeJob),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	go s.writerLoop()

	return s, nil
}

// WithModes overrides the execution context per mutation path.
func (s *Store) WithModes(m ExecModes) *Store {
	s.modes = m
	return s
}

// WithLogger sets the structured logger used by the store.
func (s *Store) WithLogger(log *slog.Logger) *Store {
	if log != nil {
		s.log = log
	}
	return s
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("store: run migrations: %w", err)
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)
	`, schemaVersion)
	return err
}

// writerLoop serializes deferred mutations. One writer means concurrent
// merges and purges can never interleave partial state.
func (s *Store) writerLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case job := <-s.jobs:
			job.done <- job.fn()
		}
	}
}

// run executes fn in the requested execution context. Deferred callers
// block until the background writer commits.
func (s *Store) run(ctx context.Context, mode ExecMode, fn func() error) error {
	if mode == ModeImmediate {
		return fn()
	}

	job := storeJob{fn: fn, done: make(chan error, 1)}
	select {
	case s.jobs <- job:
	case <-s.stop:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchVisible returns all non-deleted notes, newest modification first.
func (s *Store) FetchVisible(ctx context.Context) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE is_deleted = 0
		ORDER BY last_modified_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: fetch visible: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// FetchUnsynced returns all notes with pending local changes, tombstones
// included. Order is unspecified.
func (s *Store) FetchUnsynced(ctx context.Context) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE is_synced = 0
	`)
	if err != nil {
		return nil, fmt.Errorf("store: fetch unsynced: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// Get retrieves a note by ID, including tombstones.
func (s *Store) Get(ctx context.Context, id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	return s.getNote(ctx, s.db, id)
}

// rowQuerier abstracts single-row reads shared by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getNote(ctx context.Context, q rowQuerier, id string) (*Note, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes WHERE id = ?
	`, id)
	return scanNote(row)
}

// Create allocates a new note with a fresh ULID and persists it
// atomically. The note starts unsynced.
func (s *Store) Create(ctx context.Context, fields NoteFields) (*Note, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	note := Note{
		ID:             ulid.Make().String(),
		Title:          fields.Title,
		Content:        fields.Content,
		ColorHex:       fields.ColorHex,
		IsDeleted:      false,
		IsSynced:       false,
		LastModifiedAt: now,
		CreatedAt:      now,
	}

	err := s.run(ctx, s.modes.Create, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return ErrStoreClosed
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO notes (id, title, content, color_hex, is_deleted, is_synced, last_modified_at, created_at, synced_at)
			VALUES (?, ?, ?, ?, 0, 0, ?, ?, NULL)
		`,
			note.ID,
			note.Title,
			note.Content,
			note.ColorHex,
			note.LastModifiedAt.Format(timeLayout),
			note.CreatedAt.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("store: insert note: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &note, nil
}

// Update replaces the user-editable fields of an existing note, advances
// its logical clock and marks it unsynced. Returns ErrNotFound without
// writing anything if the ID does not exist locally.
func (s *Store) Update(ctx context.Context, id string, fields NoteFields) (*Note, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var updated *Note
	err := s.run(ctx, s.modes.Update, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return ErrStoreClosed
		}

		current, err := s.getNote(ctx, s.db, id)
		if err != nil {
			return err
		}

		now := s.nextClock(current.LastModifiedAt)
		_, err = s.db.ExecContext(ctx, `
			UPDATE notes
			SET title = ?, content = ?, color_hex = ?, last_modified_at = ?, is_synced = 0
			WHERE id = ?
		`, fields.Title, fields.Content, fields.ColorHex, now.Format(timeLayout), id)
		if err != nil {
			return fmt.Errorf("store: update note: %w", err)
		}

		current.Title = fields.Title
		current.Content = fields.Content
		current.ColorHex = fields.ColorHex
		current.LastModifiedAt = now
		current.IsSynced = false
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDelete tombstones a note. The row stays in place and keeps
// participating in sync until the tombstone is purged.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	return s.run(ctx, s.modes.Delete, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return ErrStoreClosed
		}

		current, err := s.getNote(ctx, s.db, id)
		if err != nil {
			return err
		}

		now := s.nextClock(current.LastModifiedAt)
		_, err = s.db.ExecContext(ctx, `
			UPDATE notes
			SET is_deleted = 1, last_modified_at = ?, is_synced = 0
			WHERE id = ?
		`, now.Format(timeLayout), id)
		if err != nil {
			return fmt.Errorf("store: soft delete: %w", err)
		}
		return nil
	})
}

// MergeFromServer applies resolved server records to the local store
// using last-writer-wins, mirroring the remote's own policy so that
// re-applying the same batch is a no-op.
//
// Per incoming record:
//   - no local match: insert the server record as-is, marked synced;
//   - local tombstone newer than the server record: keep the tombstone,
//     so a pending delete is never resurrected by a stale payload;
//   - server strictly newer: overwrite local fields and mark synced;
//   - otherwise local is at least as fresh: leave it untouched.
//
// Each record commits in its own transaction, so foreground readers never
// observe a partially-applied record.
func (s *Store) MergeFromServer(ctx context.Context, serverNotes []Note) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if len(serverNotes) == 0 {
		return nil
	}

	return s.run(ctx, s.modes.Merge, func() error {
		for _, sn := range serverNotes {
			if err := s.mergeOne(ctx, sn); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) mergeOne(ctx context.Context, sn Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin merge: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	local, err := s.getNote(ctx, tx, sn.ID)
	syncedAt := time.Now().UTC()

	switch {
	case err == ErrNotFound:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notes (id, title, content, color_hex, is_deleted, is_synced, last_modified_at, created_at, synced_at)
			VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)
		`,
			sn.ID,
			sn.Title,
			sn.Content,
			sn.ColorHex,
			boolToInt(sn.IsDeleted),
			sn.LastModifiedAt.UTC().Format(timeLayout),
			sn.CreatedAt.UTC().Format(timeLayout),
			syncedAt.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("store: merge insert %s: %w", sn.ID, err)
		}

	case err != nil:
		return err

	case local.IsDeleted && local.LastModifiedAt.After(sn.LastModifiedAt):
		// A later local delete must not be resurrected by a stale
		// server payload.
		return nil

	case sn.LastModifiedAt.After(local.LastModifiedAt):
		_, err = tx.ExecContext(ctx, `
			UPDATE notes
			SET title = ?, content = ?, color_hex = ?, is_deleted = ?, is_synced = 1, last_modified_at = ?, synced_at = ?
			WHERE id = ?
		`,
			sn.Title,
			sn.Content,
			sn.ColorHex,
			boolToInt(sn.IsDeleted),
			sn.LastModifiedAt.UTC().Format(timeLayout),
			syncedAt.Format(timeLayout),
			sn.ID,
		)
		if err != nil {
			return fmt.Errorf("store: merge overwrite %s: %w", sn.ID, err)
		}

	default:
		// Local is at least as fresh.
		return nil
	}

	return tx.Commit()
}

// MarkSynced records that the remote accepted the given note versions.
// A row only flips to synced while its logical clock is still at or
// below the accepted version's, so an edit committed while the batch
// was in flight stays pending. Other fields are left untouched.
// Idempotent.
func (s *Store) MarkSynced(ctx context.Context, notes []Note, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if len(notes) == 0 {
		return nil
	}

	at := syncedAt.UTC().Format(timeLayout)
	for _, n := range notes {
		_, err := s.db.ExecContext(ctx, `
			UPDATE notes SET is_synced = 1, synced_at = ?
			WHERE id = ? AND last_modified_at <= ?
		`, at, n.ID, n.LastModifiedAt.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("store: mark synced %s: %w", n.ID, err)
		}
	}
	return nil
}

// PurgeExpiredTombstones physically deletes synced tombstones older than
// the retention window. Unsynced tombstones are never purged, regardless
// of age: they carry a pending delete the remote has not seen yet.
// Returns the number of rows removed.
func (s *Store) PurgeExpiredTombstones(ctx context.Context, retention time.Duration) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var purged int
	err := s.run(ctx, s.modes.Purge, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return ErrStoreClosed
		}

		cutoff := time.Now().UTC().Add(-retention).Format(timeLayout)
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM notes
			WHERE is_deleted = 1 AND is_synced = 1 AND last_modified_at < ?
		`, cutoff)
		if err != nil {
			return fmt.Errorf("store: purge tombstones: %w", err)
		}
		n, _ := res.RowsAffected()
		purged = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		s.log.Info("purged expired tombstones", "count", purged)
	}
	return purged, nil
}

// Stats returns store statistics.
func (s *Store) Stats(ctx context.Context) (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes WHERE is_deleted = 0").Scan(&count); err != nil {
		return nil, err
	}

	var pending int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes WHERE is_synced = 0").Scan(&pending); err != nil {
		return nil, err
	}

	var lastSyncStr sql.NullString
	_ = s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", metadataKeyLastSync).Scan(&lastSyncStr)

	var lastSync time.Time
	if lastSyncStr.Valid {
		lastSync, _ = time.Parse(timeLayout, lastSyncStr.String)
	}

	return &StoreStats{
		NoteCount:     count,
		PendingSync:   pending,
		LastSync:      lastSync,
		SchemaVersion: schemaVersion,
	}, nil
}

// GetMetadata reads a metadata value. Returns "" if the key is unset.
func (s *Store) GetMetadata(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata writes a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// SetLastSync records the timestamp of the last successful sync.
func (s *Store) SetLastSync(at time.Time) error {
	return s.SetMetadata(metadataKeyLastSync, at.UTC().Format(timeLayout))
}

// Close stops the deferred writer and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done

	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// nextClock returns the current time, nudged forward if the wall clock
// has not advanced past the note's previous modification. The logical
// clock must never decrease for an ID as observed by this actor.
func (s *Store) nextClock(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

const noteColumns = `id, title, content, color_hex, is_deleted, is_synced, last_modified_at, created_at, synced_at`

// scanner abstracts the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNoteFrom(sc scanner) (*Note, error) {
	var (
		note           Note
		isDeleted      int
		isSynced       int
		lastModifiedAt string
		createdAt      string
		syncedAt       sql.NullString
	)

	err := sc.Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.ColorHex,
		&isDeleted,
		&isSynced,
		&lastModifiedAt,
		&createdAt,
		&syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	note.IsDeleted = isDeleted != 0
	note.IsSynced = isSynced != 0
	note.LastModifiedAt, _ = time.Parse(timeLayout, lastModifiedAt)
	note.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if syncedAt.Valid {
		t, _ := time.Parse(timeLayout, syncedAt.String)
		note.SyncedAt = &t
	}

	return &note, nil
}

func scanNote(row *sql.Row) (*Note, error) {
	return scanNoteFrom(row)
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	var results []Note
	for rows.Next() {
		note, err := scanNoteFrom(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *note)
	}
	return results, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
