package inkwell

import "time"

// Note is the unit of synchronization: a locally-owned record that is
// lazily reconciled with the remote authority.
type Note struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	ColorHex string `json:"color_hex,omitempty"`

	// IsDeleted marks a tombstone. Deleted notes are excluded from normal
	// reads but keep participating in sync until purged.
	IsDeleted bool `json:"is_deleted"`

	// IsSynced is true iff the local copy is known identical to the last
	// value the remote authority accepted for this ID.
	IsSynced bool `json:"is_synced"`

	// LastModifiedAt is the logical clock used for ordering and conflict
	// resolution. Set on every local mutation; never decreases for an ID
	// as observed by a single actor.
	LastModifiedAt time.Time `json:"last_modified_at"`

	CreatedAt time.Time `json:"created_at"`

	// SyncedAt records when the remote last accepted this note.
	// nil means the remote has never seen this ID, which is what allows
	// the collapse step to drop a create-then-delete entirely.
	SyncedAt *time.Time `json:"synced_at,omitempty"`
}

// NoteFields carries the user-editable fields for create and update.
// Updates replace the whole record; there is no field-level merge.
type NoteFields struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ColorHex string `json:"color_hex,omitempty"`
}

// Status is a snapshot of the sync engine's observable state. It is read
// by the presentation layer and never written by it.
type Status struct {
	Online       bool      `json:"online"`
	Syncing      bool      `json:"syncing"`
	LastSyncAt   time.Time `json:"last_sync_at"`
	PendingCount int       `json:"pending_count"`
	LastError    string    `json:"last_error,omitempty"`
	RetryCount   int       `json:"retry_count"`
}

// StoreStats contains statistics about the local store.
type StoreStats struct {
	NoteCount     int       `json:"note_count"`
	PendingSync   int       `json:"pending_sync"`
	LastSync      time.Time `json:"last_sync"`
	SchemaVersion string    `json:"schema_version"`
}

// ExecMode selects the execution context for a store mutation.
type ExecMode int

const (
	// ModeImmediate applies the mutation on the caller's goroutine so the
	// effect is visible to the very next read.
	ModeImmediate ExecMode = iota

	// ModeDeferred funnels the mutation through the store's background
	// writer. Used for server merges and cleanup, which are not
	// latency-sensitive and may run concurrently with foreground reads.
	ModeDeferred
)

// Sync policy constants.
const (
	// TombstoneRetention is how long a synced tombstone is kept before it
	// becomes eligible for physical purge.
	TombstoneRetention = 30 * 24 * time.Hour

	// MaxSyncRetries caps consecutive failed sync attempts before the
	// engine surfaces a terminal failure and waits for a manual trigger.
	MaxSyncRetries = 3

	// DefaultBackoffBase is the unit for exponential backoff between
	// retries: the engine waits base * 2^retry before trying again.
	DefaultBackoffBase = time.Second
)
