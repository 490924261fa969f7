package inkwell

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ExportJSONL streams all visible notes to w, one JSON object per line,
// oldest creation first. Tombstones are not exported; they are a sync
// artifact, not user data. Returns the number of notes written.
func (s *Store) ExportJSONL(ctx context.Context, w io.Writer) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE is_deleted = 0
		ORDER BY created_at
	`)
	if err != nil {
		return 0, fmt.Errorf("store: export query: %w", err)
	}
	defer rows.Close()

	enc := json.NewEncoder(w)
	count := 0
	for rows.Next() {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		note, err := scanNoteFrom(rows)
		if err != nil {
			return count, err
		}
		if err := enc.Encode(note); err != nil {
			return count, fmt.Errorf("store: encode note %s: %w", note.ID, err)
		}
		count++
	}

	return count, rows.Err()
}

// ExportJSONL streams the client's visible notes as JSON lines.
func (c *Client) ExportJSONL(ctx context.Context, w io.Writer) (int, error) {
	return c.store.ExportJSONL(ctx, w)
}
