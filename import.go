package inkwell

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ImportResult summarizes an import operation.
type ImportResult struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Merged  int      `json:"merged"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// maxImportLine bounds a single JSONL record.
const maxImportLine = 1 << 20

// ImportJSONL reads one note per line and applies it to the store using
// last-writer-wins against any existing local version. Imported notes
// enter as pending local changes so they propagate on the next sync.
// Malformed lines are recorded in the result, not fatal.
func (s *Store) ImportJSONL(ctx context.Context, r io.Reader) (*ImportResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxImportLine)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		result.Total++

		var note Note
		if err := json.Unmarshal([]byte(text), &note); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if note.ID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: missing id", line))
			continue
		}
		if note.LastModifiedAt.IsZero() {
			note.LastModifiedAt = time.Now().UTC()
		}
		if note.CreatedAt.IsZero() {
			note.CreatedAt = note.LastModifiedAt
		}

		outcome, err := s.importOne(ctx, note)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		switch outcome {
		case importCreated:
			result.Created++
		case importMerged:
			result.Merged++
		case importSkipped:
			result.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("store: read import stream: %w", err)
	}

	return result, nil
}

type importOutcome int

const (
	importCreated importOutcome = iota
	importMerged
	importSkipped
)

func (s *Store) importOne(ctx context.Context, note Note) (importOutcome, error) {
	outcome := importSkipped
	err := s.run(ctx, s.modes.Merge, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return ErrStoreClosed
		}

		local, err := s.getNote(ctx, s.db, note.ID)
		switch {
		case err == ErrNotFound:
			_, err := s.db.ExecContext(ctx, `
				INSERT INTO notes (id, title, content, color_hex, is_deleted, is_synced, last_modified_at, created_at, synced_at)
				VALUES (?, ?, ?, ?, ?, 0, ?, ?, NULL)
			`,
				note.ID,
				note.Title,
				note.Content,
				note.ColorHex,
				boolToInt(note.IsDeleted),
				note.LastModifiedAt.UTC().Format(timeLayout),
				note.CreatedAt.UTC().Format(timeLayout),
			)
			if err != nil {
				return fmt.Errorf("insert: %w", err)
			}
			outcome = importCreated
			return nil

		case err != nil:
			return err

		case note.LastModifiedAt.After(local.LastModifiedAt):
			_, err := s.db.ExecContext(ctx, `
				UPDATE notes
				SET title = ?, content = ?, color_hex = ?, is_deleted = ?, is_synced = 0, last_modified_at = ?
				WHERE id = ?
			`,
				note.Title,
				note.Content,
				note.ColorHex,
				boolToInt(note.IsDeleted),
				note.LastModifiedAt.UTC().Format(timeLayout),
				note.ID,
			)
			if err != nil {
				return fmt.Errorf("merge: %w", err)
			}
			outcome = importMerged
			return nil

		default:
			outcome = importSkipped
			return nil
		}
	})
	if err != nil {
		return importSkipped, err
	}
	return outcome, nil
}

// ImportJSONL applies JSON lines to the client's store.
func (c *Client) ImportJSONL(ctx context.Context, r io.Reader) (*ImportResult, error) {
	result, err := c.store.ImportJSONL(ctx, r)
	if err != nil {
		return result, err
	}
	_ = c.engine.RefreshPending(ctx)
	return result, nil
}
