package inkwell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Wire format for the batch sync endpoint. Timestamps travel as RFC 3339
// strings with nanosecond precision so the logical clock survives the
// round trip intact.

type noteDTO struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	ColorHex       string `json:"color_hex,omitempty"`
	IsDeleted      bool   `json:"is_deleted"`
	LastModifiedAt string `json:"last_modified_at"`
	CreatedAt      string `json:"created_at"`
}

type batchSyncRequest struct {
	SourceID string    `json:"source_id"`
	Notes    []noteDTO `json:"notes"`
}

type batchSyncResponse struct {
	Notes []noteDTO `json:"notes"`
}

type listNotesResponse struct {
	Notes []noteDTO `json:"notes"`
}

// HTTPRemote implements RemoteClient over the batch HTTP API.
type HTTPRemote struct {
	baseURL    string
	apiKey     string
	sourceID   string
	httpClient *http.Client
	debug      *DebugLogger
}

// NewHTTPRemote creates a remote client. sourceID is optional; if
// non-empty it is sent as X-Inkwell-Source-ID for observability.
func NewHTTPRemote(baseURL, apiKey, sourceID string) *HTTPRemote {
	return &HTTPRemote{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		sourceID: sourceID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient sets a custom http.Client (for testing or custom timeouts).
func (r *HTTPRemote) WithHTTPClient(client *http.Client) *HTTPRemote {
	r.httpClient = client
	return r
}

// WithDebugLogger enables request/response tracing.
func (r *HTTPRemote) WithDebugLogger(d *DebugLogger) *HTTPRemote {
	r.debug = d
	return r
}

func (r *HTTPRemote) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("User-Agent", "inkwell-client/1.0")
	if strings.TrimSpace(r.sourceID) != "" {
		req.Header.Set("X-Inkwell-Source-ID", r.sourceID)
	}
}

func newSyncError(op string, statusCode int, body []byte) *SyncError {
	msg := ""
	if len(body) > 0 && statusCode >= 400 {
		if len(body) > 200 {
			msg = string(body[:200]) + "..."
		} else {
			msg = string(body)
		}
	}
	return &SyncError{
		Operation:  op,
		StatusCode: statusCode,
		Err:        fmt.Errorf("HTTP %d: %s", statusCode, msg),
	}
}

// BatchSync pushes the collapsed pending set and returns the resolved
// records, one per input ID.
func (r *HTTPRemote) BatchSync(ctx context.Context, notes []Note) ([]Note, error) {
	const op = "batch_sync"

	payload := batchSyncRequest{
		SourceID: r.sourceID,
		Notes:    make([]noteDTO, len(notes)),
	}
	for i, n := range notes {
		payload.Notes[i] = toDTO(n)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &SyncError{Operation: op, Err: err}
	}
	r.debug.LogRequest(http.MethodPost, r.baseURL+"/api/v1/notes/sync", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/v1/notes/sync", bytes.NewReader(body))
	if err != nil {
		return nil, &SyncError{Operation: op, Err: err}
	}
	r.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.debug.LogError(op, err)
		return nil, &SyncError{Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	r.debug.LogResponse(resp.StatusCode, resp.Status, respBody)

	if resp.StatusCode != http.StatusOK {
		return nil, newSyncError(op, resp.StatusCode, respBody)
	}

	var result batchSyncResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &DecodeError{Operation: op, Err: err}
	}

	resolved, err := fromDTOs(result.Notes)
	if err != nil {
		return nil, &DecodeError{Operation: op, Err: err}
	}
	return resolved, nil
}

// FetchAll returns all non-deleted remote records, used for initial
// bootstrap or a full refresh.
func (r *HTTPRemote) FetchAll(ctx context.Context) ([]Note, error) {
	const op = "fetch_all"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/v1/notes", nil)
	if err != nil {
		return nil, &SyncError{Operation: op, Err: err}
	}
	r.setHeaders(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.debug.LogError(op, err)
		return nil, &SyncError{Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	r.debug.LogResponse(resp.StatusCode, resp.Status, respBody)

	if resp.StatusCode != http.StatusOK {
		return nil, newSyncError(op, resp.StatusCode, respBody)
	}

	var result listNotesResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &DecodeError{Operation: op, Err: err}
	}

	all, err := fromDTOs(result.Notes)
	if err != nil {
		return nil, &DecodeError{Operation: op, Err: err}
	}
	return all, nil
}

// Health checks remote reachability.
func (r *HTTPRemote) Health(ctx context.Context) error {
	const op = "health_check"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/v1/health", nil)
	if err != nil {
		return &SyncError{Operation: op, Err: err}
	}
	r.setHeaders(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &SyncError{Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return newSyncError(op, resp.StatusCode, body)
	}
	return nil
}

func toDTO(n Note) noteDTO {
	return noteDTO{
		ID:             n.ID,
		Title:          n.Title,
		Content:        n.Content,
		ColorHex:       n.ColorHex,
		IsDeleted:      n.IsDeleted,
		LastModifiedAt: n.LastModifiedAt.UTC().Format(timeLayout),
		CreatedAt:      n.CreatedAt.UTC().Format(timeLayout),
	}
}

func fromDTOs(dtos []noteDTO) ([]Note, error) {
	notes := make([]Note, len(dtos))
	for i, d := range dtos {
		if d.ID == "" {
			return nil, fmt.Errorf("record %d: missing id", i)
		}
		lastModified, err := time.Parse(time.RFC3339Nano, d.LastModifiedAt)
		if err != nil {
			return nil, fmt.Errorf("record %s: last_modified_at: %w", d.ID, err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("record %s: created_at: %w", d.ID, err)
		}
		notes[i] = Note{
			ID:             d.ID,
			Title:          d.Title,
			Content:        d.Content,
			ColorHex:       d.ColorHex,
			IsDeleted:      d.IsDeleted,
			LastModifiedAt: lastModified,
			CreatedAt:      createdAt,
		}
	}
	return notes, nil
}
