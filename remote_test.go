package inkwell

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPRemoteBatchSync(t *testing.T) {
	var gotReq batchSyncRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/notes/sync" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Inkwell-Source-ID"); got != "laptop-1" {
			t.Errorf("X-Inkwell-Source-ID = %q", got)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		// Echo the batch back resolved.
		resp := batchSyncResponse{Notes: gotReq.Notes}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "test-key", "laptop-1")

	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	notes := []Note{{ID: "a", Title: "one", LastModifiedAt: now, CreatedAt: now}}

	resolved, err := remote.BatchSync(context.Background(), notes)
	if err != nil {
		t.Fatalf("BatchSync: %v", err)
	}
	if gotReq.SourceID != "laptop-1" {
		t.Errorf("request SourceID = %q", gotReq.SourceID)
	}
	if len(resolved) != 1 {
		t.Fatalf("resolved = %d notes, want 1", len(resolved))
	}
	if resolved[0].ID != "a" {
		t.Errorf("resolved ID = %q", resolved[0].ID)
	}
	// Nanosecond precision survives the round trip.
	if !resolved[0].LastModifiedAt.Equal(now) {
		t.Errorf("LastModifiedAt = %v, want %v", resolved[0].LastModifiedAt, now)
	}
}

func TestHTTPRemoteBatchSyncServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database on fire", http.StatusInternalServerError)
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "k", "")
	_, err := remote.BatchSync(context.Background(), []Note{{ID: "a"}})

	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected *SyncError, got %T: %v", err, err)
	}
	if syncErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", syncErr.StatusCode)
	}
	if syncErr.Operation != "batch_sync" {
		t.Errorf("Operation = %q", syncErr.Operation)
	}
}

func TestHTTPRemoteBatchSyncMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "k", "")
	_, err := remote.BatchSync(context.Background(), []Note{{ID: "a"}})

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
}

func TestHTTPRemoteBatchSyncMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(batchSyncResponse{Notes: []noteDTO{{Title: "no id"}}})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "k", "")
	_, err := remote.BatchSync(context.Background(), []Note{{ID: "a"}})

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
}

func TestHTTPRemoteFetchAll(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/notes" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(listNotesResponse{Notes: []noteDTO{
			{ID: "r1", Title: "one", LastModifiedAt: now.Format(time.RFC3339Nano), CreatedAt: now.Format(time.RFC3339Nano)},
			{ID: "r2", Title: "two", LastModifiedAt: now.Format(time.RFC3339Nano), CreatedAt: now.Format(time.RFC3339Nano)},
		}})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "k", "")
	all, err := remote.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d notes, want 2", len(all))
	}
}

func TestHTTPRemoteHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "k", "")
	if err := remote.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}

	healthy = false
	err := remote.Health(context.Background())
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected *SyncError, got %T: %v", err, err)
	}
	if syncErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", syncErr.StatusCode)
	}
}

func TestHTTPRemoteTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("path = %q, base URL slash was not trimmed", r.URL.Path)
		}
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL+"/", "k", "")
	if err := remote.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}
