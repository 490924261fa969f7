package inkwell

import (
	"testing"
	"time"
)

func ts(offset time.Duration) time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(offset)
}

func TestCollapseEmpty(t *testing.T) {
	if got := Collapse(nil); got != nil {
		t.Errorf("Collapse(nil) = %v, want nil", got)
	}
	if got := Collapse([]Note{}); got != nil {
		t.Errorf("Collapse(empty) = %v, want nil", got)
	}
}

func TestCollapseSingleNote(t *testing.T) {
	in := []Note{{ID: "a", Title: "one", LastModifiedAt: ts(0)}}
	out := Collapse(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 note, got %d", len(out))
	}
	if out[0].ID != "a" || out[0].Title != "one" {
		t.Errorf("unexpected winner: %+v", out[0])
	}
}

func TestCollapseLatestVersionWins(t *testing.T) {
	in := []Note{
		{ID: "a", Title: "v1", LastModifiedAt: ts(0)},
		{ID: "a", Title: "v3", LastModifiedAt: ts(2 * time.Second)},
		{ID: "a", Title: "v2", LastModifiedAt: ts(time.Second)},
	}
	out := Collapse(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 note, got %d", len(out))
	}
	if out[0].Title != "v3" {
		t.Errorf("winner = %q, want v3", out[0].Title)
	}
}

func TestCollapseDropsNeverSyncedTombstone(t *testing.T) {
	// Created and deleted before the remote ever saw the ID: the net
	// change is nothing, so nothing is transmitted.
	in := []Note{
		{ID: "a", Title: "draft", LastModifiedAt: ts(0)},
		{ID: "a", Title: "draft", IsDeleted: true, LastModifiedAt: ts(time.Second)},
	}
	out := Collapse(in)
	if len(out) != 0 {
		t.Errorf("expected empty output, got %d notes", len(out))
	}
}

func TestCollapseKeepsSyncedTombstone(t *testing.T) {
	// The remote has accepted this ID before, so the delete must travel.
	synced := ts(-time.Hour)
	in := []Note{
		{ID: "a", Title: "old", LastModifiedAt: ts(0), SyncedAt: &synced},
		{ID: "a", Title: "old", IsDeleted: true, LastModifiedAt: ts(time.Second)},
	}
	out := Collapse(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 note, got %d", len(out))
	}
	if !out[0].IsDeleted {
		t.Error("expected the tombstone to win")
	}
}

func TestCollapseTombstoneWinsTies(t *testing.T) {
	synced := ts(-time.Hour)
	in := []Note{
		{ID: "a", Title: "edit", LastModifiedAt: ts(0), SyncedAt: &synced},
		{ID: "a", IsDeleted: true, LastModifiedAt: ts(0), SyncedAt: &synced},
	}
	out := Collapse(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 note, got %d", len(out))
	}
	if !out[0].IsDeleted {
		t.Error("same-instant delete should beat the edit")
	}

	// Order independence: flipping the input must not flip the winner.
	out = Collapse([]Note{in[1], in[0]})
	if len(out) != 1 || !out[0].IsDeleted {
		t.Error("tie-break must not depend on input order")
	}
}

func TestCollapseMultipleIDs(t *testing.T) {
	synced := ts(-time.Hour)
	in := []Note{
		{ID: "c", Title: "c1", LastModifiedAt: ts(0)},
		{ID: "a", Title: "a1", LastModifiedAt: ts(0)},
		{ID: "a", Title: "a2", LastModifiedAt: ts(time.Second)},
		{ID: "b", Title: "b1", IsDeleted: true, LastModifiedAt: ts(0)},       // never synced: dropped
		{ID: "d", IsDeleted: true, LastModifiedAt: ts(0), SyncedAt: &synced}, // synced: kept
	}
	out := Collapse(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(out))
	}

	// Output is sorted by ID.
	wantIDs := []string{"a", "c", "d"}
	for i, want := range wantIDs {
		if out[i].ID != want {
			t.Errorf("out[%d].ID = %q, want %q", i, out[i].ID, want)
		}
	}
	if out[0].Title != "a2" {
		t.Errorf("winner for a = %q, want a2", out[0].Title)
	}
}

func TestCollapseDoesNotMutateInput(t *testing.T) {
	in := []Note{
		{ID: "b", Title: "b1", LastModifiedAt: ts(0)},
		{ID: "a", Title: "a1", LastModifiedAt: ts(0)},
	}
	_ = Collapse(in)
	if in[0].ID != "b" || in[1].ID != "a" {
		t.Error("input slice was reordered")
	}
}
