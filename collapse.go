package inkwell

import "sort"

// Collapse reduces a set of pending local changes to the minimal
// equivalent set to transmit: at most one note per distinct ID.
//
// Within a group of versions sharing an ID, the version with the greatest
// LastModifiedAt wins. Equal timestamps are resolved deterministically in
// favor of the tombstone, so a delete is never lost to a same-instant
// edit. If the winner is a tombstone and the remote has never accepted
// any version of the ID, the ID is dropped from the output entirely: a
// note created and deleted before it ever synced need not be transmitted
// at all.
//
// Collapse is pure: it performs no I/O and never mutates its input.
// Output is sorted by ID so the result is independent of input order.
func Collapse(pending []Note) []Note {
	if len(pending) == 0 {
		return nil
	}

	type group struct {
		winner      Note
		everSynced  bool
		initialized bool
	}

	groups := make(map[string]*group)
	for _, n := range pending {
		g := groups[n.ID]
		if g == nil {
			g = &group{}
			groups[n.ID] = g
		}
		if n.SyncedAt != nil {
			g.everSynced = true
		}
		if !g.initialized {
			g.winner = n
			g.initialized = true
			continue
		}
		if newerThan(n, g.winner) {
			g.winner = n
		}
	}

	out := make([]Note, 0, len(groups))
	for _, g := range groups {
		if g.winner.IsDeleted && !g.everSynced {
			continue
		}
		out = append(out, g.winner)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) == 0 {
		return nil
	}
	return out
}

// newerThan reports whether a should replace b as the group winner.
// Ties on the logical clock go to the tombstone.
func newerThan(a, b Note) bool {
	if a.LastModifiedAt.After(b.LastModifiedAt) {
		return true
	}
	if a.LastModifiedAt.Equal(b.LastModifiedAt) {
		return a.IsDeleted && !b.IsDeleted
	}
	return false
}
