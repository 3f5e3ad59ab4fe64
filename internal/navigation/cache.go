package navigation

import "github.com/Faultbox/cellblock/internal/planmap"

type cacheEntry struct {
	from, to planmap.DoorID
	path     MapPath
}

// UpdateBuffer collects door routes found by one query goroutine until the owner
// folds them into the cache with Navigator.Drain.
type UpdateBuffer struct {
	entries []cacheEntry
}

func (b *UpdateBuffer) offer(from, to planmap.DoorID, p MapPath) {
	b.entries = append(b.entries, cacheEntry{from: from, to: to, path: p})
}

// Len returns the number of pending routes.
func (b *UpdateBuffer) Len() int {
	return len(b.entries)
}
