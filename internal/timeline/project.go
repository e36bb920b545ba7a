package timeline

import (
	"sort"
	"time"
)

// Timed is anything revealed at a fixed offset from scenario start.
type Timed interface {
	Offset() time.Duration
}

// Visible returns the prefix of items whose offset is at or before elapsed.
// items must be ordered by non-decreasing offset; the result shares the
// backing array with items and has its capacity clipped.
func Visible[T Timed](items []T, elapsed time.Duration) []T {
	n := sort.Search(len(items), func(i int) bool {
		return items[i].Offset() > elapsed
	})
	return items[:n:n]
}

// Ordered reports whether items are sorted by non-decreasing offset.
func Ordered[T Timed](items []T) bool {
	for i := 1; i < len(items); i++ {
		if items[i].Offset() < items[i-1].Offset() {
			return false
		}
	}
	return true
}
