package timeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidOffset = errors.New("invalid offset")

// MaxOffset bounds every scenario offset and duration.
const MaxOffset = 24 * time.Hour

// ParseOffset reads "mm:ss" or "hh:mm:ss" into a duration from scenario start.
func ParseOffset(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	values := make([]int, len(parts))
	for i, p := range parts {
		if p == "" {
			return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
		}
		values[i] = n
	}

	var hours, minutes, seconds int
	if len(values) == 3 {
		hours, minutes, seconds = values[0], values[1], values[2]
		if minutes >= 60 {
			return 0, fmt.Errorf("%w: %q minutes out of range", ErrInvalidOffset, s)
		}
	} else {
		minutes, seconds = values[0], values[1]
	}
	if seconds >= 60 {
		return 0, fmt.Errorf("%w: %q seconds out of range", ErrInvalidOffset, s)
	}
	// Bound the parts before multiplying so large inputs cannot overflow.
	if hours > int(MaxOffset/time.Hour) || minutes > int(MaxOffset/time.Minute) {
		return 0, fmt.Errorf("%w: %q exceeds %s", ErrInvalidOffset, s, MaxOffset)
	}
	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	if d > MaxOffset {
		return 0, fmt.Errorf("%w: %q exceeds %s", ErrInvalidOffset, s, MaxOffset)
	}
	return d, nil
}

// FormatOffset renders d truncated to whole seconds, as "mm:ss" below an hour
// and "hh:mm:ss" above.
func FormatOffset(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
