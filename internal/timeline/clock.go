package timeline

import (
	"errors"
	"fmt"
	"time"

	"incident_commander/internal/domain"
)

// Segment is one timed phase of a scenario.
type Segment struct {
	Phase    domain.Phase
	Duration time.Duration
	Agent    domain.AgentID
}

type span struct {
	Segment
	start time.Duration
	end   time.Duration
}

// Clock maps elapsed playback time to a phase through cumulative thresholds.
// A threshold belongs to the phase that starts there: with alert lasting 2s,
// 1.9s is alert and 2.0s is the next phase.
type Clock struct {
	spans    []span
	terminal domain.Phase
	total    time.Duration
	ordinals map[domain.Phase]int
}

func NewClock(segments []Segment, terminal domain.Phase) (*Clock, error) {
	if terminal == "" {
		return nil, errors.New("terminal phase is required")
	}
	if terminal == domain.PhaseIdle {
		return nil, errors.New("terminal phase cannot be idle")
	}
	c := &Clock{
		terminal: terminal,
		ordinals: map[domain.Phase]int{domain.PhaseIdle: 0},
	}
	var cursor time.Duration
	for _, seg := range segments {
		if seg.Phase == "" {
			return nil, errors.New("segment phase is required")
		}
		if seg.Phase == domain.PhaseIdle || seg.Phase == terminal {
			return nil, fmt.Errorf("phase %s cannot be a timed segment", seg.Phase)
		}
		if _, dup := c.ordinals[seg.Phase]; dup {
			return nil, fmt.Errorf("duplicate phase %s", seg.Phase)
		}
		if seg.Duration < 0 {
			return nil, fmt.Errorf("phase %s has negative duration", seg.Phase)
		}
		c.ordinals[seg.Phase] = len(c.spans) + 1
		c.spans = append(c.spans, span{
			Segment: seg,
			start:   cursor,
			end:     cursor + seg.Duration,
		})
		cursor += seg.Duration
	}
	if cursor <= 0 {
		return nil, errors.New("phase durations must sum to a positive total")
	}
	c.total = cursor
	c.ordinals[terminal] = len(c.spans) + 1
	return c, nil
}

// PhaseAt is total: negative elapsed is idle, elapsed at or past Total is the
// terminal phase.
func (c *Clock) PhaseAt(elapsed time.Duration) domain.Phase {
	if elapsed < 0 {
		return domain.PhaseIdle
	}
	for _, s := range c.spans {
		if elapsed < s.end {
			return s.Phase
		}
	}
	return c.terminal
}

func (c *Clock) Total() time.Duration { return c.total }

func (c *Clock) Terminal() domain.Phase { return c.terminal }

// Ordinal returns the position of p in idle, timed phases, terminal; -1 for
// unknown phases.
func (c *Clock) Ordinal(p domain.Phase) int {
	if n, ok := c.ordinals[p]; ok {
		return n
	}
	return -1
}

// AgentFor returns the agent owning p, or "" for phases without one.
func (c *Clock) AgentFor(p domain.Phase) domain.AgentID {
	for _, s := range c.spans {
		if s.Phase == p {
			return s.Agent
		}
	}
	return ""
}

// Phases lists every phase in order, idle first and terminal last.
func (c *Clock) Phases() []domain.Phase {
	out := make([]domain.Phase, 0, len(c.spans)+2)
	out = append(out, domain.PhaseIdle)
	for _, s := range c.spans {
		out = append(out, s.Phase)
	}
	return append(out, c.terminal)
}

// Bounds returns the [start, end) window of a timed phase.
func (c *Clock) Bounds(p domain.Phase) (start, end time.Duration, ok bool) {
	for _, s := range c.spans {
		if s.Phase == p {
			return s.start, s.end, true
		}
	}
	return 0, 0, false
}
