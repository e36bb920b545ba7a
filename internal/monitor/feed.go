package monitor

import (
	"fmt"

	"incident_commander/internal/domain"
	"incident_commander/internal/timeline"
)

// Feed turns a stream of snapshots into log lines for what changed since the
// previous snapshot. It relies on visible sets only ever growing within a
// run; a shrink means the session was reset.
type Feed struct {
	events   int
	messages int
	phase    domain.Phase
	status   domain.Status
}

func (f *Feed) Lines(state domain.DemoState) []string {
	var out []string
	if len(state.Events) < f.events || len(state.Messages) < f.messages {
		f.events, f.messages = 0, 0
	}
	if state.Status != f.status {
		out = append(out, fmt.Sprintf("status %s elapsed=%s speed=%gx", state.Status, FormatElapsed(state.Elapsed), state.Speed))
		f.status = state.Status
	}
	if state.Phase != f.phase {
		line := fmt.Sprintf("phase %s", state.Phase)
		if state.ActiveAgent != "" {
			line += " agent=" + string(state.ActiveAgent)
		}
		out = append(out, line)
		f.phase = state.Phase
	}
	for _, e := range state.Events[f.events:] {
		out = append(out, fmt.Sprintf("event [%s] %s: %s", timeline.FormatOffset(e.At), e.ID, e.Title))
	}
	for _, m := range state.Messages[f.messages:] {
		out = append(out, fmt.Sprintf("message [%s] %s -> %s %s: %s", timeline.FormatOffset(m.At), m.From, m.To, m.Type, trimLine(m.Content, 120)))
	}
	f.events = len(state.Events)
	f.messages = len(state.Messages)
	return out
}
