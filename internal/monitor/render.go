// Package monitor turns playback snapshots into text for the terminal viewer
// and the headless log feed.
package monitor

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"incident_commander/internal/domain"
	"incident_commander/internal/scenario"
	"incident_commander/internal/timeline"
)

// FormatElapsed renders d as mm:ss.t.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	tenths := int(d/(100*time.Millisecond)) % 10
	return fmt.Sprintf("%s.%d", timeline.FormatOffset(d), tenths)
}

// RenderPhaseBar lists the scenario phases with completed, current and
// upcoming phases in different colours.
func RenderPhaseBar(clock *timeline.Clock, current domain.Phase) string {
	cur := clock.Ordinal(current)
	var parts []string
	for _, p := range clock.Phases() {
		if p == domain.PhaseIdle {
			continue
		}
		ord := clock.Ordinal(p)
		switch {
		case ord == cur:
			parts = append(parts, "[yellow::b]"+string(p)+"[-:-:-]")
		case ord < cur:
			parts = append(parts, "[green]"+string(p)+"[-]")
		default:
			parts = append(parts, "[gray]"+string(p)+"[-]")
		}
	}
	return strings.Join(parts, " > ")
}

func RenderEvents(items []domain.TimelineEvent) string {
	if len(items) == 0 {
		return "No events"
	}
	var b strings.Builder
	for _, e := range items {
		actor := string(e.Agent)
		if actor == "" {
			actor = "system"
		}
		b.WriteString(fmt.Sprintf("[%s] %-13s %s\n", timeline.FormatOffset(e.At), actor, e.Title))
		if e.Description != "" {
			b.WriteString("  " + trimLine(e.Description, 160) + "\n")
		}
		for _, d := range e.Details {
			b.WriteString("    - " + trimLine(d, 120) + "\n")
		}
	}
	return b.String()
}

func RenderMessages(items []domain.AgentMessage) string {
	if len(items) == 0 {
		return "No messages"
	}
	var b strings.Builder
	for _, m := range items {
		b.WriteString(fmt.Sprintf(
			"[%s] %s -> %s  %s\n  %s\n",
			timeline.FormatOffset(m.At),
			m.From,
			m.To,
			m.Type,
			trimLine(m.Content, 160),
		))
	}
	return b.String()
}

type agentStateLine struct {
	Agent string
	State string
	Role  string
}

func RenderAgents(sc *scenario.Scenario, state domain.DemoState) string {
	if len(sc.Agents) == 0 {
		return "No agents"
	}
	lines := make([]agentStateLine, 0, len(sc.Agents))
	for _, a := range sc.Agents {
		lines = append(lines, agentStateLine{
			Agent: a.Name,
			State: classifyAgentState(sc.Clock(), a.ID, state),
			Role:  a.Role,
		})
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("%-20s %-8s %s\n", trimLine(l.Agent, 20), l.State, l.Role))
	}
	if state.LastHandoff.ID != "" {
		b.WriteString(fmt.Sprintf("last handoff: %s -> %s\n", state.LastHandoff.From, state.LastHandoff.To))
	}
	return b.String()
}

// classifyAgentState is "active" for the agent owning the current phase or
// the latest visible event, "done" once every phase it owns has passed, and
// "standby" otherwise.
func classifyAgentState(clock *timeline.Clock, id domain.AgentID, state domain.DemoState) string {
	if state.Status == domain.StatusIdle {
		return "standby"
	}
	if state.ActiveAgent == id {
		return "active"
	}
	if state.Status != domain.StatusComplete && state.CurrentEventIndex >= 0 &&
		state.Events[state.CurrentEventIndex].Agent == id {
		return "active"
	}

	cur := clock.Ordinal(state.Phase)
	owned, passed := 0, 0
	for _, p := range clock.Phases() {
		if clock.AgentFor(p) != id {
			continue
		}
		owned++
		if clock.Ordinal(p) < cur {
			passed++
		}
	}
	if state.Status == domain.StatusComplete || (owned > 0 && owned == passed) {
		return "done"
	}
	return "standby"
}

func RenderStatus(state domain.DemoState) string {
	return fmt.Sprintf(
		"session=%s scenario=%s status=%s phase=%s elapsed=%s speed=%gx progress=%d%%",
		shortID(state.SessionID),
		state.Scenario,
		state.Status,
		state.Phase,
		FormatElapsed(state.Elapsed),
		state.Speed,
		state.Progress,
	)
}

func RenderMetrics(m scenario.Metrics) string {
	if m.ManualMTTR <= 0 {
		return "No metrics"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("manual MTTR:    %s\n", timeline.FormatOffset(m.ManualMTTR)))
	b.WriteString(fmt.Sprintf("automated MTTR: %s\n", timeline.FormatOffset(m.AutomatedMTTR)))
	b.WriteString(fmt.Sprintf("reduction:      %.1f%%\n", m.Reduction()))
	for _, st := range m.AutomatedSteps {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", st.Name, st.Duration))
	}
	return b.String()
}

// trimLine counts runes so multi-byte text is never split mid-character.
func trimLine(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

func shortID(v string) string {
	if len(v) <= 8 {
		return v
	}
	return v[:8]
}
