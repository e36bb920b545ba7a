package monitor

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"incident_commander/internal/domain"
	"incident_commander/internal/scenario"
)

func loadDefault(t *testing.T) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Default()
	if err != nil {
		t.Fatalf("default scenario: %v", err)
	}
	return sc
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00.0"},
		{45900 * time.Millisecond, "00:45.9"},
		{115 * time.Second, "01:55.0"},
		{-time.Second, "00:00.0"},
	}
	for _, tc := range cases {
		if got := FormatElapsed(tc.in); got != tc.want {
			t.Fatalf("FormatElapsed(%s)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestRenderPhaseBar(t *testing.T) {
	sc := loadDefault(t)
	got := RenderPhaseBar(sc.Clock(), domain.PhaseDiagnosis)
	for _, want := range []string{"[green]alert[-]", "[green]triage[-]", "[yellow::b]diagnosis[-:-:-]", "[gray]resolved[-]"} {
		if !strings.Contains(got, want) {
			t.Fatalf("phase bar %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "idle") {
		t.Fatalf("phase bar should not list idle: %q", got)
	}
}

func TestRenderEventsAndMessages(t *testing.T) {
	sc := loadDefault(t)
	if RenderEvents(nil) != "No events" || RenderMessages(nil) != "No messages" {
		t.Fatalf("unexpected empty rendering")
	}
	events := RenderEvents(sc.Events[:2])
	if !strings.Contains(events, "[00:00] system") || !strings.Contains(events, "[00:02] triage") {
		t.Fatalf("events rendering:\n%s", events)
	}
	msgs := RenderMessages(sc.Messages[3:4])
	if !strings.Contains(msgs, "[00:14] triage -> diagnosis  handoff") {
		t.Fatalf("messages rendering:\n%s", msgs)
	}
}

func TestClassifyAgentState(t *testing.T) {
	sc := loadDefault(t)
	clock := sc.Clock()
	state := domain.DemoState{
		Status:            domain.StatusRunning,
		Phase:             domain.PhaseRemediation,
		ActiveAgent:       "remediation",
		Events:            sc.Events[:8],
		CurrentEventIndex: 7,
	}
	cases := map[domain.AgentID]string{
		"triage":        "done",
		"diagnosis":     "done",
		"remediation":   "active",
		"communication": "standby",
	}
	for id, want := range cases {
		if got := classifyAgentState(clock, id, state); got != want {
			t.Fatalf("%s state=%s want=%s", id, got, want)
		}
	}
	if got := classifyAgentState(clock, "triage", domain.DemoState{Status: domain.StatusIdle, CurrentEventIndex: -1}); got != "standby" {
		t.Fatalf("idle state=%s", got)
	}
	done := domain.DemoState{Status: domain.StatusComplete, Phase: domain.PhaseResolved, CurrentEventIndex: -1}
	if got := classifyAgentState(clock, "communication", done); got != "done" {
		t.Fatalf("complete state=%s", got)
	}
}

func TestRenderAgentsShowsHandoff(t *testing.T) {
	sc := loadDefault(t)
	out := RenderAgents(sc, domain.DemoState{
		Status:            domain.StatusRunning,
		Phase:             domain.PhaseDiagnosis,
		ActiveAgent:       "diagnosis",
		CurrentEventIndex: -1,
		LastHandoff:       sc.Messages[3],
	})
	if !strings.Contains(out, "Diagnosis Agent") || !strings.Contains(out, "last handoff: triage -> diagnosis") {
		t.Fatalf("agents rendering:\n%s", out)
	}
}

func TestRenderStatusAndMetrics(t *testing.T) {
	sc := loadDefault(t)
	status := RenderStatus(domain.DemoState{
		SessionID: "0123456789abcdef",
		Scenario:  sc.Name,
		Status:    domain.StatusRunning,
		Phase:     domain.PhaseTriage,
		Elapsed:   15 * time.Second,
		Speed:     2,
		Progress:  12,
	})
	want := "session=01234567 scenario=payment-cpu-spike status=running phase=triage elapsed=00:15.0 speed=2x progress=12%"
	if status != want {
		t.Fatalf("status=%q\nwant=%q", status, want)
	}
	metrics := RenderMetrics(sc.Metrics)
	if !strings.Contains(metrics, "reduction:      95.7%") {
		t.Fatalf("metrics rendering:\n%s", metrics)
	}
	if RenderMetrics(scenario.Metrics{}) != "No metrics" {
		t.Fatalf("expected placeholder for empty metrics")
	}
}

func TestTrimLine(t *testing.T) {
	if got := trimLine("abcdefghij", 6); got != "abc..." {
		t.Fatalf("trimLine=%q", got)
	}
	if got := trimLine("abc", 6); got != "abc" {
		t.Fatalf("trimLine=%q", got)
	}
	if got := trimLine("héllo wörld", 8); got != "héllo..." || !utf8.ValidString(got) {
		t.Fatalf("trimLine=%q", got)
	}
	if got := trimLine("ünïcödé", 7); got != "ünïcödé" {
		t.Fatalf("trimLine=%q", got)
	}
}
