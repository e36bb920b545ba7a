package monitor

import (
	"strings"
	"testing"
	"time"

	"incident_commander/internal/domain"
)

func TestFeedEmitsOnlyNewItems(t *testing.T) {
	sc := loadDefault(t)
	var f Feed

	first := f.Lines(domain.DemoState{
		Status:   domain.StatusRunning,
		Phase:    domain.PhaseAlert,
		Speed:    1,
		Events:   sc.Events[:1],
		Messages: sc.Messages[:1],
	})
	if len(first) != 4 {
		t.Fatalf("first lines=%d %v", len(first), first)
	}
	if !strings.HasPrefix(first[0], "status running") || first[1] != "phase alert" {
		t.Fatalf("unexpected header lines %v", first)
	}

	again := f.Lines(domain.DemoState{
		Status:   domain.StatusRunning,
		Phase:    domain.PhaseAlert,
		Speed:    1,
		Elapsed:  time.Second,
		Events:   sc.Events[:1],
		Messages: sc.Messages[:1],
	})
	if len(again) != 0 {
		t.Fatalf("expected no lines for an unchanged snapshot, got %v", again)
	}

	next := f.Lines(domain.DemoState{
		Status:      domain.StatusRunning,
		Phase:       domain.PhaseTriage,
		ActiveAgent: "triage",
		Speed:       1,
		Events:      sc.Events[:3],
		Messages:    sc.Messages[:1],
	})
	if len(next) != 3 || next[0] != "phase triage agent=triage" {
		t.Fatalf("unexpected lines %v", next)
	}
	if !strings.Contains(next[1], "evt-2") || !strings.Contains(next[2], "evt-3") {
		t.Fatalf("expected evt-2 and evt-3, got %v", next)
	}
}

func TestFeedRestartsAfterReset(t *testing.T) {
	sc := loadDefault(t)
	var f Feed
	f.Lines(domain.DemoState{Status: domain.StatusRunning, Phase: domain.PhaseTriage, Events: sc.Events[:4], Messages: sc.Messages[:3]})

	reset := f.Lines(domain.DemoState{Status: domain.StatusIdle, Phase: domain.PhaseIdle})
	if len(reset) != 2 {
		t.Fatalf("reset lines=%v", reset)
	}
	replay := f.Lines(domain.DemoState{Status: domain.StatusRunning, Phase: domain.PhaseAlert, Events: sc.Events[:1]})
	found := false
	for _, l := range replay {
		if strings.Contains(l, "evt-1") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected evt-1 to be emitted again after reset, got %v", replay)
	}
}
