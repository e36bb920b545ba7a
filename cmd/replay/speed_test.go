package main

import "testing"

func TestSpeedStepsClamp(t *testing.T) {
	s := newSpeedSteps([]float64{4, 1, 0.5, 2}, 1)
	if got := s.up(); got != 2 {
		t.Fatalf("up from 1 = %v", got)
	}
	if got := s.up(); got != 4 {
		t.Fatalf("up from 2 = %v", got)
	}
	if got := s.up(); got != 4 {
		t.Fatalf("up past the top = %v", got)
	}
	for i := 0; i < 5; i++ {
		s.down()
	}
	if got := s.down(); got != 0.5 {
		t.Fatalf("down past the bottom = %v", got)
	}
}

func TestSpeedStepsDefaults(t *testing.T) {
	s := newSpeedSteps(nil, 3)
	if got := s.up(); got != 1 {
		t.Fatalf("up with no steps = %v", got)
	}
	s = newSpeedSteps([]float64{1, 2}, 8)
	if got := s.down(); got != 1 {
		t.Fatalf("down from above the top step = %v", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Fatalf("firstNonEmpty=%q", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Fatalf("firstNonEmpty=%q", got)
	}
}
