package main

import "sort"

// speedSteps cycles through the configured multipliers, clamping at both ends.
type speedSteps struct {
	values []float64
	index  int
}

func newSpeedSteps(values []float64, current float64) *speedSteps {
	vals := append([]float64(nil), values...)
	if len(vals) == 0 {
		vals = []float64{1}
	}
	sort.Float64s(vals)
	s := &speedSteps{values: vals}
	// Start at the closest step not below the current speed.
	s.index = sort.SearchFloat64s(vals, current)
	if s.index >= len(vals) {
		s.index = len(vals) - 1
	}
	return s
}

func (s *speedSteps) up() float64 {
	if s.index < len(s.values)-1 {
		s.index++
	}
	return s.values[s.index]
}

func (s *speedSteps) down() float64 {
	if s.index > 0 {
		s.index--
	}
	return s.values[s.index]
}
