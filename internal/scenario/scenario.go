// Package scenario loads the declarative incident fixtures that drive a demo
// replay. A fixture is a single versioned TOML document; every scenario the
// replay can play is validated into a Scenario before playback sees it.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"incident_commander/internal/domain"
	"incident_commander/internal/timeline"
)

// SupportedVersion is the fixture schema version this package understands.
const SupportedVersion = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported scenario version")
	ErrNotFound           = errors.New("scenario not found")
)

type Scenario struct {
	Name        string
	Title       string
	Description string
	RunTime     time.Duration
	Agents      []domain.Agent
	Events      []domain.TimelineEvent
	Messages    []domain.AgentMessage
	Metrics     Metrics

	clock *timeline.Clock
}

// Clock returns the phase clock built from the scenario's phase table.
func (s *Scenario) Clock() *timeline.Clock { return s.clock }

func (s *Scenario) Agent(id domain.AgentID) (domain.Agent, bool) {
	for _, a := range s.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Agent{}, false
}

type Metrics struct {
	ManualMTTR     time.Duration
	AutomatedMTTR  time.Duration
	ManualSteps    []Step
	AutomatedSteps []Step
}

type Step struct {
	Name     string
	Duration string
}

// Reduction is the MTTR saving of the automated run over the manual one, as
// a percentage rounded to one decimal. Zero when no manual baseline exists.
func (m Metrics) Reduction() float64 {
	if m.ManualMTTR <= 0 {
		return 0
	}
	saved := float64(m.ManualMTTR-m.AutomatedMTTR) / float64(m.ManualMTTR) * 100
	return float64(int64(saved*10+0.5)) / 10
}

type fixture struct {
	Version       int              `toml:"version"`
	Name          string           `toml:"name"`
	Title         string           `toml:"title"`
	Description   string           `toml:"description"`
	RunTime       string           `toml:"run_time"`
	TerminalPhase string           `toml:"terminal_phase"`
	Agents        []fixtureAgent   `toml:"agents"`
	Phases        []fixturePhase   `toml:"phases"`
	Events        []fixtureEvent   `toml:"events"`
	Messages      []fixtureMessage `toml:"messages"`
	Metrics       *fixtureMetrics  `toml:"metrics"`
}

type fixtureAgent struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	Role     string   `toml:"role"`
	Tools    []string `toml:"tools"`
	Duration string   `toml:"duration"`
}

type fixturePhase struct {
	Name     string `toml:"name"`
	Duration string `toml:"duration"`
	Agent    string `toml:"agent"`
}

type fixtureEvent struct {
	ID          string   `toml:"id"`
	At          string   `toml:"at"`
	Phase       string   `toml:"phase"`
	Agent       string   `toml:"agent"`
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Details     []string `toml:"details"`
	Duration    string   `toml:"duration"`
	Query       string   `toml:"query"`
}

type fixtureMessage struct {
	ID      string `toml:"id"`
	At      string `toml:"at"`
	From    string `toml:"from"`
	To      string `toml:"to"`
	Phase   string `toml:"phase"`
	Type    string `toml:"type"`
	Content string `toml:"content"`
}

type fixtureMetrics struct {
	ManualMTTR    string        `toml:"manual_mttr"`
	AutomatedMTTR string        `toml:"automated_mttr"`
	Manual        []fixtureStep `toml:"manual"`
	Automated     []fixtureStep `toml:"automated"`
}

type fixtureStep struct {
	Name     string `toml:"name"`
	Duration string `toml:"duration"`
}

// Load reads and validates a fixture file.
func Load(path string) (*Scenario, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file %s: %w", path, err)
	}
	s, err := Parse(bytes)
	if err != nil {
		return nil, fmt.Errorf("scenario file %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a fixture document.
func Parse(data []byte) (*Scenario, error) {
	var f fixture
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode scenario: unknown key %s", undecoded[0])
	}
	return build(f)
}

func build(f fixture) (*Scenario, error) {
	if f.Version != SupportedVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	if f.Name == "" {
		return nil, errors.New("scenario name is required")
	}
	s := &Scenario{
		Name:        f.Name,
		Title:       f.Title,
		Description: f.Description,
	}
	if s.Title == "" {
		s.Title = f.Name
	}

	agents := make(map[domain.AgentID]bool, len(f.Agents))
	for i, a := range f.Agents {
		if a.ID == "" {
			return nil, fmt.Errorf("agent %d: id is required", i)
		}
		id := domain.AgentID(a.ID)
		if id == domain.AgentSystem || agents[id] {
			return nil, fmt.Errorf("agent %s: duplicate or reserved id", a.ID)
		}
		agents[id] = true
		d, err := optionalOffset(a.Duration)
		if err != nil {
			return nil, fmt.Errorf("agent %s duration: %w", a.ID, err)
		}
		name := a.Name
		if name == "" {
			name = a.ID
		}
		s.Agents = append(s.Agents, domain.Agent{
			ID:       id,
			Name:     name,
			Role:     a.Role,
			Tools:    a.Tools,
			Duration: d,
		})
	}

	segments := make([]timeline.Segment, 0, len(f.Phases))
	for _, p := range f.Phases {
		d, err := timeline.ParseOffset(p.Duration)
		if err != nil {
			return nil, fmt.Errorf("phase %s duration: %w", p.Name, err)
		}
		agent := domain.AgentID(p.Agent)
		if agent != "" && !agents[agent] {
			return nil, fmt.Errorf("phase %s: unknown agent %s", p.Name, p.Agent)
		}
		segments = append(segments, timeline.Segment{
			Phase:    domain.Phase(p.Name),
			Duration: d,
			Agent:    agent,
		})
	}
	terminal := domain.Phase(f.TerminalPhase)
	if terminal == "" {
		terminal = domain.PhaseResolved
	}
	clock, err := timeline.NewClock(segments, terminal)
	if err != nil {
		return nil, fmt.Errorf("phases: %w", err)
	}
	s.clock = clock

	knownPhase := func(p domain.Phase) bool {
		return p != domain.PhaseIdle && clock.Ordinal(p) > 0
	}

	ids := make(map[string]bool, len(f.Events)+len(f.Messages))
	var last time.Duration
	for i, e := range f.Events {
		if e.ID == "" || ids[e.ID] {
			return nil, fmt.Errorf("event %d: missing or duplicate id %q", i, e.ID)
		}
		ids[e.ID] = true
		at, err := timeline.ParseOffset(e.At)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		phase := domain.Phase(e.Phase)
		if !knownPhase(phase) {
			return nil, fmt.Errorf("event %s: unknown phase %s", e.ID, e.Phase)
		}
		agent := domain.AgentID(e.Agent)
		if agent != "" && !agents[agent] {
			return nil, fmt.Errorf("event %s: unknown agent %s", e.ID, e.Agent)
		}
		d, err := optionalOffset(e.Duration)
		if err != nil {
			return nil, fmt.Errorf("event %s duration: %w", e.ID, err)
		}
		s.Events = append(s.Events, domain.TimelineEvent{
			ID:          e.ID,
			Phase:       phase,
			At:          at,
			Title:       e.Title,
			Description: e.Description,
			Details:     e.Details,
			Agent:       agent,
			Duration:    d,
			Query:       e.Query,
		})
		last = max(last, at)
	}
	if !timeline.Ordered(s.Events) {
		return nil, errors.New("events must be ordered by offset")
	}

	for i, m := range f.Messages {
		if m.ID == "" || ids[m.ID] {
			return nil, fmt.Errorf("message %d: missing or duplicate id %q", i, m.ID)
		}
		ids[m.ID] = true
		at, err := timeline.ParseOffset(m.At)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", m.ID, err)
		}
		phase := domain.Phase(m.Phase)
		if !knownPhase(phase) {
			return nil, fmt.Errorf("message %s: unknown phase %s", m.ID, m.Phase)
		}
		from, to := domain.AgentID(m.From), domain.AgentID(m.To)
		for _, id := range []domain.AgentID{from, to} {
			if id != domain.AgentSystem && !agents[id] {
				return nil, fmt.Errorf("message %s: unknown agent %q", m.ID, id)
			}
		}
		typ := domain.MessageType(m.Type)
		if !typ.Valid() {
			return nil, fmt.Errorf("message %s: invalid type %q", m.ID, m.Type)
		}
		s.Messages = append(s.Messages, domain.AgentMessage{
			ID:      m.ID,
			From:    from,
			To:      to,
			Phase:   phase,
			Content: m.Content,
			At:      at,
			Type:    typ,
		})
		last = max(last, at)
	}
	if !timeline.Ordered(s.Messages) {
		return nil, errors.New("messages must be ordered by offset")
	}

	s.RunTime = max(clock.Total(), last)
	if f.RunTime != "" {
		rt, err := timeline.ParseOffset(f.RunTime)
		if err != nil {
			return nil, fmt.Errorf("run_time: %w", err)
		}
		if rt < s.RunTime {
			return nil, fmt.Errorf("run_time %s is shorter than the scripted timeline %s",
				timeline.FormatOffset(rt), timeline.FormatOffset(s.RunTime))
		}
		s.RunTime = rt
	}

	if f.Metrics != nil {
		metrics, err := buildMetrics(*f.Metrics)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		s.Metrics = metrics
	}
	return s, nil
}

func buildMetrics(f fixtureMetrics) (Metrics, error) {
	manual, err := optionalOffset(f.ManualMTTR)
	if err != nil {
		return Metrics{}, fmt.Errorf("manual_mttr: %w", err)
	}
	automated, err := optionalOffset(f.AutomatedMTTR)
	if err != nil {
		return Metrics{}, fmt.Errorf("automated_mttr: %w", err)
	}
	m := Metrics{ManualMTTR: manual, AutomatedMTTR: automated}
	for _, st := range f.Manual {
		m.ManualSteps = append(m.ManualSteps, Step(st))
	}
	for _, st := range f.Automated {
		m.AutomatedSteps = append(m.AutomatedSteps, Step(st))
	}
	return m, nil
}

func optionalOffset(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return timeline.ParseOffset(s)
}
