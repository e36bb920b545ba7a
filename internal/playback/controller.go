package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"incident_commander/internal/domain"
	"incident_commander/internal/scenario"
	"incident_commander/internal/timeline"
)

var (
	ErrInvalidSpeed     = errors.New("speed must be a positive finite multiplier")
	ErrPlaybackComplete = errors.New("playback is complete, reset before playing again")
	ErrClosed           = errors.New("playback session is closed")
)

// Publisher receives a snapshot after every state change. Publish is called
// with the session lock held, so it must not block or call back into the
// controller.
type Publisher interface {
	Publish(state domain.DemoState) error
}

type Config struct {
	TickInterval time.Duration
	Speed        float64
	NewTicker    TickerFactory
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 100 * time.Millisecond
	}
	if c.Speed == 0 {
		c.Speed = 1
	}
	if c.NewTicker == nil {
		c.NewTicker = NewRealTicker
	}
	return c
}

type tickRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller owns one demo session. The session is idle until Play, runs
// until Pause or the end of the scenario, and stays complete until Reset.
// At most one tick loop is live at any time.
type Controller struct {
	id       string
	scenario *scenario.Scenario
	clock    *timeline.Clock
	bus      Publisher
	cfg      Config
	logger   *log.Logger

	mu      sync.Mutex
	status  domain.Status
	elapsed time.Duration
	speed   float64
	run     *tickRun
	closed  bool
}

func New(sc *scenario.Scenario, bus Publisher, cfg Config, logger *log.Logger) (*Controller, error) {
	if sc == nil || sc.Clock() == nil {
		return nil, errors.New("scenario is required")
	}
	cfg = cfg.withDefaults()
	if err := validSpeed(cfg.Speed); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		id:       uuid.NewString(),
		scenario: sc,
		clock:    sc.Clock(),
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
		status:   domain.StatusIdle,
		speed:    cfg.Speed,
	}, nil
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) Scenario() *scenario.Scenario { return c.scenario }

// Play starts ticking. It is a no-op while already running and refuses to
// continue a completed run.
func (c *Controller) Play() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	switch c.status {
	case domain.StatusComplete:
		c.mu.Unlock()
		return ErrPlaybackComplete
	case domain.StatusRunning:
		c.mu.Unlock()
		return nil
	}

	ticker := c.cfg.NewTicker(c.cfg.TickInterval)
	ctx, cancel := context.WithCancel(context.Background())
	run := &tickRun{cancel: cancel, done: make(chan struct{})}
	c.run = run
	c.status = domain.StatusRunning
	elapsed, speed := c.elapsed, c.speed
	c.publishLocked()
	c.mu.Unlock()

	go c.loop(ctx, ticker, run)
	c.logger.Printf("playback started session=%s scenario=%s elapsed=%s speed=%g", c.id, c.scenario.Name, elapsed, speed)
	return nil
}

// Pause stops ticking and keeps the elapsed time.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.status != domain.StatusRunning {
		c.mu.Unlock()
		return
	}
	run := c.run
	c.run = nil
	c.status = domain.StatusPaused
	elapsed := c.elapsed
	c.publishLocked()
	c.mu.Unlock()

	stopRun(run)
	c.logger.Printf("playback paused session=%s elapsed=%s", c.id, elapsed)
}

// Reset stops ticking and returns the session to idle at zero elapsed time.
// The speed multiplier is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	run := c.run
	c.run = nil
	c.status = domain.StatusIdle
	c.elapsed = 0
	c.publishLocked()
	c.mu.Unlock()

	stopRun(run)
	c.logger.Printf("playback reset session=%s", c.id)
}

// SetSpeed changes the multiplier applied to subsequent ticks.
func (c *Controller) SetSpeed(multiplier float64) error {
	if err := validSpeed(multiplier); err != nil {
		return err
	}
	c.mu.Lock()
	c.speed = multiplier
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Printf("playback speed changed session=%s speed=%g", c.id, multiplier)
	return nil
}

// Tick advances a running session by one tick interval scaled by the speed.
// It does nothing unless the session is running.
func (c *Controller) Tick() {
	c.tick(nil)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() domain.DemoState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops the tick loop for good. Later Play calls fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	run := c.run
	c.run = nil
	if c.status == domain.StatusRunning {
		c.status = domain.StatusPaused
		c.publishLocked()
	}
	c.mu.Unlock()

	stopRun(run)
	c.logger.Printf("playback closed session=%s", c.id)
}

func (c *Controller) loop(ctx context.Context, ticker Ticker, run *tickRun) {
	defer close(run.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !c.tick(run) {
				return
			}
		}
	}
}

// tick reports whether the loop identified by from should keep going. A nil
// from is a manual tick and is accepted for whichever loop is live.
func (c *Controller) tick(from *tickRun) bool {
	c.mu.Lock()
	if c.status != domain.StatusRunning || (from != nil && c.run != from) {
		c.mu.Unlock()
		return false
	}
	before := c.phaseLocked()
	c.elapsed += c.stepLocked()

	var finished *tickRun
	if c.elapsed >= c.scenario.RunTime {
		c.elapsed = c.scenario.RunTime
		c.status = domain.StatusComplete
		finished = c.run
		c.run = nil
	}
	after := c.phaseLocked()
	elapsed := c.elapsed
	c.publishLocked()
	c.mu.Unlock()

	if before != after {
		c.logger.Printf("phase changed session=%s from=%s to=%s elapsed=%s", c.id, before, after, elapsed)
	}
	if finished != nil {
		// Cancel without waiting: this may be the loop goroutine itself.
		finished.cancel()
		c.logger.Printf("playback complete session=%s elapsed=%s", c.id, elapsed)
		return false
	}
	return true
}

// stepLocked never overshoots the run time, so huge multipliers finish the
// run instead of overflowing elapsed.
func (c *Controller) stepLocked() time.Duration {
	remaining := c.scenario.RunTime - c.elapsed
	step := math.Round(float64(c.cfg.TickInterval) * c.speed)
	if step >= float64(remaining) {
		return remaining
	}
	return time.Duration(step)
}

func (c *Controller) phaseLocked() domain.Phase {
	switch c.status {
	case domain.StatusIdle:
		return domain.PhaseIdle
	case domain.StatusComplete:
		return c.clock.Terminal()
	}
	return c.clock.PhaseAt(c.elapsed)
}

func (c *Controller) snapshotLocked() domain.DemoState {
	state := domain.DemoState{
		SessionID:         c.id,
		Scenario:          c.scenario.Name,
		Status:            c.status,
		Phase:             c.phaseLocked(),
		IsPlaying:         c.status == domain.StatusRunning,
		IsPaused:          c.status == domain.StatusPaused,
		Speed:             c.speed,
		Elapsed:           c.elapsed,
		Events:            []domain.TimelineEvent{},
		Messages:          []domain.AgentMessage{},
		CurrentEventIndex: -1,
	}
	if c.status == domain.StatusIdle {
		return state
	}

	state.ActiveAgent = c.clock.AgentFor(state.Phase)
	state.Events = slices.Clone(timeline.Visible(c.scenario.Events, c.elapsed))
	state.Messages = slices.Clone(timeline.Visible(c.scenario.Messages, c.elapsed))
	state.CurrentEventIndex = len(state.Events) - 1
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Type == domain.MessageTypeHandoff {
			state.LastHandoff = state.Messages[i]
			break
		}
	}
	state.Progress = int(c.elapsed * 100 / c.scenario.RunTime)
	return state
}

func (c *Controller) publishLocked() {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(c.snapshotLocked()); err != nil {
		c.logger.Printf("publish snapshot session=%s: %v", c.id, err)
	}
}

func stopRun(run *tickRun) {
	if run == nil {
		return
	}
	run.cancel()
	<-run.done
}

func validSpeed(multiplier float64) error {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, multiplier)
	}
	return nil
}
