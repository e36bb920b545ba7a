package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"incident_commander/internal/config"
	"incident_commander/internal/domain"
	"incident_commander/internal/messaging/inproc"
	"incident_commander/internal/monitor"
	"incident_commander/internal/playback"
	"incident_commander/internal/scenario"
)

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup; main only turns its result into an exit
// status.
func run() int {
	configPath := flag.String("config", "", "path to config.toml (default: ~/.incident-commander/config.toml)")
	scenarioFlag := flag.String("scenario", "", "built-in scenario name override")
	fixtureFlag := flag.String("fixture", "", "scenario fixture file override")
	speedFlag := flag.Float64("speed", 0, "initial speed multiplier override")
	headless := flag.Bool("headless", false, "play once and log the timeline instead of drawing the terminal UI")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("load config: %v", err)
		return 1
	}

	scenarioName := firstNonEmpty(*scenarioFlag, cfg.Scenario.Name)
	fixturePath := firstNonEmpty(*fixtureFlag, cfg.Scenario.Path)
	if *scenarioFlag != "" && *fixtureFlag == "" {
		fixturePath = ""
	}
	sc, err := scenario.Resolve(scenarioName, fixturePath)
	if err != nil {
		log.Printf("load scenario: %v", err)
		return 1
	}

	speed := cfg.Playback.Speed
	if *speedFlag != 0 {
		speed = *speedFlag
	}

	logger, closeLog, err := openLogger(cfg.Monitor.LogPath, *headless)
	if err != nil {
		log.Printf("open log: %v", err)
		return 1
	}
	defer closeLog()

	bus := inproc.New(cfg.Monitor.Buffer)
	defer bus.Close()

	ctrl, err := playback.New(sc, bus, playback.Config{
		TickInterval: cfg.TickInterval(),
		Speed:        speed,
	}, logger)
	if err != nil {
		logger.Printf("create playback: %v", err)
		return 1
	}
	defer ctrl.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *headless {
		if err := runHeadless(ctx, ctrl, bus, logger); err != nil {
			logger.Printf("headless replay failed: %v", err)
			return 1
		}
		return 0
	}

	if err := runUI(ctx, ctrl, bus, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
		return 1
	}
	return 0
}

func runHeadless(ctx context.Context, ctrl *playback.Controller, bus *inproc.Bus, logger *log.Logger) error {
	updates := bus.Register("headless")
	defer bus.Unregister("headless")

	logger.Printf("replaying scenario=%s title=%q run_time=%s", ctrl.Scenario().Name, ctrl.Scenario().Title, ctrl.Scenario().RunTime)
	if err := ctrl.Play(); err != nil {
		return err
	}

	var feed monitor.Feed
	for {
		select {
		case <-ctx.Done():
			ctrl.Pause()
			return ctx.Err()
		case state, ok := <-updates:
			if !ok {
				return errors.New("snapshot stream closed")
			}
			for _, line := range feed.Lines(state) {
				logger.Print(line)
			}
			if state.Status == domain.StatusComplete {
				logger.Printf("MTTR reduction %.1f%%", ctrl.Scenario().Metrics.Reduction())
				return nil
			}
		}
	}
}

func runUI(ctx context.Context, ctrl *playback.Controller, bus *inproc.Bus, cfg config.Config) error {
	sc := ctrl.Scenario()
	app := tview.NewApplication()

	phaseView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	phaseView.SetTitle(sc.Title).SetBorder(true)

	eventsView := tview.NewTextView().
		SetDynamicColors(false).
		SetWrap(true)
	eventsView.SetTitle("Timeline").SetBorder(true)

	messagesView := tview.NewTextView().
		SetDynamicColors(false).
		SetWrap(true)
	messagesView.SetTitle("Agent Messages").SetBorder(true)

	agentsView := tview.NewTextView().
		SetDynamicColors(false).
		SetWrap(false)
	agentsView.SetTitle("Agents").SetBorder(true)

	metricsView := tview.NewTextView().
		SetDynamicColors(false).
		SetWrap(false)
	metricsView.SetTitle("MTTR").SetBorder(true)
	metricsView.SetText(monitor.RenderMetrics(sc.Metrics))

	statusView := tview.NewTextView().
		SetDynamicColors(false).
		SetWrap(false)
	statusView.SetBorder(true).SetTitle("Space play/pause | R reset | +/- speed | F10 quit")

	feeds := tview.NewFlex().
		AddItem(eventsView, 0, 3, false).
		AddItem(messagesView, 0, 2, false)
	bottom := tview.NewFlex().
		AddItem(agentsView, 0, 2, false).
		AddItem(metricsView, 0, 1, false)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(phaseView, 3, 0, false).
		AddItem(feeds, 0, 3, true).
		AddItem(bottom, len(sc.Agents)+3, 0, false).
		AddItem(statusView, 3, 0, false)

	render := func(state domain.DemoState) {
		phaseView.SetText(monitor.RenderPhaseBar(sc.Clock(), state.Phase))
		eventsView.SetText(monitor.RenderEvents(state.Events))
		eventsView.ScrollToEnd()
		messagesView.SetText(monitor.RenderMessages(state.Messages))
		messagesView.ScrollToEnd()
		agentsView.SetText(monitor.RenderAgents(sc, state))
		statusView.SetText(monitor.RenderStatus(state))
	}
	render(ctrl.Snapshot())

	steps := newSpeedSteps(cfg.Playback.SpeedSteps, ctrl.Snapshot().Speed)
	setSpeed := func(v float64) {
		if err := ctrl.SetSpeed(v); err != nil {
			statusView.SetText("speed: " + err.Error())
		}
	}

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF10, tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
		default:
			return event
		}
		switch event.Rune() {
		case ' ':
			if ctrl.Snapshot().IsPlaying {
				ctrl.Pause()
				return nil
			}
			if err := ctrl.Play(); err != nil {
				statusView.SetText(err.Error())
			}
		case 'r', 'R':
			ctrl.Reset()
		case '+', '=':
			setSpeed(steps.up())
		case '-':
			setSpeed(steps.down())
		case 'q', 'Q':
			app.Stop()
		default:
			return event
		}
		return nil
	})

	updates := bus.Register("ui")
	go func() {
		for state := range updates {
			app.QueueUpdateDraw(func() {
				render(state)
			})
		}
	}()
	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	if cfg.Playback.Autoplay {
		if err := ctrl.Play(); err != nil {
			return err
		}
	}
	return app.SetRoot(root, true).EnableMouse(false).Run()
}

func openLogger(path string, headless bool) (*log.Logger, func(), error) {
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return log.New(f, "", log.LstdFlags), func() { _ = f.Close() }, nil
	}
	if headless {
		return log.Default(), func() {}, nil
	}
	// The terminal UI owns the screen; log lines would draw over it.
	return log.New(io.Discard, "", 0), func() {}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
