package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"incident_commander/internal/domain"
	"incident_commander/internal/messaging/inproc"
	"incident_commander/internal/playback"
	"incident_commander/internal/scenario"
)

// lockedBuffer lets the test read log output while the tick loop may still
// be writing its final lines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newReplay(t *testing.T, interval time.Duration, speed float64, out io.Writer) (*playback.Controller, *inproc.Bus, *log.Logger) {
	t.Helper()
	sc, err := scenario.Builtin("api-gateway-cascade")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	bus := inproc.New(1024)
	logger := log.New(out, "", 0)
	ctrl, err := playback.New(sc, bus, playback.Config{TickInterval: interval, Speed: speed}, logger)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	t.Cleanup(func() {
		ctrl.Close()
		bus.Close()
	})
	return ctrl, bus, logger
}

func TestRunHeadlessPlaysToCompletion(t *testing.T) {
	var out lockedBuffer
	ctrl, bus, logger := newReplay(t, time.Millisecond, 500, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := runHeadless(ctx, ctrl, bus, logger); err != nil {
		t.Fatalf("run headless: %v", err)
	}

	logs := out.String()
	for _, want := range []string{
		"replaying scenario=api-gateway-cascade",
		"event [00:00] cascade-1:",
		"phase resolution",
		"status complete",
		"MTTR reduction",
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("headless log missing %q:\n%s", want, logs)
		}
	}
	if s := ctrl.Snapshot(); s.Status != domain.StatusComplete || s.Elapsed != ctrl.Scenario().RunTime {
		t.Fatalf("status=%s elapsed=%s want complete at %s", s.Status, s.Elapsed, ctrl.Scenario().RunTime)
	}
}

func TestRunHeadlessStopsOnCancel(t *testing.T) {
	ctrl, bus, logger := newReplay(t, time.Hour, 1, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runHeadless(ctx, ctrl, bus, logger); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if ctrl.Snapshot().IsPlaying {
		t.Fatalf("playback still running after cancel")
	}
}

func TestOpenLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.log")
	logger, closeLog, err := openLogger(path, false)
	if err != nil {
		t.Fatalf("open logger: %v", err)
	}
	logger.Printf("playback started session=abc")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "playback started session=abc") {
		t.Fatalf("log file contents %q", data)
	}
}

func TestOpenLoggerDefaults(t *testing.T) {
	logger, closeLog, err := openLogger("", true)
	if err != nil {
		t.Fatalf("open logger: %v", err)
	}
	closeLog()
	if logger != log.Default() {
		t.Fatalf("headless without a log path should use the default logger")
	}

	logger, closeLog, err = openLogger("", false)
	if err != nil {
		t.Fatalf("open logger: %v", err)
	}
	closeLog()
	if logger.Writer() != io.Discard {
		t.Fatalf("terminal UI logger should discard output")
	}
}

func TestOpenLoggerBadPath(t *testing.T) {
	if _, _, err := openLogger(filepath.Join(t.TempDir(), "missing", "replay.log"), false); err == nil {
		t.Fatalf("expected error for unwritable log path")
	}
}
