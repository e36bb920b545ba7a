package inproc

import (
	"errors"
	"testing"

	"incident_commander/internal/domain"
)

func TestPublishFansOut(t *testing.T) {
	bus := New(4)
	a := bus.Register("a")
	b := bus.Register("b")
	if again := bus.Register("a"); again != a {
		t.Fatalf("expected re-register to return the same channel")
	}

	if err := bus.Publish(domain.DemoState{Phase: domain.PhaseTriage}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for name, ch := range map[string]<-chan domain.DemoState{"a": a, "b": b} {
		got := <-ch
		if got.Phase != domain.PhaseTriage {
			t.Fatalf("subscriber %s got phase %s", name, got.Phase)
		}
	}
}

func TestPublishReportsFullQueue(t *testing.T) {
	bus := New(1)
	slow := bus.Register("slow")
	if err := bus.Publish(domain.DemoState{}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	err := bus.Publish(domain.DemoState{})
	if !errors.Is(err, ErrSubscriberQueueFull) {
		t.Fatalf("err=%v want ErrSubscriberQueueFull", err)
	}
	<-slow
	if err := bus.Publish(domain.DemoState{}); err != nil {
		t.Fatalf("publish after drain: %v", err)
	}
}

func TestUnregisterAndClose(t *testing.T) {
	bus := New(0)
	ch := bus.Register("viewer")
	bus.Unregister("viewer")
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unregister")
	}
	bus.Unregister("viewer")

	other := bus.Register("other")
	bus.Close()
	bus.Close()
	if _, ok := <-other; ok {
		t.Fatalf("expected channel closed after bus close")
	}
	if err := bus.Publish(domain.DemoState{}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("err=%v want ErrBusClosed", err)
	}
	late := bus.Register("late")
	if _, ok := <-late; ok {
		t.Fatalf("expected registration on a closed bus to yield a closed channel")
	}
}
