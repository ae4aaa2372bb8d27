package codeact

import (
	"testing"
	"time"
)

func TestBusSubscribeKindFilter(t *testing.T) {
	b := NewBus()
	var got []EventKind
	b.Subscribe(EventFinish, func(ev Event) { got = append(got, ev.Kind) })

	b.Emit(Event{Kind: EventIterationStart})
	b.Emit(Event{Kind: EventFinish})
	b.Emit(Event{Kind: EventCodeExecuted})

	if len(got) != 1 || got[0] != EventFinish {
		t.Errorf("observer saw %v, want only finish", got)
	}
}

func TestBusSubscribeAllSeesEverything(t *testing.T) {
	b := NewBus()
	var n int
	b.SubscribeAll(func(Event) { n++ })

	b.Emit(Event{Kind: EventIterationStart})
	b.Emit(Event{Kind: EventCodeGenerated})

	if n != 2 {
		t.Errorf("observer saw %d events, want 2", n)
	}
}

func TestBusDeliveryOrder(t *testing.T) {
	b := NewBus()
	var order []int
	b.SubscribeAll(func(Event) { order = append(order, 1) })
	b.SubscribeAll(func(Event) { order = append(order, 2) })

	b.Emit(Event{Kind: EventFinish})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("delivery order = %v, want [1 2]", order)
	}
}

func TestBusObserverPanicDoesNotStopDelivery(t *testing.T) {
	b := NewBus()
	var sawFinish, sawError bool
	b.SubscribeAll(func(Event) { panic("bad observer") })
	b.SubscribeAll(func(ev Event) {
		switch ev.Kind {
		case EventFinish:
			sawFinish = true
		case EventError:
			sawError = true
		}
	})

	b.Emit(Event{Kind: EventFinish})

	if !sawFinish {
		t.Error("panicking observer stopped delivery to later observers")
	}
	if !sawError {
		t.Error("observer panic did not surface as an error event")
	}
}

func TestBusErrorObserverPanicNotRecursive(t *testing.T) {
	b := NewBus()
	b.SubscribeAll(func(Event) { panic("always") })

	// Must return rather than recurse forever.
	done := make(chan struct{})
	go func() {
		b.Emit(Event{Kind: EventFinish})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit did not return with a panicking observer")
	}
}

func TestBusTimestampSet(t *testing.T) {
	b := NewBus()
	var ts time.Time
	b.SubscribeAll(func(ev Event) { ts = ev.Timestamp })

	b.Emit(Event{Kind: EventFinish})

	if ts.IsZero() {
		t.Error("Emit did not stamp the event")
	}
}

func TestBusEventsChannelNonBlocking(t *testing.T) {
	b := NewBus()
	ch := b.Events(2)

	// Nobody is draining; emitting more than the buffer must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Emit(Event{Kind: EventIterationStart, Iteration: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full events channel")
	}

	// The buffered events are the first ones emitted.
	ev := <-ch
	if ev.Iteration != 0 {
		t.Errorf("first buffered event iteration = %d, want 0", ev.Iteration)
	}
}
