package events

import (
	"errors"
	"testing"
)

type recordingObserver struct {
	name   string
	filter string
	seen   []Event
	err    error
}

func (o *recordingObserver) OnEvent(event Event) error {
	o.seen = append(o.seen, event)
	return o.err
}

func (o *recordingObserver) Name() string { return o.name }

func (o *recordingObserver) ShouldHandle(eventType string) bool {
	return o.filter == "" || o.filter == eventType
}

func TestDispatcher_Dispatch(t *testing.T) {
	d := NewDispatcher()

	all := &recordingObserver{name: "all"}
	turnsOnly := &recordingObserver{name: "turns", filter: TypeTurnUpdated}
	failing := &recordingObserver{name: "failing", err: errors.New("boom")}
	d.Register(all)
	d.Register(failing)
	d.Register(turnsOnly)

	d.Dispatch(Event{Type: TypeMatchStarted})
	d.Dispatch(Event{Type: TypeTurnUpdated, Data: TurnUpdatedEvent{Turn: 2}})

	if len(all.seen) != 2 {
		t.Errorf("all observer saw %d events, want 2", len(all.seen))
	}
	if len(turnsOnly.seen) != 1 || turnsOnly.seen[0].Type != TypeTurnUpdated {
		t.Errorf("filtered observer saw %v, want only turn:updated", turnsOnly.seen)
	}
	// A failing observer must not stop delivery to the later ones.
	if len(failing.seen) != 2 {
		t.Errorf("failing observer saw %d events, want 2", len(failing.seen))
	}

	d.Unregister(failing)
	if d.ObserverCount() != 2 {
		t.Errorf("ObserverCount() = %d, want 2", d.ObserverCount())
	}
}

func TestSubscription(t *testing.T) {
	s := NewSubscription()
	if !s.Active() {
		t.Error("new subscription should be active")
	}
	s.Close()
	s.Close() // idempotent
	if s.Active() {
		t.Error("closed subscription should be inactive")
	}
}
