package sftpclient

import (
	"sort"
	"sync"
)

// Event is a session lifecycle event.
type Event string

const (
	EventError Event = "error" // EventError is emitted when the session fails
	EventEnd   Event = "end"   // EventEnd is emitted when the session has ended
	EventClose Event = "close" // EventClose is emitted after the session has been closed
)

// Listener is called when an event is emitted. The error is set for
// EventError and for an EventEnd or EventClose caused by a lost session, it is
// nil when the session ended through Disconnect.
type Listener func(err error)

// Group names a set of listeners that are attached and detached together.
type Group string

const (
	// GroupGlobal listeners live as long as the client.
	GroupGlobal Group = "global"
	// GroupTemp listeners live for the duration of a single operation.
	GroupTemp Group = "temp"
)

type registration struct {
	id    int
	group Group
	fn    Listener
}

// Listeners is a registry of session event observers.
type Listeners struct {
	mu     sync.Mutex
	nextID int
	byEvt  map[Event][]registration
}

// NewListeners returns an empty registry.
func NewListeners() *Listeners {
	return &Listeners{byEvt: make(map[Event][]registration)}
}

// On registers a listener for an event in a group. The returned function
// removes the registration, calling it more than once is harmless.
func (l *Listeners) On(evt Event, group Group, fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.byEvt[evt] = append(l.byEvt[evt], registration{id: id, group: group, fn: fn})
	return func() { l.remove(evt, id) }
}

// Replace removes all listeners of the group and registers the given
// handlers in their place, leaving at most one listener per event in the
// group.
func (l *Listeners) Replace(group Group, handlers map[Event]Listener) func() {
	l.RemoveAll(group)

	evts := make([]string, 0, len(handlers))
	for evt := range handlers {
		evts = append(evts, string(evt))
	}
	sort.Strings(evts)

	for _, evt := range evts {
		l.On(Event(evt), group, handlers[Event(evt)])
	}
	return func() { l.RemoveAll(group) }
}

func (l *Listeners) remove(evt Event, id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	regs := l.byEvt[evt]
	for i, r := range regs {
		if r.id == id {
			l.byEvt[evt] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// RemoveAll removes every listener of the group for all events.
func (l *Listeners) RemoveAll(group Group) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for evt, regs := range l.byEvt {
		kept := regs[:0:0]
		for _, r := range regs {
			if r.group != group {
				kept = append(kept, r)
			}
		}
		l.byEvt[evt] = kept
	}
}

// Count returns the number of listeners of a group registered for an event.
func (l *Listeners) Count(evt Event, group Group) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, r := range l.byEvt[evt] {
		if r.group == group {
			n++
		}
	}
	return n
}

// Emit calls the listeners of the event in registration order. Listeners are
// called without holding the registry lock so they may modify the registry.
func (l *Listeners) Emit(evt Event, err error) {
	l.mu.Lock()
	regs := make([]registration, len(l.byEvt[evt]))
	copy(regs, l.byEvt[evt])
	l.mu.Unlock()

	for _, r := range regs {
		r.fn(err)
	}
}
