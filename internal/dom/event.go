package dom

import "sync"

// EventType names the events pinpoint listens to.
type EventType string

const (
	EventPointerMove EventType = "pointermove"
	EventClick       EventType = "click"
	EventInput       EventType = "input"
	EventChange      EventType = "change"
	EventKeyDown     EventType = "keydown"
)

// Event is dispatched to document listeners.
type Event struct {
	Type       EventType
	Target     Element
	ClientX    float64
	ClientY    float64
	Cancelable bool
	Key        KeyPress

	defaultPrevented   bool
	propagationStopped bool
	immediateStopped   bool
}

// PreventDefault cancels the default action of a cancelable event.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether a listener cancelled the event.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// StopPropagation keeps the event from reaching bubble phase listeners.
// Remaining capture listeners still run.
func (e *Event) StopPropagation() {
	e.propagationStopped = true
}

// StopImmediatePropagation keeps the event from reaching any further
// listener.
func (e *Event) StopImmediatePropagation() {
	e.propagationStopped = true
	e.immediateStopped = true
}

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool {
	return e.propagationStopped
}

// Listener handles a dispatched event.
type Listener func(ev *Event)

// EventSource accepts listeners and dispatches events to them.
type EventSource interface {
	// AddEventListener registers l. Capture listeners run before all
	// bubble listeners. The returned func removes the listener and may be
	// called more than once.
	AddEventListener(typ EventType, capture bool, l Listener) (remove func())
	// Dispatch runs the listeners for ev and reports whether the default
	// action should proceed.
	Dispatch(ev *Event) bool
}

type registration struct {
	id      uint64
	typ     EventType
	capture bool
	fn      Listener
}

// Listeners is an EventSource implementation shared by the backends.
// The zero value is ready to use.
type Listeners struct {
	mu     sync.Mutex
	nextID uint64
	regs   []registration
}

func (ls *Listeners) AddEventListener(typ EventType, capture bool, l Listener) func() {
	ls.mu.Lock()
	ls.nextID++
	id := ls.nextID
	ls.regs = append(ls.regs, registration{id: id, typ: typ, capture: capture, fn: l})
	ls.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { ls.remove(id) })
	}
}

func (ls *Listeners) remove(id uint64) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for i, r := range ls.regs {
		if r.id == id {
			ls.regs = append(ls.regs[:i:i], ls.regs[i+1:]...)
			return
		}
	}
}

// Count returns the number of registered listeners for typ.
func (ls *Listeners) Count(typ EventType) int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	n := 0
	for _, r := range ls.regs {
		if r.typ == typ {
			n++
		}
	}
	return n
}

func (ls *Listeners) Dispatch(ev *Event) bool {
	ls.mu.Lock()
	var capture, bubble []Listener
	for _, r := range ls.regs {
		if r.typ != ev.Type {
			continue
		}
		if r.capture {
			capture = append(capture, r.fn)
		} else {
			bubble = append(bubble, r.fn)
		}
	}
	ls.mu.Unlock()

	for _, fn := range capture {
		if ev.immediateStopped {
			break
		}
		fn(ev)
	}
	if !ev.propagationStopped {
		for _, fn := range bubble {
			if ev.immediateStopped {
				break
			}
			fn(ev)
		}
	}
	return !ev.defaultPrevented
}
