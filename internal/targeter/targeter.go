// Package targeter implements pointer driven element targeting: it marks the
// element under the pointer and promotes it to the selection on click.
package targeter

import (
	"fmt"
	"log/slog"

	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/geometry"
)

// Marker classes applied to the hovered and the selected element. A host
// stylesheet decides how they are rendered.
const (
	HoverClass    = "pinpoint-outline"
	SelectedClass = "pinpoint-outline-selected"
)

// State is the state of a Targeter.
type State int

const (
	// Idle means targeting is disabled.
	Idle State = iota
	// Tracking means the pointer is tracked and no selection is being edited.
	Tracking
	// Targeting means an element was selected and is waiting for Release.
	Targeting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	case Targeting:
		return "targeting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SelectFunc is called once per completed selection click with the selected
// element and its page rectangle.
type SelectFunc func(el dom.Element, rect geometry.Rect)

// Targeter tracks hover and selection on a document. It is not safe for
// concurrent use; events must be dispatched on the goroutine that owns it.
type Targeter struct {
	doc      dom.Document
	onSelect SelectFunc
	excluded []dom.Element
	logger   *slog.Logger

	state    State
	hovered  dom.Element
	selected dom.Element
	removers []func()
}

type Option func(*Targeter)

// WithExcluded sets the elements whose subtrees are exempt from targeting.
// Clicks inside them pass through untouched.
func WithExcluded(els ...dom.Element) Option {
	return func(t *Targeter) {
		t.excluded = els
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Targeter) {
		t.logger = l
	}
}

// New returns a disabled targeter for doc.
func New(doc dom.Document, onSelect SelectFunc, opts ...Option) *Targeter {
	t := &Targeter{
		doc:      doc,
		onSelect: onSelect,
		state:    Idle,
	}
	for _, o := range opts {
		o(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With(slog.String("component", "targeter"))
	return t
}

// SetExcluded replaces the excluded elements.
func (t *Targeter) SetExcluded(els ...dom.Element) {
	t.excluded = els
}

// SetEnabled attaches or detaches the targeter. It is idempotent.
// Disabling removes both markers and forgets hover and selection.
func (t *Targeter) SetEnabled(enabled bool) {
	if enabled == t.Enabled() {
		return
	}
	if enabled {
		t.removers = []func(){
			t.doc.AddEventListener(dom.EventPointerMove, false, t.handleMove),
			t.doc.AddEventListener(dom.EventClick, true, t.handleClick),
		}
		t.state = Tracking
		t.logger.Debug("targeting enabled")
		return
	}
	for _, rm := range t.removers {
		rm()
	}
	t.removers = nil
	t.unmark(t.hovered, HoverClass)
	t.unmark(t.selected, SelectedClass)
	t.hovered = nil
	t.selected = nil
	t.state = Idle
	t.logger.Debug("targeting disabled")
}

func (t *Targeter) Enabled() bool {
	return t.state != Idle
}

func (t *Targeter) State() State {
	return t.state
}

// Hovered returns the hover reference, which may be nil.
func (t *Targeter) Hovered() dom.Element {
	return t.hovered
}

// Selected returns the selection reference, which may be nil.
func (t *Targeter) Selected() dom.Element {
	return t.selected
}

// Rect returns a freshly computed page rectangle of the selection.
func (t *Targeter) Rect() (geometry.Rect, error) {
	if t.selected == nil {
		return geometry.Rect{}, fmt.Errorf("no element is selected")
	}
	return t.rectOf(t.selected)
}

// Release ends the Targeting state after the editor was submitted or
// cancelled. The selection marker stays until the next selection or until
// targeting is disabled.
func (t *Targeter) Release() {
	if t.state == Targeting {
		t.state = Tracking
	}
}

func (t *Targeter) handleMove(ev *dom.Event) {
	e, err := t.doc.ElementAt(ev.ClientX, ev.ClientY)
	if err != nil {
		t.logger.Debug(fmt.Sprintf("hit-testing at (%v, %v) failed: %v", ev.ClientX, ev.ClientY, err))
		e = nil
	}
	switch {
	case !t.targetable(e):
		t.clearHover()
	case dom.Same(e, t.selected):
		t.clearHover()
	default:
		if !dom.Same(t.hovered, e) {
			t.unmark(t.hovered, HoverClass)
		}
		t.mark(e, HoverClass)
		t.hovered = e
	}
}

func (t *Targeter) handleClick(ev *dom.Event) {
	if t.isExcluded(ev.Target) {
		return
	}
	ev.PreventDefault()
	ev.StopPropagation()

	next := t.hovered
	if next == nil || !next.Connected() {
		t.logger.Debug("click without a hovered element swallowed")
		return
	}
	if t.selected != nil && !dom.Same(t.selected, next) {
		t.unmark(t.selected, SelectedClass)
	}
	t.unmark(next, HoverClass)
	t.mark(next, SelectedClass)
	t.selected = next
	t.state = Targeting

	rect, err := t.rectOf(next)
	if err != nil {
		t.logger.Debug(fmt.Sprintf("could not measure the selected element: %v", err))
	}
	if t.onSelect != nil {
		t.onSelect(next, rect)
	}
}

func (t *Targeter) clearHover() {
	t.unmark(t.hovered, HoverClass)
	t.hovered = nil
}

// targetable reports whether e may carry the hover marker.
func (t *Targeter) targetable(e dom.Element) bool {
	if e == nil || !e.Connected() {
		return false
	}
	if dom.IsDocumentLevel(t.doc, e) {
		return false
	}
	return !t.isExcluded(e)
}

func (t *Targeter) isExcluded(e dom.Element) bool {
	if e == nil {
		return false
	}
	for _, x := range t.excluded {
		if x != nil && x.Contains(e) {
			return true
		}
	}
	return false
}

func (t *Targeter) rectOf(e dom.Element) (geometry.Rect, error) {
	box, err := e.Bounds()
	if err != nil {
		return geometry.Rect{}, err
	}
	scroll, err := t.doc.Scroll()
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.PageRect(box, scroll), nil
}

func (t *Targeter) mark(e dom.Element, class string) {
	if e == nil || !e.Connected() {
		return
	}
	if err := e.AddClass(class); err != nil {
		t.logger.Debug(fmt.Sprintf("could not add class %s: %v", class, err))
	}
}

func (t *Targeter) unmark(e dom.Element, class string) {
	if e == nil || !e.Connected() {
		return
	}
	if err := e.RemoveClass(class); err != nil {
		t.logger.Debug(fmt.Sprintf("could not remove class %s: %v", class, err))
	}
}
