package recorder

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jakopako/pinpoint/internal/dom"
)

// InteractionKind is the kind of a recorded interaction.
type InteractionKind string

const (
	InteractionClick  InteractionKind = "click"
	InteractionInput  InteractionKind = "input"
	InteractionChange InteractionKind = "change"
)

var interactionEvents = map[dom.EventType]InteractionKind{
	dom.EventClick:  InteractionClick,
	dom.EventInput:  InteractionInput,
	dom.EventChange: InteractionChange,
}

// InteractionEntry is one recorded click, input or change.
type InteractionEntry struct {
	Kind      InteractionKind `json:"type"`
	Target    string          `json:"target"`
	Value     *string         `json:"value,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// InteractionRecorder records interactions with a document.
type InteractionRecorder struct {
	ring   *Ring[InteractionEntry]
	now    func() time.Time
	logger *slog.Logger
}

// NewInteractionRecorder returns a recorder keeping the last capacity
// interactions.
func NewInteractionRecorder(capacity int) *InteractionRecorder {
	return &InteractionRecorder{
		ring:   NewRing[InteractionEntry](capacity),
		now:    time.Now,
		logger: slog.With(slog.String("component", "interaction-recorder")),
	}
}

var defaultInteractionRecorder = sync.OnceValue(func() *InteractionRecorder {
	return NewInteractionRecorder(DefaultCapacity)
})

// DefaultInteractionRecorder returns the process-wide interaction recorder.
func DefaultInteractionRecorder() *InteractionRecorder {
	return defaultInteractionRecorder()
}

// Attach registers capture listeners for clicks, inputs and changes on src.
// The returned func removes them.
func (r *InteractionRecorder) Attach(src dom.EventSource) (detach func()) {
	removers := make([]func(), 0, len(interactionEvents))
	for typ, kind := range interactionEvents {
		kind := kind
		removers = append(removers, src.AddEventListener(typ, true, func(ev *dom.Event) {
			r.record(kind, ev.Target)
		}))
	}
	return func() {
		for _, rm := range removers {
			rm()
		}
	}
}

func (r *InteractionRecorder) record(kind InteractionKind, target dom.Element) {
	r.ring.Push(InteractionEntry{
		Kind:      kind,
		Target:    Describe(target),
		Value:     r.value(target),
		Timestamp: r.now(),
	})
}

func (r *InteractionRecorder) value(target dom.Element) (v *string) {
	if target == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Debug(fmt.Sprintf("could not read value of interaction target: %v", p))
			v = nil
		}
	}()
	s, ok := target.Value()
	if !ok {
		return nil
	}
	return &s
}

// RecentInteractions returns the recorded interactions, oldest first. The
// result does not share memory with the recorder.
func (r *InteractionRecorder) RecentInteractions() []InteractionEntry {
	entries := r.ring.Snapshot()
	for i, e := range entries {
		if e.Value != nil {
			v := *e.Value
			entries[i].Value = &v
		}
	}
	return entries
}

func (r *InteractionRecorder) Len() int {
	return r.ring.Len()
}

// Describe returns a short CSS-like descriptor of el: "#id" if it has an
// id, "tag.class1.class2" if it has classes, or the lowercase tag name.
// Non-element nodes are described by their node name. Describe never
// panics: an accessor that panics counts as empty and the next one is
// tried. It returns "unknown" when nothing can be read.
func Describe(el dom.Element) string {
	if el == nil {
		return ""
	}
	if id := guarded(el.ID); id != "" {
		return "#" + id
	}
	tag := guarded(el.TagName)
	cn := guarded(func() string {
		if cn, ok := el.ClassName(); ok {
			return cn
		}
		return ""
	})
	if classes := strings.Fields(cn); len(classes) > 0 {
		return tag + "." + strings.Join(classes, ".")
	}
	if tag != "" {
		return tag
	}
	if name := guarded(el.NodeName); name != "" {
		return strings.ToLower(name)
	}
	return "unknown"
}

// guarded calls fn and returns "" if it panics.
func guarded(fn func() string) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	return fn()
}
