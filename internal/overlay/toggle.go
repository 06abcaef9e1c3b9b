package overlay

import (
	"sync"

	"github.com/jakopako/pinpoint/internal/dom"
)

// Switch is implemented by the targeter.
type Switch interface {
	SetEnabled(enabled bool)
}

// Toggle turns targeting on and off.
type Toggle struct {
	mu      sync.Mutex
	enabled bool
	sw      Switch
}

func NewToggle(sw Switch) *Toggle {
	return &Toggle{sw: sw}
}

func (t *Toggle) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Set enables or disables targeting.
func (t *Toggle) Set(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
	t.sw.SetEnabled(enabled)
}

// Flip inverts the state and returns the new one.
func (t *Toggle) Flip() bool {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.mu.Unlock()
	t.sw.SetEnabled(enabled)
	return enabled
}

// IsHotkey reports whether k is Ctrl+Alt+C.
func IsHotkey(k dom.KeyPress) bool {
	return k.Ctrl && k.Alt && k.Code == "KeyC"
}

// Attach flips the toggle on every hotkey press dispatched to src.
func (t *Toggle) Attach(src dom.EventSource) (detach func()) {
	return src.AddEventListener(dom.EventKeyDown, false, func(ev *dom.Event) {
		if !IsHotkey(ev.Key) {
			return
		}
		ev.PreventDefault()
		t.Flip()
	})
}
