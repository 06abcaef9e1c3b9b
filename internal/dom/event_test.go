package dom

import (
	"reflect"
	"testing"
)

func TestListenersDispatchOrder(t *testing.T) {
	var ls Listeners
	var calls []string
	ls.AddEventListener(EventClick, false, func(ev *Event) { calls = append(calls, "bubble") })
	ls.AddEventListener(EventClick, true, func(ev *Event) { calls = append(calls, "capture-1") })
	ls.AddEventListener(EventClick, true, func(ev *Event) { calls = append(calls, "capture-2") })
	ls.AddEventListener(EventInput, true, func(ev *Event) { calls = append(calls, "input") })

	if ok := ls.Dispatch(&Event{Type: EventClick, Cancelable: true}); !ok {
		t.Fatalf("expected default action to proceed")
	}
	want := []string{"capture-1", "capture-2", "bubble"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("got calls %v; want %v", calls, want)
	}
}

func TestListenersStopPropagation(t *testing.T) {
	tests := []struct {
		name     string
		stop     func(ev *Event)
		expected []string
	}{
		{
			name:     "stop propagation skips bubble phase only",
			stop:     func(ev *Event) { ev.StopPropagation() },
			expected: []string{"stopper", "capture"},
		},
		{
			name:     "stop immediate propagation skips everything",
			stop:     func(ev *Event) { ev.StopImmediatePropagation() },
			expected: []string{"stopper"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ls Listeners
			var calls []string
			ls.AddEventListener(EventClick, true, func(ev *Event) {
				calls = append(calls, "stopper")
				tc.stop(ev)
			})
			ls.AddEventListener(EventClick, true, func(ev *Event) { calls = append(calls, "capture") })
			ls.AddEventListener(EventClick, false, func(ev *Event) { calls = append(calls, "bubble") })
			ls.Dispatch(&Event{Type: EventClick})
			if !reflect.DeepEqual(calls, tc.expected) {
				t.Errorf("got calls %v; want %v", calls, tc.expected)
			}
		})
	}
}

func TestListenersPreventDefault(t *testing.T) {
	var ls Listeners
	ls.AddEventListener(EventClick, true, func(ev *Event) { ev.PreventDefault() })

	if ls.Dispatch(&Event{Type: EventClick, Cancelable: true}) {
		t.Errorf("cancelable event: expected default to be prevented")
	}
	if !ls.Dispatch(&Event{Type: EventClick}) {
		t.Errorf("non-cancelable event: expected default to proceed")
	}
}

func TestListenersRemove(t *testing.T) {
	var ls Listeners
	n := 0
	remove := ls.AddEventListener(EventPointerMove, false, func(ev *Event) { n++ })
	ls.Dispatch(&Event{Type: EventPointerMove})
	remove()
	remove()
	ls.Dispatch(&Event{Type: EventPointerMove})
	if n != 1 {
		t.Errorf("listener ran %d times; want 1", n)
	}
	if c := ls.Count(EventPointerMove); c != 0 {
		t.Errorf("Count = %d; want 0", c)
	}
}

func TestImageDataURL(t *testing.T) {
	img := Image{Format: ImageFormatPNG, Data: []byte("abc")}
	if got, want := img.DataURL(), "data:image/png;base64,YWJj"; got != want {
		t.Errorf("DataURL() = %q; want %q", got, want)
	}
}
