package geometry

import "testing"

func TestPageRect(t *testing.T) {
	tests := []struct {
		name     string
		box      Box
		scroll   Scroll
		expected Rect
	}{
		{
			name:     "no scroll",
			box:      Box{X: 10, Y: 20, Width: 30, Height: 40},
			expected: Rect{Top: 20, Left: 10, Width: 30, Height: 40},
		},
		{
			name:     "scrolled page",
			box:      Box{X: 10, Y: -80, Width: 30, Height: 40},
			scroll:   Scroll{X: 5, Y: 100},
			expected: Rect{Top: 20, Left: 15, Width: 30, Height: 40},
		},
		{
			name:     "element above the page origin clamps to zero",
			box:      Box{X: -50, Y: -10, Width: 30, Height: 40},
			expected: Rect{Top: 0, Left: 0, Width: 30, Height: 40},
		},
		{
			name:     "negative size clamps to zero",
			box:      Box{X: 1, Y: 1, Width: -3, Height: -4},
			expected: Rect{Top: 1, Left: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PageRect(tc.box, tc.scroll)
			if got != tc.expected {
				t.Errorf("PageRect(%+v, %+v) = %+v; want %+v", tc.box, tc.scroll, got, tc.expected)
			}
		})
	}
}

func TestRectBoxRoundTrip(t *testing.T) {
	s := Scroll{X: 12, Y: 300}
	b := Box{X: 4, Y: 8, Width: 15, Height: 16}
	got := PageRect(b, s).Box(s)
	if got != b {
		t.Errorf("round trip = %+v; want %+v", got, b)
	}
}

func TestBoxContains(t *testing.T) {
	b := Box{X: 10, Y: 10, Width: 10, Height: 10}
	tests := []struct {
		x, y     float64
		expected bool
	}{
		{10, 10, true},
		{19.9, 19.9, true},
		{20, 15, false},
		{15, 20, false},
		{9.9, 15, false},
	}
	for _, tt := range tests {
		if got := b.Contains(tt.x, tt.y); got != tt.expected {
			t.Errorf("Contains(%v, %v) = %v; want %v", tt.x, tt.y, got, tt.expected)
		}
	}
}

func TestBoxIntersectAndUnion(t *testing.T) {
	a := Box{X: 0, Y: 0, Width: 10, Height: 10}
	b := Box{X: 5, Y: 5, Width: 10, Height: 10}
	if got, want := a.Intersect(b), (Box{X: 5, Y: 5, Width: 5, Height: 5}); got != want {
		t.Errorf("Intersect = %+v; want %+v", got, want)
	}
	if got := a.Intersect(Box{X: 20, Y: 20, Width: 1, Height: 1}); !got.Empty() {
		t.Errorf("disjoint Intersect = %+v; want empty", got)
	}
	if got, want := a.Union(b), (Box{X: 0, Y: 0, Width: 15, Height: 15}); got != want {
		t.Errorf("Union = %+v; want %+v", got, want)
	}
	if got := (Box{}).Union(b); got != b {
		t.Errorf("Union with empty = %+v; want %+v", got, b)
	}
}
