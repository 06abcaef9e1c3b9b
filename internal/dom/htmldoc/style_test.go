package htmldoc

import (
	"testing"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "single unterminated", input: "z-index: 2", expected: "z-index: 2"},
		{name: "last declaration unterminated", input: "left: 0px; top: 0px; width: 50px; height: 50px", expected: "left: 0px; top: 0px; width: 50px; height: 50px"},
		{name: "terminated", input: "left: 0px; height: 50px;", expected: "left: 0px; height: 50px"},
		{name: "duplicate property keeps the last value", input: "z-index: 1; z-index: 2", expected: "z-index: 2"},
		{name: "important", input: "display: none !important", expected: "display: none !important"},
		{name: "important terminated", input: "box-shadow: 0 0 0 4px #ff0 !important; top: 1px;", expected: "box-shadow: 0 0 0 4px #ff0 !important; top: 1px"},
		{name: "stray semicolons", input: "; left: 1px;; top: 2px", expected: "left: 1px; top: 2px"},
		{name: "declaration without value is skipped", input: "bogus; top: 2px", expected: "top: 2px"},
		{name: "uppercase property", input: "Pointer-Events: none", expected: "pointer-events: none"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseStyle(tc.input).String(); got != tc.expected {
				t.Errorf("parseStyle(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestStylePriority(t *testing.T) {
	d, err := ParseString(`<html><body><div id="x" style="left: 0px; width: 10px; box-shadow: none !important"></div></body></html>`)
	if err != nil {
		t.Fatalf("unexpected error while parsing: %v", err)
	}
	x := mustQuery(t, d, "#x")
	if got := x.StylePriority("box-shadow"); got != "important" {
		t.Errorf("StylePriority(box-shadow) = %q; want important", got)
	}
	if got := x.StylePriority("width"); got != "" {
		t.Errorf("StylePriority(width) = %q; want empty", got)
	}
	if err := x.SetStyle("box-shadow", "0 0 0 4px red"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := x.StylePriority("box-shadow"); got != "" {
		t.Errorf("StylePriority(box-shadow) after SetStyle = %q; want empty", got)
	}
	if err := x.SetStylePriority("box-shadow", "none", "important"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html, err := x.OuterHTML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `<div id="x" style="left: 0px; width: 10px; box-shadow: none !important"></div>`; html != want {
		t.Errorf("OuterHTML() = %s; want %s", html, want)
	}
}

func TestSetStyleKeepsTrailingDeclaration(t *testing.T) {
	d, err := ParseString(`<html><body><div id="t" style="left: 0px; top: 0px; width: 50px; height: 50px; z-index: 2"></div></body></html>`)
	if err != nil {
		t.Fatalf("unexpected error while parsing: %v", err)
	}
	el := mustQuery(t, d, "#t")
	if err := el.SetStyle("box-shadow", "0 0 0 4px #ff0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := el.SetStyle("box-shadow", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html, _ := el.OuterHTML()
	if want := `<div id="t" style="left: 0px; top: 0px; width: 50px; height: 50px; z-index: 2"></div>`; html != want {
		t.Errorf("OuterHTML() = %s; want %s", html, want)
	}
	b, err := el.Bounds()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Height != 50 {
		t.Errorf("Bounds().Height = %v; want 50", b.Height)
	}
}
