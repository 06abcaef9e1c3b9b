package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/dom/htmldoc"
	"github.com/jakopako/pinpoint/internal/geometry"
	"github.com/jakopako/pinpoint/internal/recorder"
)

func testAssembler() *Assembler {
	a := NewAssembler()
	a.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	a.newID = func() string { return "test-id" }
	return a
}

func TestSanitizeComment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain text", "plain text"},
		{"<b>broken</b> button", "broken button"},
		{"a < b & c", "a < b & c"},
		{"<script>alert(1)</script>hi", "hi"},
		{"  padded  ", "padded"},
		{`<img src=x onerror="alert(1)">`, ""},
	}
	a := testAssembler()
	for _, tt := range tests {
		if got := a.SanitizeComment(tt.input); got != tt.expected {
			t.Errorf("SanitizeComment(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}

func TestAssemble(t *testing.T) {
	doc, err := htmldoc.ParseString(`<html><body><div id="x"></div></body></html>`)
	if err != nil {
		t.Fatalf("unexpected error while parsing: %v", err)
	}
	target, _ := doc.ElementByID("x")
	logs := []recorder.LogEntry{
		{Kind: recorder.LogKindLog, Args: []any{"a"}},
		{Kind: recorder.LogKindError, Args: []any{"b"}},
		{Kind: recorder.LogKindError, Args: []any{"c"}},
		{Kind: recorder.LogKindWarn, Args: []any{"d"}},
	}
	interactions := []recorder.InteractionEntry{{Kind: recorder.InteractionClick, Target: "#x"}}

	tests := []struct {
		name  string
		input Input
		check func(t *testing.T, r *Report)
	}{
		{
			name: "comment only",
			input: Input{
				URL:     "http://example.com",
				Comment: "no selection",
				Logs:    logs,
			},
			check: func(t *testing.T, r *Report) {
				if r.HasSelection() || r.Rect != nil || r.Logs != nil {
					t.Errorf("comment-only report carries diagnostics: %+v", r)
				}
				if r.Comment != "no selection" || r.URL != "http://example.com" {
					t.Errorf("unexpected report %+v", r)
				}
			},
		},
		{
			name: "with screenshot",
			input: Input{
				Comment:      "broken",
				Target:       target,
				Rect:         geometry.Rect{Top: 1, Left: 2, Width: 3, Height: 4},
				Image:        &dom.Image{Format: dom.ImageFormatPNG, Width: 3, Height: 4, Data: []byte{1, 2, 3}},
				Logs:         logs,
				Interactions: interactions,
			},
			check: func(t *testing.T, r *Report) {
				if r.Target != "#x" {
					t.Errorf("Target = %q; want #x", r.Target)
				}
				if r.Rect == nil || r.Rect.Width != 3 {
					t.Errorf("Rect = %v", r.Rect)
				}
				if !strings.HasPrefix(r.Screenshot, "data:image/png;base64,") {
					t.Errorf("Screenshot = %q", r.Screenshot)
				}
				s := r.Summary()
				if s.Errors != 2 || s.Logs[recorder.LogKindLog] != 1 || s.Logs[recorder.LogKindWarn] != 1 || s.Interactions != 1 || !s.Screenshot {
					t.Errorf("Summary() = %+v", s)
				}
				if len(r.Errors()) != 2 {
					t.Errorf("len(Errors()) = %d; want 2", len(r.Errors()))
				}
			},
		},
		{
			name: "capture failed",
			input: Input{
				Comment:    "kept",
				Target:     target,
				CaptureErr: errors.New("canvas tainted"),
			},
			check: func(t *testing.T, r *Report) {
				if r.Screenshot != "" || r.Image != nil {
					t.Errorf("failed capture produced a screenshot")
				}
				if r.CaptureError != "canvas tainted" || r.Comment != "kept" {
					t.Errorf("unexpected report %+v", r)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := testAssembler().Assemble(tc.input)
			if r.ID != "test-id" || r.CreatedAt.IsZero() {
				t.Errorf("unexpected id %q or time %v", r.ID, r.CreatedAt)
			}
			tc.check(t, r)
		})
	}
}

func TestNewAssemblerGeneratesIDs(t *testing.T) {
	a := NewAssembler()
	r1 := a.Assemble(Input{Comment: "a"})
	r2 := a.Assemble(Input{Comment: "b"})
	if r1.ID == "" || r1.ID == r2.ID {
		t.Errorf("ids %q and %q should be unique", r1.ID, r2.ID)
	}
}
