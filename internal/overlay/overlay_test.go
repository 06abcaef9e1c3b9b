package overlay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/dom/htmldoc"
	"github.com/jakopako/pinpoint/internal/editor"
	"github.com/jakopako/pinpoint/internal/recorder"
	"github.com/jakopako/pinpoint/internal/report"
	"github.com/jakopako/pinpoint/internal/targeter"
)

const page = `<html><body>
<div id="header" style="left: 0px; top: 0px; width: 400px; height: 20px">Header</div>
<div id="card" style="left: 0px; top: 40px; width: 200px; height: 100px">
  <button id="btn" style="left: 10px; top: 50px; width: 50px; height: 20px">Go</button>
</div>
<div id="widget" style="left: 300px; top: 40px; width: 50px; height: 50px"></div>
</body></html>`

type memoryWriter struct {
	reports chan *report.Report
	err     error
}

func newMemoryWriter() *memoryWriter {
	return &memoryWriter{reports: make(chan *report.Report, 10)}
}

func (w *memoryWriter) Write(_ context.Context, r *report.Report) error {
	if w.err != nil {
		return w.err
	}
	w.reports <- r
	return nil
}

func parse(t *testing.T) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(page, htmldoc.WithURL("http://example.com/app"), htmldoc.WithViewport(400, 300))
	if err != nil {
		t.Fatalf("unexpected error while parsing: %v", err)
	}
	return doc
}

type fixture struct {
	session *Session
	writer  *memoryWriter
	console *recorder.Console
}

func newFixture(t *testing.T, doc dom.Document, ed editor.Editor, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{writer: newMemoryWriter(), console: recorder.NewConsole(nil)}
	consoleRecorder := recorder.NewConsoleRecorder(10)
	uninstall, err := consoleRecorder.Install(f.console)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(uninstall)
	opts = append([]Option{
		WithConsoleRecorder(consoleRecorder),
		WithInteractionRecorder(recorder.NewInteractionRecorder(10)),
	}, opts...)
	s, err := NewSession(doc, ed, f.writer, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(s.Close)
	f.session = s
	s.Toggle().Set(true)
	return f
}

func clickAt(t *testing.T, p dom.Pointer, x, y float64) bool {
	t.Helper()
	ctx := context.Background()
	if err := p.MoveTo(ctx, x, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reached, err := p.Click(ctx, x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return reached
}

func byID(t *testing.T, doc dom.Document, id string) dom.Element {
	t.Helper()
	el, err := doc.ElementByID(id)
	if err != nil || el == nil {
		t.Fatalf("element #%s not found (%v)", id, err)
	}
	return el
}

func TestMount(t *testing.T) {
	doc := parse(t)
	root, mounted, err := Mount(doc)
	if err != nil || !mounted {
		t.Fatalf("Mount() = %v, %v; want a new root", mounted, err)
	}
	if root.ID() != RootID || root.Style("pointer-events") != "none" {
		t.Errorf("unexpected root id %q, pointer-events %q", root.ID(), root.Style("pointer-events"))
	}
	html, _ := root.OuterHTML()
	if !strings.Contains(html, RootAttribute) {
		t.Errorf("root %s lacks %s", html, RootAttribute)
	}
	if !dom.Same(root.Parent(), doc.Body()) {
		t.Errorf("root is not a child of the body")
	}

	again, mounted, err := Mount(doc)
	if err != nil || mounted {
		t.Fatalf("second Mount() = %v, %v; want existing root", mounted, err)
	}
	if !dom.Same(again, root) {
		t.Errorf("second Mount() returned a different element")
	}
	all, _ := doc.QueryAll("#" + RootID)
	if len(all) != 1 {
		t.Errorf("found %d roots; want 1", len(all))
	}
}

type fakeSwitch struct {
	calls []bool
}

func (f *fakeSwitch) SetEnabled(enabled bool) {
	f.calls = append(f.calls, enabled)
}

func TestToggleHotkey(t *testing.T) {
	doc := parse(t)
	sw := &fakeSwitch{}
	toggle := NewToggle(sw)
	detach := toggle.Attach(doc)

	tests := []struct {
		key         dom.KeyPress
		wantEnabled bool
		wantDefault bool
	}{
		{dom.KeyPress{Key: "c", Code: "KeyC", Ctrl: true, Alt: true}, true, false},
		{dom.KeyPress{Key: "c", Code: "KeyC", Ctrl: true}, true, true},
		{dom.KeyPress{Key: "x", Code: "KeyX", Ctrl: true, Alt: true}, true, true},
		{dom.KeyPress{Key: "c", Code: "KeyC", Ctrl: true, Alt: true, Shift: true}, false, false},
	}
	for i, tt := range tests {
		proceed := doc.Dispatch(&dom.Event{Type: dom.EventKeyDown, Key: tt.key, Cancelable: true})
		if proceed != tt.wantDefault {
			t.Errorf("step %d: default action = %v; want %v", i, proceed, tt.wantDefault)
		}
		if toggle.Enabled() != tt.wantEnabled {
			t.Errorf("step %d: enabled = %v; want %v", i, toggle.Enabled(), tt.wantEnabled)
		}
	}
	if len(sw.calls) != 2 || !sw.calls[0] || sw.calls[1] {
		t.Errorf("switch calls = %v; want [true false]", sw.calls)
	}

	detach()
	doc.Dispatch(&dom.Event{Type: dom.EventKeyDown, Key: tests[0].key, Cancelable: true})
	if toggle.Enabled() {
		t.Errorf("detached toggle still reacts to the hotkey")
	}
}

func TestSessionSubmit(t *testing.T) {
	doc := parse(t)
	f := newFixture(t, doc, editor.Static{Comment: "<b>Go</b> does nothing"}, WithHide("#header"))
	f.console.Error("request failed", 500)
	f.console.Log("loaded")

	if clickAt(t, doc, 20, 60) {
		t.Errorf("selection click reached the page")
	}
	if f.session.Targeter().State() != targeter.Targeting {
		t.Fatalf("state = %v; want targeting", f.session.Targeter().State())
	}
	r, err := f.session.Edit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil {
		t.Fatalf("expected a report")
	}
	if r.Comment != "Go does nothing" || r.Target != "#btn" || r.URL != "http://example.com/app" {
		t.Errorf("unexpected report %+v", r)
	}
	if r.Rect == nil || r.Rect.Top != 50 || r.Rect.Left != 10 {
		t.Errorf("Rect = %+v; want top 50 left 10", r.Rect)
	}
	if r.Screenshot == "" || r.CaptureError != "" {
		t.Errorf("expected a screenshot, got capture error %q", r.CaptureError)
	}
	if s := r.Summary(); s.Errors != 1 || s.Logs[recorder.LogKindLog] != 1 {
		t.Errorf("Summary() = %+v", s)
	}
	if len(r.Interactions) != 1 || r.Interactions[0].Target != "#btn" {
		t.Errorf("interactions = %+v", r.Interactions)
	}
	if f.session.Targeter().State() != targeter.Tracking {
		t.Errorf("state = %v; want tracking", f.session.Targeter().State())
	}
	for _, id := range []string{"btn", "header", RootID} {
		el := byID(t, doc, id)
		if v := el.Style("display") + el.Style("box-shadow") + el.Style("z-index"); v != "" {
			t.Errorf("#%s keeps capture styles %q", id, v)
		}
	}
	select {
	case got := <-f.writer.reports:
		if got != r {
			t.Errorf("written report differs from returned report")
		}
	default:
		t.Errorf("report was not written")
	}
}

func TestSessionShow(t *testing.T) {
	doc := parse(t)
	f := newFixture(t, doc, editor.Static{Comment: "x"}, WithShow(true))
	clickAt(t, doc, 20, 60)
	if _, err := f.session.Edit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	imgs, _ := doc.QueryAll("body > img")
	if len(imgs) != 1 {
		t.Errorf("found %d screenshots in the body; want 1", len(imgs))
	}
}

func TestSessionCancel(t *testing.T) {
	doc := parse(t)
	f := newFixture(t, doc, editor.Static{Cancel: true})
	clickAt(t, doc, 20, 60)
	r, err := f.session.Edit(context.Background())
	if err != nil || r != nil {
		t.Errorf("Edit() = %v, %v; want nil, nil", r, err)
	}
	if len(f.writer.reports) != 0 {
		t.Errorf("cancelled edit wrote a report")
	}
	if f.session.Targeter().State() != targeter.Tracking {
		t.Errorf("state = %v; want tracking", f.session.Targeter().State())
	}
}

func TestSessionSubmitWithoutSelection(t *testing.T) {
	doc := parse(t)
	f := newFixture(t, doc, editor.Static{})
	f.console.Error("ignored")
	r, err := f.session.Submit(context.Background(), "general feedback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasSelection() || r.Comment != "general feedback" || r.Screenshot != "" || len(r.Logs) != 0 {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestSessionExclude(t *testing.T) {
	doc := parse(t)
	f := newFixture(t, doc, editor.Static{}, WithExclude("#widget"))
	if !clickAt(t, doc, 310, 50) {
		t.Errorf("click inside the excluded widget did not reach the page")
	}
	if f.session.Targeter().Selected() != nil {
		t.Errorf("excluded element was selected")
	}
}

func TestSessionWriteError(t *testing.T) {
	doc := parse(t)
	f := newFixture(t, doc, editor.Static{})
	f.writer.err = errors.New("disk full")
	clickAt(t, doc, 20, 60)
	r, err := f.session.Submit(context.Background(), "x")
	if err == nil || r == nil {
		t.Fatalf("Submit() = %v, %v; want report and error", r, err)
	}
	if f.session.Targeter().State() != targeter.Tracking {
		t.Errorf("state = %v; want tracking", f.session.Targeter().State())
	}
}

type failingRasterizer struct {
	*htmldoc.Document
}

func (failingRasterizer) Rasterize(context.Context, dom.Element) (dom.Image, error) {
	return dom.Image{}, errors.New("tainted canvas")
}

func TestSessionCaptureFailure(t *testing.T) {
	doc := parse(t)
	f := newFixture(t, failingRasterizer{doc}, editor.Static{Comment: "still sent"})
	clickAt(t, doc, 20, 60)
	r, err := f.session.Edit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Screenshot != "" || !strings.Contains(r.CaptureError, "tainted canvas") || r.Comment != "still sent" {
		t.Errorf("unexpected report %+v", r)
	}
	if len(f.writer.reports) != 1 {
		t.Errorf("report with failed capture was not written")
	}
}

func TestSessionRun(t *testing.T) {
	doc := parse(t)
	f := newFixture(t, doc, editor.Static{Comment: "from run"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- f.session.Run(ctx) }()

	clickAt(t, doc, 20, 60)
	select {
	case r := <-f.writer.reports:
		if r.Comment != "from run" || r.Target != "#btn" {
			t.Errorf("unexpected report %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no report written")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v; want %v", err, context.Canceled)
	}
}

func TestSessionClose(t *testing.T) {
	doc := parse(t)
	f := newFixture(t, doc, editor.Static{})
	f.session.Close()
	f.session.Close()
	if f.session.Targeter().Enabled() {
		t.Errorf("targeter still enabled after Close")
	}
	for _, typ := range []dom.EventType{dom.EventClick, dom.EventPointerMove, dom.EventKeyDown, dom.EventInput} {
		if n := doc.Count(typ); n != 0 {
			t.Errorf("%d %s listeners left after Close", n, typ)
		}
	}
}
