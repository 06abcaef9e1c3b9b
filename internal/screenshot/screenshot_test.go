package screenshot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/dom/htmldoc"
)

const page = `<html><body>
<div id="l1" style="left: 0px; top: 0px; width: 400px; height: 400px">
  <div id="l2" style="left: 10px; top: 10px; width: 300px; height: 300px">
    <div id="l3" style="left: 20px; top: 20px; width: 200px; height: 200px">
      <div id="l4" style="left: 30px; top: 30px; width: 150px; height: 150px">
        <div id="l5" style="left: 40px; top: 40px; width: 100px; height: 100px">
          <div id="target" style="left: 50px; top: 50px; width: 50px; height: 50px; box-shadow: none; background-color: blue"></div>
        </div>
      </div>
    </div>
  </div>
</div>
<div id="shallow" style="left: 500px; top: 0px; width: 50px; height: 50px"></div>
<div id="chrome" style="display: block; left: 600px; top: 0px; width: 50px; height: 50px"></div>
<div id="popover" style="left: 700px; top: 0px; width: 50px; height: 50px; display: flex !important"></div>
</body></html>`

func mustParse(t *testing.T) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(page, htmldoc.WithViewport(800, 600))
	if err != nil {
		t.Fatalf("unexpected error while parsing: %v", err)
	}
	return doc
}

func mustByID(t *testing.T, doc dom.Document, id string) dom.Element {
	t.Helper()
	el, err := doc.ElementByID(id)
	if err != nil || el == nil {
		t.Fatalf("no element with id %q (%v)", id, err)
	}
	return el
}

func TestResolveContainer(t *testing.T) {
	doc := mustParse(t)
	tests := []struct {
		name     string
		id       string
		depth    int
		expected string
	}{
		{name: "stops after max depth", id: "target", depth: 4, expected: "l2"},
		{name: "smaller depth", id: "target", depth: 2, expected: "l4"},
		{name: "zero depth", id: "target", depth: 0, expected: "target"},
		{name: "reaches body", id: "l3", depth: 4, expected: "body"},
		{name: "direct child of body", id: "shallow", depth: 4, expected: "body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveContainer(doc, mustByID(t, doc, tc.id), tc.depth)
			name := got.ID()
			if name == "" {
				name = got.TagName()
			}
			if name != tc.expected {
				t.Errorf("ResolveContainer(%s, %d) = %s; want %s", tc.id, tc.depth, name, tc.expected)
			}
		})
	}
	body := doc.Body()
	if got := ResolveContainer(doc, body, 4); got != body {
		t.Errorf("ResolveContainer(body) = %v; want body", got)
	}
	root := doc.Root()
	if got := ResolveContainer(doc, root, 4); got != root {
		t.Errorf("ResolveContainer(html) = %v; want html", got)
	}
}

type styleSnapshot map[string]string

func snapshot(els map[string]dom.Element) styleSnapshot {
	s := styleSnapshot{}
	for id, el := range els {
		for _, p := range []string{"box-shadow", "z-index", "display"} {
			s[id+"/"+p] = el.Style(p)
			s[id+"/"+p+"/priority"] = el.StylePriority(p)
		}
	}
	return s
}

// markup returns the serialized elements, which include the raw style
// attributes.
func markup(t *testing.T, els map[string]dom.Element) map[string]string {
	t.Helper()
	m := map[string]string{}
	for id, el := range els {
		html, err := el.OuterHTML()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m[id] = html
	}
	return m
}

// stubDoc rasterizes through fn instead of the embedded document.
type stubDoc struct {
	*htmldoc.Document
	fn func(ctx context.Context, el dom.Element) (dom.Image, error)
}

func (d *stubDoc) Rasterize(ctx context.Context, el dom.Element) (dom.Image, error) {
	return d.fn(ctx, el)
}

func TestCaptureRestoresStyles(t *testing.T) {
	rasterErr := errors.New("canvas tainted")
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "success"},
		{name: "rasterization failure", err: rasterErr, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustParse(t)
			els := map[string]dom.Element{
				"target":  mustByID(t, doc, "target"),
				"chrome":  mustByID(t, doc, "chrome"),
				"popover": mustByID(t, doc, "popover"),
			}
			before := snapshot(els)
			beforeHTML := markup(t, els)
			if before["popover/display/priority"] != "important" {
				t.Fatalf("popover display priority = %q; want important", before["popover/display/priority"])
			}

			var during styleSnapshot
			var container dom.Element
			stub := &stubDoc{Document: doc, fn: func(ctx context.Context, el dom.Element) (dom.Image, error) {
				during = snapshot(els)
				container = el
				if tc.err != nil {
					return dom.Image{}, tc.err
				}
				return doc.Rasterize(ctx, el)
			}}

			c := New(stub)
			img, err := c.Capture(context.Background(), els["target"], Options{Hide: []dom.Element{els["chrome"], els["popover"]}})
			if tc.wantErr {
				if !errors.Is(err, rasterErr) {
					t.Errorf("Capture() error = %v; want %v", err, rasterErr)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if img.Width != 300 || img.Height != 300 {
					t.Errorf("image size = %dx%d; want 300x300", img.Width, img.Height)
				}
			}

			if container == nil || container.ID() != "l2" {
				t.Errorf("rasterized %v; want #l2", container)
			}
			if during["target/box-shadow"] != DefaultBoxShadow || during["target/z-index"] != DefaultZIndex {
				t.Errorf("emphasis not applied during rasterization: %v", during)
			}
			if during["chrome/display"] != "none" || during["popover/display"] != "none" {
				t.Errorf("hidden elements visible during rasterization: %v", during)
			}
			after := snapshot(els)
			for k, v := range before {
				if after[k] != v {
					t.Errorf("%s = %q after capture; want %q", k, after[k], v)
				}
			}
			for id, html := range markup(t, els) {
				if html != beforeHTML[id] {
					t.Errorf("#%s = %s after capture; want %s", id, html, beforeHTML[id])
				}
			}
		})
	}
}

func TestCaptureWithoutElement(t *testing.T) {
	c := New(mustParse(t))
	if _, err := c.Capture(context.Background(), nil, Options{}); !errors.Is(err, ErrNoElement) {
		t.Errorf("Capture(nil) error = %v; want %v", err, ErrNoElement)
	}
	if _, err := c.CaptureAndShow(context.Background(), nil, Options{}); !errors.Is(err, ErrNoElement) {
		t.Errorf("CaptureAndShow(nil) error = %v; want %v", err, ErrNoElement)
	}
}

func TestCaptureElementHiddenTwice(t *testing.T) {
	doc := mustParse(t)
	target := mustByID(t, doc, "target")
	chrome := mustByID(t, doc, "chrome")
	c := New(doc)
	if _, err := c.Capture(context.Background(), target, Options{Hide: []dom.Element{chrome, chrome, nil}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := chrome.Style("display"); got != "block" {
		t.Errorf("display = %q; want block", got)
	}
}

// flakyElement fails every SetStyle call after the first n.
type flakyElement struct {
	dom.Element
	n     int
	calls int
}

func (f *flakyElement) SetStyle(prop, value string) error {
	f.calls++
	if f.calls > f.n {
		return errors.New("element detached")
	}
	return f.Element.SetStyle(prop, value)
}

func TestCaptureJoinsRestoreErrors(t *testing.T) {
	doc := mustParse(t)
	el := &flakyElement{Element: mustByID(t, doc, "target"), n: 2}
	c := New(doc)
	_, err := c.Capture(context.Background(), el, Options{})
	if err == nil || !strings.Contains(err.Error(), "restoring") {
		t.Errorf("Capture() error = %v; want a restoration error", err)
	}
}

func TestCaptureCancelledContext(t *testing.T) {
	doc := mustParse(t)
	target := mustByID(t, doc, "target")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(doc).Capture(ctx, target, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Capture() error = %v; want %v", err, context.Canceled)
	}
	if got := target.Style("z-index"); got != "" {
		t.Errorf("z-index = %q after cancelled capture; want empty", got)
	}
}

func TestCaptureAndShow(t *testing.T) {
	doc := mustParse(t)
	target := mustByID(t, doc, "target")
	img, err := New(doc, WithMaxAscendDepth(1), WithEmphasis("0 0 0 4px red", "")).CaptureAndShow(context.Background(), target, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Parent() != doc.Body() {
		t.Errorf("image was not appended to the body")
	}
	html, err := img.OuterHTML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`src="data:image/png;base64,`, `alt="Screenshot"`, `max-width: 400px`, `border: 2px solid #888`} {
		if !strings.Contains(html, want) {
			t.Errorf("OuterHTML() = %q; missing %q", html, want)
		}
	}
}
