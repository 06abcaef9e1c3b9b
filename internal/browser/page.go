package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"math"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	cdppage "github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/geometry"
	"github.com/jakopako/pinpoint/internal/recorder"
)

// Page is a browser tab. Listeners registered on it see the input sent
// through its Pointer methods before the page does.
type Page struct {
	dom.Listeners

	ctx     context.Context
	cancel  context.CancelFunc
	url     string
	console *recorder.Console
	logger  *slog.Logger

	mu       sync.Mutex
	elements map[cdp.BackendNodeID]*Element
}

// Close closes the tab.
func (p *Page) Close() {
	p.cancel()
}

// Console returns the console the page output is routed to.
func (p *Page) Console() *recorder.Console {
	return p.console
}

func (p *Page) onEvent(ev any) {
	switch ev := ev.(type) {
	case *cdpruntime.EventConsoleAPICalled:
		p.onConsoleAPICalled(ev)
	}
}

func (p *Page) onConsoleAPICalled(ev *cdpruntime.EventConsoleAPICalled) {
	var kind recorder.LogKind
	switch ev.Type {
	case cdpruntime.APITypeLog:
		kind = recorder.LogKindLog
	case cdpruntime.APITypeWarning:
		kind = recorder.LogKindWarn
	case cdpruntime.APITypeError:
		kind = recorder.LogKindError
	case cdpruntime.APITypeInfo:
		kind = recorder.LogKindInfo
	default:
		p.logger.Debug(fmt.Sprintf("ignoring console call of type %s", ev.Type))
		return
	}
	args := make([]any, len(ev.Args))
	for i, a := range ev.Args {
		args[i] = consoleArg(a)
	}
	p.console.Emit(kind, args...)
}

// run executes fn against the tab. ctx bounds the call.
func (p *Page) run(ctx context.Context, fn func(ctx context.Context) error) error {
	c := chromedp.FromContext(p.ctx)
	if c == nil || c.Target == nil {
		return errors.New("page is not attached to a browser tab")
	}
	return fn(cdp.WithExecutor(ctx, c.Target))
}

// element interns the handle for a backend node id.
func (p *Page) element(id cdp.BackendNodeID) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.elements[id]; ok {
		return e
	}
	e := &Element{page: p, id: id}
	p.elements[id] = e
	return e
}

// fromObject returns the element referenced by obj and releases obj. A
// null reference yields nil.
func (p *Page) fromObject(ctx context.Context, obj *cdpruntime.RemoteObject) (dom.Element, error) {
	if obj == nil || obj.ObjectID == "" {
		return nil, nil
	}
	defer release(ctx, obj)
	node, err := cdpdom.DescribeNode().WithObjectID(obj.ObjectID).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("describing DOM node: %w", err)
	}
	return p.element(node.BackendNodeID), nil
}

// evalElement evaluates an expression yielding a node.
func (p *Page) evalElement(expr string) (dom.Element, error) {
	var el dom.Element
	err := p.run(p.ctx, func(ctx context.Context) error {
		obj, err := evaluate(ctx, expr, false)
		if err != nil {
			return err
		}
		el, err = p.fromObject(ctx, obj)
		return err
	})
	return el, err
}

// callDocument calls fn with this bound to the document.
func (p *Page) callDocument(ctx context.Context, fn string, byValue bool, args ...any) (*cdpruntime.RemoteObject, error) {
	doc, err := evaluate(ctx, "document", false)
	if err != nil {
		return nil, err
	}
	defer release(ctx, doc)
	return callFunctionOn(ctx, doc.ObjectID, fn, byValue, args...)
}

func (p *Page) documentElement(fn string, args ...any) (dom.Element, error) {
	var el dom.Element
	err := p.run(p.ctx, func(ctx context.Context) error {
		obj, err := p.callDocument(ctx, fn, false, args...)
		if err != nil {
			return err
		}
		el, err = p.fromObject(ctx, obj)
		return err
	})
	return el, err
}

func (p *Page) Root() dom.Element {
	el, err := p.evalElement("document.documentElement")
	if err != nil {
		p.logger.Debug(fmt.Sprintf("could not resolve document element: %v", err))
	}
	return el
}

func (p *Page) Body() dom.Element {
	el, err := p.evalElement("document.body")
	if err != nil {
		p.logger.Debug(fmt.Sprintf("could not resolve body: %v", err))
	}
	return el
}

// ElementAt hit-tests the viewport point like document.elementFromPoint.
func (p *Page) ElementAt(x, y float64) (dom.Element, error) {
	return p.documentElement(`function(x, y) { return this.elementFromPoint(x, y); }`, x, y)
}

func (p *Page) Scroll() (geometry.Scroll, error) {
	var pos [2]float64
	err := p.run(p.ctx, func(ctx context.Context) error {
		obj, err := evaluate(ctx, "[window.scrollX, window.scrollY]", true)
		if err != nil {
			return err
		}
		return decode(obj, &pos)
	})
	if err != nil {
		return geometry.Scroll{}, fmt.Errorf("error while reading the scroll position: %w", err)
	}
	return geometry.Scroll{X: pos[0], Y: pos[1]}, nil
}

func (p *Page) URL() string {
	var href string
	err := p.run(p.ctx, func(ctx context.Context) error {
		obj, err := evaluate(ctx, "location.href", true)
		if err != nil {
			return err
		}
		return decode(obj, &href)
	})
	if err != nil || href == "" {
		return p.url
	}
	return href
}

func (p *Page) CreateElement(tag string) (dom.Element, error) {
	return p.documentElement(`function(tag) { return this.createElement(tag); }`, tag)
}

func (p *Page) ElementByID(id string) (dom.Element, error) {
	return p.documentElement(`function(id) { return this.getElementById(id); }`, id)
}

func (p *Page) Query(selector string) (dom.Element, error) {
	el, err := p.documentElement(`function(sel) { return this.querySelector(sel); }`, selector)
	if err != nil {
		return nil, fmt.Errorf("error while querying %q: %w", selector, err)
	}
	return el, nil
}

func (p *Page) QueryAll(selector string) ([]dom.Element, error) {
	var els []dom.Element
	err := p.run(p.ctx, func(ctx context.Context) error {
		var n int
		obj, err := p.callDocument(ctx, `function(sel) { return this.querySelectorAll(sel).length; }`, true, selector)
		if err != nil {
			return err
		}
		if err := decode(obj, &n); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			obj, err := p.callDocument(ctx, `function(sel, i) { return this.querySelectorAll(sel)[i] || null; }`, false, selector, i)
			if err != nil {
				return err
			}
			el, err := p.fromObject(ctx, obj)
			if err != nil {
				return err
			}
			if el != nil {
				els = append(els, el)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error while querying %q: %w", selector, err)
	}
	return els, nil
}

// Rasterize captures the page rectangle of el, including parts outside
// the viewport.
func (p *Page) Rasterize(ctx context.Context, el dom.Element) (dom.Image, error) {
	if err := ctx.Err(); err != nil {
		return dom.Image{}, err
	}
	e, ok := el.(*Element)
	if !ok || e == nil || e.page != p {
		return dom.Image{}, fmt.Errorf("cannot rasterize %T in a browser page", el)
	}
	box, err := e.Bounds()
	if err != nil {
		return dom.Image{}, err
	}
	scroll, err := p.Scroll()
	if err != nil {
		return dom.Image{}, err
	}
	rect := geometry.PageRect(box, scroll)
	if rect.Empty() {
		return dom.Image{}, errors.New("cannot rasterize an element without a box")
	}

	var buf []byte
	err = p.run(ctx, func(ctx context.Context) error {
		var err error
		buf, err = cdppage.CaptureScreenshot().
			WithFormat(cdppage.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			WithClip(&cdppage.Viewport{
				X:      rect.Left,
				Y:      rect.Top,
				Width:  rect.Width,
				Height: rect.Height,
				Scale:  1,
			}).
			Do(ctx)
		return err
	})
	if err != nil {
		return dom.Image{}, fmt.Errorf("error while capturing screenshot: %w", err)
	}

	img := dom.Image{
		Format: dom.ImageFormatPNG,
		Width:  int(math.Ceil(rect.Width)),
		Height: int(math.Ceil(rect.Height)),
		Data:   buf,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(buf)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img, nil
}

var (
	_ dom.Document = (*Page)(nil)
	_ dom.Pointer  = (*Page)(nil)
)
