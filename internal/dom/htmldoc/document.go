// Package htmldoc implements dom.Document on top of a parsed HTML tree.
//
// There is no layout engine. Element boxes are taken from inline
// left/top/width/height pixel values, interpreted as page coordinates.
// Stacking follows z-index (inherited by descendants without their own
// value), then document order. Elements with display:none are neither
// hit-tested nor painted, and pointer-events:none removes an element and
// its descendants from hit-testing. <html> and <body> cover the whole
// document unless they declare a box themselves.
package htmldoc

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/geometry"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
)

// Document is an in-memory dom.Document. It is not safe for concurrent use.
type Document struct {
	dom.Listeners

	url      string
	root     *html.Node
	elements map[*html.Node]*Element
	viewport geometry.Box
	scroll   geometry.Scroll
	logger   *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithURL sets the URL reported by the document.
func WithURL(u string) Option {
	return func(d *Document) { d.url = u }
}

// WithViewport sets the viewport size in pixels.
func WithViewport(width, height float64) Option {
	return func(d *Document) {
		d.viewport = geometry.Box{Width: width, Height: height}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) { d.logger = l }
}

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("error while parsing html: %w", err)
	}
	if len(gq.Nodes) == 0 {
		return nil, fmt.Errorf("error while parsing html: empty document")
	}
	d := &Document{
		url:      "about:blank",
		root:     gq.Nodes[0],
		elements: map[*html.Node]*Element{},
		viewport: geometry.Box{Width: defaultViewportWidth, Height: defaultViewportHeight},
	}
	for _, o := range opts {
		o(d)
	}
	if d.logger == nil {
		d.logger = slog.With(slog.String("document", "html"))
	}
	return d, nil
}

// ParseString is Parse for an in-memory string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

func (d *Document) URL() string {
	return d.url
}

// wrap returns the interned handle for n.
func (d *Document) wrap(n *html.Node) *Element {
	if e, ok := d.elements[n]; ok {
		return e
	}
	e := &Element{doc: d, node: n}
	d.elements[n] = e
	return e
}

// element is wrap for callers returning the dom.Element interface; it
// keeps a nil node from turning into a non-nil interface.
func (d *Document) element(n *html.Node) dom.Element {
	if n == nil {
		return nil
	}
	return d.wrap(n)
}

func (d *Document) rootNode() *html.Node {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func (d *Document) bodyNode() *html.Node {
	r := d.rootNode()
	if r == nil {
		return nil
	}
	for c := r.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Body {
			return c
		}
	}
	return nil
}

func (d *Document) Root() dom.Element {
	return d.element(d.rootNode())
}

func (d *Document) Body() dom.Element {
	return d.element(d.bodyNode())
}

func (d *Document) Scroll() (geometry.Scroll, error) {
	return d.scroll, nil
}

// ScrollTo sets the scroll offset. Negative offsets clamp to zero.
func (d *Document) ScrollTo(x, y float64) {
	d.scroll = geometry.Scroll{X: max(x, 0), Y: max(y, 0)}
}

// Viewport returns the viewport size.
func (d *Document) Viewport() (float64, float64) {
	return d.viewport.Width, d.viewport.Height
}

func (d *Document) CreateElement(tag string) (dom.Element, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return nil, fmt.Errorf("cannot create element without tag name")
	}
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	return d.wrap(n), nil
}

func (d *Document) ElementByID(id string) (dom.Element, error) {
	if id == "" {
		return nil, nil
	}
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return d.element(found), nil
}

func (d *Document) Query(selector string) (dom.Element, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	sel := goquery.NewDocumentFromNode(d.root).FindMatcher(m).First()
	if sel.Length() == 0 {
		return nil, nil
	}
	return d.element(sel.Get(0)), nil
}

func (d *Document) QueryAll(selector string) ([]dom.Element, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	var els []dom.Element
	goquery.NewDocumentFromNode(d.root).FindMatcher(m).Each(func(_ int, s *goquery.Selection) {
		els = append(els, d.wrap(s.Get(0)))
	})
	return els, nil
}

// HTML renders the current state of the document.
func (d *Document) HTML() (string, error) {
	return goquery.OuterHtml(goquery.NewDocumentFromNode(d.root).Children())
}

// walk visits n and its descendants in document order until fn returns
// false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr = append(n.Attr[:i:i], n.Attr[i+1:]...)
			return
		}
	}
}
