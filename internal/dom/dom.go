// Package dom describes the document pinpoint operates on. A Document is
// either a live browser page (see internal/browser) or an in-memory HTML
// document (see internal/dom/htmldoc). The targeting, recording and
// screenshot code only ever talks to these interfaces.
package dom

import (
	"context"

	"github.com/jakopako/pinpoint/internal/geometry"
)

// Element is a non-owning handle to a node of a document. Handles of the
// same node compare equal with ==. A handle may outlive its node, in which
// case Connected returns false.
type Element interface {
	// TagName returns the lowercase tag name, or "" for non-element nodes.
	TagName() string
	// NodeName returns the DOM node name (e.g. "DIV", "#text").
	NodeName() string
	ID() string
	// ClassName returns the class attribute and whether the node exposes
	// its class list as a plain string.
	ClassName() (string, bool)
	// Value returns the node's value property, if it has one.
	Value() (string, bool)
	Parent() Element
	Contains(other Element) bool
	Connected() bool

	HasClass(name string) bool
	AddClass(name string) error
	RemoveClass(name string) error

	// Style returns the inline value of a CSS property ("" if unset).
	Style(prop string) string
	// SetStyle sets an inline CSS property. An empty value removes it.
	SetStyle(prop, value string) error
	// StylePriority returns "important" if the inline declaration of prop
	// carries !important, "" otherwise.
	StylePriority(prop string) string
	// SetStylePriority sets an inline CSS property with the given priority
	// ("important" or "").
	SetStylePriority(prop, value, priority string) error

	// Bounds returns the element's bounding box in viewport coordinates.
	Bounds() (geometry.Box, error)

	SetAttribute(name, value string) error
	AppendChild(child Element) error
	OuterHTML() (string, error)
}

// Document is a page whose structure is unknown and may change at any time.
type Document interface {
	EventSource

	// Root returns the document element (<html>).
	Root() Element
	Body() Element
	// ElementAt returns the topmost element under the viewport point
	// (x, y). It returns nil, nil if there is no element at that point.
	ElementAt(x, y float64) (Element, error)
	Scroll() (geometry.Scroll, error)
	URL() string

	CreateElement(tag string) (Element, error)
	// ElementByID returns nil, nil if no element has the given id.
	ElementByID(id string) (Element, error)
	// Query returns the first element matching the CSS selector or nil.
	Query(selector string) (Element, error)
	// QueryAll returns all elements matching the CSS selector in document
	// order.
	QueryAll(selector string) ([]Element, error)

	Rasterizer
}

// Rasterizer renders the subtree of an element to an image. It is the one
// operation that may block for a noticeable time.
type Rasterizer interface {
	Rasterize(ctx context.Context, el Element) (Image, error)
}

// Pointer drives user input into a document. Every event is first
// dispatched to the document's listeners and only reaches the page if
// no listener prevented its default action.
type Pointer interface {
	MoveTo(ctx context.Context, x, y float64) error
	// Click reports whether the click reached the page.
	Click(ctx context.Context, x, y float64) (bool, error)
	Type(ctx context.Context, el Element, text string) error
	Press(ctx context.Context, key KeyPress) error
	ScrollBy(ctx context.Context, dx, dy float64) error
}

// KeyPress describes a single key stroke.
type KeyPress struct {
	Key   string
	Code  string
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// Same reports whether a and b refer to the same node. Two nil handles are
// the same.
func Same(a, b Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// IsDocumentLevel reports whether el is the document element or the body.
func IsDocumentLevel(doc Document, el Element) bool {
	return Same(el, doc.Root()) || Same(el, doc.Body())
}
