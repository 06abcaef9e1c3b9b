// Package screenshot rasterizes the region around an element with the
// element emphasized. Every style it touches is restored before Capture
// returns.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jakopako/pinpoint/internal/dom"
)

// ErrNoElement is returned when there is no element to capture.
var ErrNoElement = errors.New("no element provided for screenshot")

const (
	DefaultMaxAscendDepth = 4
	DefaultBoxShadow      = "0 0 0 4px #ff0, 0 0 12px 4px #f80"
	DefaultZIndex         = "9999"
)

// Options configures a single capture.
type Options struct {
	// Hide lists elements that get display:none for the duration of the
	// capture.
	Hide []dom.Element
}

// Capturer captures screenshots of a document. At most one capture may be
// in flight at a time.
type Capturer struct {
	doc            dom.Document
	maxAscendDepth int
	boxShadow      string
	zIndex         string
	logger         *slog.Logger
}

type Option func(*Capturer)

func WithMaxAscendDepth(depth int) Option {
	return func(c *Capturer) {
		c.maxAscendDepth = depth
	}
}

// WithEmphasis overrides the box-shadow and z-index applied to the
// captured element. Empty values keep the defaults.
func WithEmphasis(boxShadow, zIndex string) Option {
	return func(c *Capturer) {
		if boxShadow != "" {
			c.boxShadow = boxShadow
		}
		if zIndex != "" {
			c.zIndex = zIndex
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Capturer) {
		c.logger = l
	}
}

func New(doc dom.Document, opts ...Option) *Capturer {
	c := &Capturer{
		doc:            doc,
		maxAscendDepth: DefaultMaxAscendDepth,
		boxShadow:      DefaultBoxShadow,
		zIndex:         DefaultZIndex,
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With(slog.String("component", "screenshot"))
	return c
}

// ResolveContainer walks up from el for at most maxAscendDepth parents.
// If the walk reaches a parent that is <body> or <html> the body is
// returned, otherwise the last visited ancestor.
func ResolveContainer(doc dom.Document, el dom.Element, maxAscendDepth int) dom.Element {
	container := el
	for depth := 0; depth < maxAscendDepth; depth++ {
		parent := container.Parent()
		if parent == nil {
			break
		}
		if tag := parent.TagName(); tag == "body" || tag == "html" {
			if body := doc.Body(); body != nil {
				return body
			}
			return parent
		}
		container = parent
	}
	return container
}

// Capture emphasizes el, hides opts.Hide and rasterizes the container of
// el. The touched styles are restored on every exit path. Rasterization
// errors are returned after restoration; restoration errors are joined
// into the returned error.
func (c *Capturer) Capture(ctx context.Context, el dom.Element, opts Options) (img dom.Image, err error) {
	if el == nil {
		return dom.Image{}, ErrNoElement
	}
	tx := &transaction{}
	defer func() {
		if rerr := tx.restore(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("error while restoring styles: %w", rerr))
		}
	}()

	if err := tx.set(el, "box-shadow", c.boxShadow); err != nil {
		return dom.Image{}, fmt.Errorf("error while emphasizing element: %w", err)
	}
	if err := tx.set(el, "z-index", c.zIndex); err != nil {
		return dom.Image{}, fmt.Errorf("error while emphasizing element: %w", err)
	}
	for _, h := range opts.Hide {
		if h == nil || !h.Connected() {
			continue
		}
		if err := tx.set(h, "display", "none"); err != nil {
			return dom.Image{}, fmt.Errorf("error while hiding element: %w", err)
		}
	}

	container := ResolveContainer(c.doc, el, c.maxAscendDepth)
	c.logger.Debug(fmt.Sprintf("rasterizing container %s", strings.ToLower(container.NodeName())))
	img, err = c.doc.Rasterize(ctx, container)
	if err != nil {
		return dom.Image{}, fmt.Errorf("error while rasterizing: %w", err)
	}
	return img, nil
}

// CaptureAndShow captures el and appends the image to the document body.
// It returns the appended <img> element.
func (c *Capturer) CaptureAndShow(ctx context.Context, el dom.Element, opts Options) (dom.Element, error) {
	img, err := c.Capture(ctx, el, opts)
	if err != nil {
		return nil, err
	}
	return Show(c.doc, img)
}

// Show appends img to the body of doc.
func Show(doc dom.Document, img dom.Image) (dom.Element, error) {
	node, err := doc.CreateElement("img")
	if err != nil {
		return nil, err
	}
	attrs := [][2]string{{"src", img.DataURL()}, {"alt", "Screenshot"}}
	for _, a := range attrs {
		if err := node.SetAttribute(a[0], a[1]); err != nil {
			return nil, err
		}
	}
	if err := node.SetStyle("max-width", "400px"); err != nil {
		return nil, err
	}
	if err := node.SetStyle("border", "2px solid #888"); err != nil {
		return nil, err
	}
	body := doc.Body()
	if body == nil {
		return nil, errors.New("document has no body")
	}
	if err := body.AppendChild(node); err != nil {
		return nil, err
	}
	return node, nil
}

type change struct {
	el       dom.Element
	prop     string
	prev     string
	priority string
}

// transaction records inline style values and priorities before they are
// changed.
type transaction struct {
	changes []change
}

func (tx *transaction) set(el dom.Element, prop, value string) error {
	tx.changes = append(tx.changes, change{el: el, prop: prop, prev: el.Style(prop), priority: el.StylePriority(prop)})
	return el.SetStyle(prop, value)
}

// restore undoes the changes in reverse order.
func (tx *transaction) restore() error {
	var errs []error
	for i := len(tx.changes) - 1; i >= 0; i-- {
		c := tx.changes[i]
		var err error
		if c.priority != "" {
			err = c.el.SetStylePriority(c.prop, c.prev, c.priority)
		} else {
			err = c.el.SetStyle(c.prop, c.prev)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("could not restore %s: %w", c.prop, err))
		}
	}
	tx.changes = nil
	return errors.Join(errs...)
}
