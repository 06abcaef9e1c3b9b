package htmldoc

import (
	"context"
	"fmt"

	"github.com/jakopako/pinpoint/internal/dom"
)

// MoveTo dispatches a pointermove at the viewport point.
func (d *Document) MoveTo(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := d.ElementAt(x, y)
	if err != nil {
		return err
	}
	d.Dispatch(&dom.Event{Type: dom.EventPointerMove, Target: target, ClientX: x, ClientY: y})
	return nil
}

// Click dispatches a cancelable click at the viewport point. There is no
// default action in an in-memory document, so the result only reports
// whether a listener prevented it.
func (d *Document) Click(ctx context.Context, x, y float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	target, err := d.ElementAt(x, y)
	if err != nil {
		return false, err
	}
	return d.Dispatch(&dom.Event{Type: dom.EventClick, Target: target, ClientX: x, ClientY: y, Cancelable: true}), nil
}

// Type appends text to the value of a form control and dispatches input
// and change events.
func (d *Document) Type(ctx context.Context, el dom.Element, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, ok := el.(*Element)
	if !ok || e == nil {
		return fmt.Errorf("cannot type into %T", el)
	}
	cur, ok := e.Value()
	if !ok {
		return fmt.Errorf("cannot type into %s: no value property", e.NodeName())
	}
	if err := e.SetValue(cur + text); err != nil {
		return err
	}
	d.Dispatch(&dom.Event{Type: dom.EventInput, Target: e})
	d.Dispatch(&dom.Event{Type: dom.EventChange, Target: e})
	return nil
}

// Press dispatches a cancelable keydown targeted at the body.
func (d *Document) Press(ctx context.Context, key dom.KeyPress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Dispatch(&dom.Event{Type: dom.EventKeyDown, Target: d.Body(), Key: key, Cancelable: true})
	return nil
}

func (d *Document) ScrollBy(ctx context.Context, dx, dy float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.ScrollTo(d.scroll.X+dx, d.scroll.Y+dy)
	return nil
}

var (
	_ dom.Document = (*Document)(nil)
	_ dom.Pointer  = (*Document)(nil)
	_ dom.Element  = (*Element)(nil)
)
