package browser

import (
	"context"
	"fmt"

	cdpinput "github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/jakopako/pinpoint/internal/dom"
)

// MoveTo dispatches a pointermove to the listeners and moves the mouse.
func (p *Page) MoveTo(ctx context.Context, x, y float64) error {
	target, err := p.ElementAt(x, y)
	if err != nil {
		return err
	}
	p.Dispatch(&dom.Event{Type: dom.EventPointerMove, Target: target, ClientX: x, ClientY: y})
	return p.run(ctx, func(ctx context.Context) error {
		return cdpinput.DispatchMouseEvent(cdpinput.MouseMoved, x, y).Do(ctx)
	})
}

// Click dispatches a click to the listeners. The click only reaches the
// page if no listener prevented it.
func (p *Page) Click(ctx context.Context, x, y float64) (bool, error) {
	target, err := p.ElementAt(x, y)
	if err != nil {
		return false, err
	}
	if !p.Dispatch(&dom.Event{Type: dom.EventClick, Target: target, ClientX: x, ClientY: y, Cancelable: true}) {
		p.logger.Debug(fmt.Sprintf("click at (%v, %v) was prevented", x, y))
		return false, nil
	}
	err = p.run(ctx, func(ctx context.Context) error {
		return chromedp.MouseClickXY(x, y).Do(ctx)
	})
	return err == nil, err
}

// Type focuses el, inserts text and dispatches input and change events to
// the listeners.
func (p *Page) Type(ctx context.Context, el dom.Element, text string) error {
	e, ok := el.(*Element)
	if !ok || e == nil || e.page != p {
		return fmt.Errorf("cannot type into %T", el)
	}
	if err := e.call(`function() { this.focus(); return true; }`, nil); err != nil {
		return fmt.Errorf("error while focusing %s: %w", e, err)
	}
	err := p.run(ctx, func(ctx context.Context) error {
		return cdpinput.InsertText(text).Do(ctx)
	})
	if err != nil {
		return fmt.Errorf("error while typing: %w", err)
	}
	p.Dispatch(&dom.Event{Type: dom.EventInput, Target: e})
	p.Dispatch(&dom.Event{Type: dom.EventChange, Target: e})
	return nil
}

// Press dispatches a keydown to the listeners and forwards the key stroke
// to the page if it was not prevented.
func (p *Page) Press(ctx context.Context, key dom.KeyPress) error {
	if !p.Dispatch(&dom.Event{Type: dom.EventKeyDown, Target: p.Body(), Key: key, Cancelable: true}) {
		return nil
	}
	var mods cdpinput.Modifier
	if key.Alt {
		mods |= cdpinput.ModifierAlt
	}
	if key.Ctrl {
		mods |= cdpinput.ModifierCtrl
	}
	if key.Meta {
		mods |= cdpinput.ModifierMeta
	}
	if key.Shift {
		mods |= cdpinput.ModifierShift
	}
	return p.run(ctx, func(ctx context.Context) error {
		for _, typ := range []cdpinput.KeyType{cdpinput.KeyDown, cdpinput.KeyUp} {
			err := cdpinput.DispatchKeyEvent(typ).
				WithKey(key.Key).
				WithCode(key.Code).
				WithModifiers(mods).
				Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Page) ScrollBy(ctx context.Context, dx, dy float64) error {
	return p.run(ctx, func(ctx context.Context) error {
		_, err := evaluate(ctx, fmt.Sprintf("window.scrollBy(%v, %v)", dx, dy), true)
		return err
	})
}
