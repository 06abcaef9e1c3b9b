package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/geometry"
)

// Element is a handle to a node of a Page, identified by its backend node
// id. Every call resolves the node again, so a removed node simply stops
// resolving.
type Element struct {
	page *Page
	id   cdp.BackendNodeID
}

func (e *Element) String() string {
	return fmt.Sprintf("node %d", e.id)
}

// resolve returns a fresh remote object for the node.
func (e *Element) resolve(ctx context.Context) (*cdpruntime.RemoteObject, error) {
	obj, err := cdpdom.ResolveNode().WithBackendNodeID(e.id).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving DOM node: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("node %d is missing", e.id)
	}
	return obj, nil
}

// call runs fn on the node and decodes its result into v.
func (e *Element) call(fn string, v any, args ...any) error {
	return e.page.run(e.page.ctx, func(ctx context.Context) error {
		obj, err := e.resolve(ctx)
		if err != nil {
			return err
		}
		defer release(ctx, obj)
		res, err := callFunctionOn(ctx, obj.ObjectID, fn, true, args...)
		if err != nil {
			return err
		}
		return decode(res, v)
	})
}

// callWith runs fn on the node with other passed by reference.
func (e *Element) callWith(fn string, v any, other *Element) error {
	return e.page.run(e.page.ctx, func(ctx context.Context) error {
		obj, err := e.resolve(ctx)
		if err != nil {
			return err
		}
		defer release(ctx, obj)
		arg, err := other.resolve(ctx)
		if err != nil {
			return err
		}
		defer release(ctx, arg)
		res, err := callFunctionOn(ctx, obj.ObjectID, fn, true, arg.ObjectID)
		if err != nil {
			return err
		}
		return decode(res, v)
	})
}

func (e *Element) debug(op string, err error) {
	e.page.logger.Debug(fmt.Sprintf("%s on %s failed: %v", op, e, err))
}

func (e *Element) TagName() string {
	var s string
	if err := e.call(`function() { return this.nodeType === 1 ? this.localName : ""; }`, &s); err != nil {
		e.debug("TagName", err)
	}
	return s
}

func (e *Element) NodeName() string {
	var s string
	if err := e.call(`function() { return this.nodeName; }`, &s); err != nil {
		e.debug("NodeName", err)
	}
	return s
}

func (e *Element) ID() string {
	var s string
	if err := e.call(`function() { return typeof this.id === "string" ? this.id : ""; }`, &s); err != nil {
		e.debug("ID", err)
	}
	return s
}

type optionalString struct {
	Value string `json:"value"`
	OK    bool   `json:"ok"`
}

func (e *Element) ClassName() (string, bool) {
	var res optionalString
	err := e.call(`function() {
		const c = this.className;
		return typeof c === "string" ? {value: c, ok: true} : {value: "", ok: false};
	}`, &res)
	if err != nil {
		e.debug("ClassName", err)
		return "", false
	}
	return res.Value, res.OK
}

func (e *Element) Value() (string, bool) {
	var res optionalString
	err := e.call(`function() {
		const v = this.value;
		return v === undefined || v === null ? {value: "", ok: false} : {value: String(v), ok: true};
	}`, &res)
	if err != nil {
		e.debug("Value", err)
		return "", false
	}
	return res.Value, res.OK
}

func (e *Element) Parent() dom.Element {
	var el dom.Element
	err := e.page.run(e.page.ctx, func(ctx context.Context) error {
		obj, err := e.resolve(ctx)
		if err != nil {
			return err
		}
		defer release(ctx, obj)
		parent, err := callFunctionOn(ctx, obj.ObjectID, `function() { return this.parentElement; }`, false)
		if err != nil {
			return err
		}
		el, err = e.page.fromObject(ctx, parent)
		return err
	})
	if err != nil {
		e.debug("Parent", err)
		return nil
	}
	return el
}

func (e *Element) Contains(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil || o.page != e.page {
		return false
	}
	if o == e {
		return true
	}
	var res bool
	if err := e.callWith(`function(other) { return this.contains(other); }`, &res, o); err != nil {
		e.debug("Contains", err)
		return false
	}
	return res
}

func (e *Element) Connected() bool {
	var res bool
	if err := e.call(`function() { return this.isConnected; }`, &res); err != nil {
		return false
	}
	return res
}

func (e *Element) HasClass(name string) bool {
	var res bool
	err := e.call(`function(name) { return !!this.classList && this.classList.contains(name); }`, &res, name)
	if err != nil {
		e.debug("HasClass", err)
	}
	return res
}

func (e *Element) AddClass(name string) error {
	return e.call(`function(name) { this.classList.add(name); return true; }`, nil, name)
}

func (e *Element) RemoveClass(name string) error {
	return e.call(`function(name) { this.classList.remove(name); return true; }`, nil, name)
}

func (e *Element) Style(prop string) string {
	var s string
	err := e.call(`function(prop) { return this.style ? this.style.getPropertyValue(prop) : ""; }`, &s, prop)
	if err != nil {
		e.debug("Style", err)
	}
	return s
}

func (e *Element) SetStyle(prop, value string) error {
	return e.SetStylePriority(prop, value, "")
}

func (e *Element) StylePriority(prop string) string {
	var s string
	err := e.call(`function(prop) { return this.style ? this.style.getPropertyPriority(prop) : ""; }`, &s, prop)
	if err != nil {
		e.debug("StylePriority", err)
	}
	return s
}

func (e *Element) SetStylePriority(prop, value, priority string) error {
	return e.call(`function(prop, value, priority) {
		if (value === "") {
			this.style.removeProperty(prop);
		} else {
			this.style.setProperty(prop, value, priority);
		}
		return true;
	}`, nil, prop, value, priority)
}

func (e *Element) Bounds() (geometry.Box, error) {
	var b geometry.Box
	err := e.call(`function() {
		const r = this.getBoundingClientRect();
		return {X: r.x, Y: r.y, Width: r.width, Height: r.height};
	}`, &b)
	if err != nil {
		return geometry.Box{}, fmt.Errorf("error while measuring %s: %w", e, err)
	}
	return b, nil
}

func (e *Element) SetAttribute(name, value string) error {
	return e.call(`function(name, value) { this.setAttribute(name, value); return true; }`, nil, name, value)
}

func (e *Element) AppendChild(child dom.Element) error {
	c, ok := child.(*Element)
	if !ok || c == nil || c.page != e.page {
		return fmt.Errorf("cannot append %T to a browser element", child)
	}
	return e.callWith(`function(child) { this.appendChild(child); return true; }`, nil, c)
}

func (e *Element) OuterHTML() (string, error) {
	var s string
	if err := e.call(`function() { return this.outerHTML || ""; }`, &s); err != nil {
		return "", err
	}
	return s, nil
}

var _ dom.Element = (*Element)(nil)
