package htmldoc

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/geometry"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a handle to a node of a Document.
type Element struct {
	doc   *Document
	node  *html.Node
	value *string
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

func (e *Element) isElement() bool {
	return e.node.Type == html.ElementNode
}

func (e *Element) TagName() string {
	if !e.isElement() {
		return ""
	}
	return strings.ToLower(e.node.Data)
}

func (e *Element) NodeName() string {
	switch e.node.Type {
	case html.ElementNode:
		if e.node.Namespace == "" {
			return strings.ToUpper(e.node.Data)
		}
		return e.node.Data
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	case html.DocumentNode:
		return "#document"
	case html.DoctypeNode:
		return e.node.Data
	}
	return ""
}

func (e *Element) ID() string {
	if !e.isElement() {
		return ""
	}
	return attr(e.node, "id")
}

// ClassName mirrors the className property: SVG elements expose an
// animated string object rather than a plain string.
func (e *Element) ClassName() (string, bool) {
	if !e.isElement() {
		return "", false
	}
	return attr(e.node, "class"), e.node.Namespace == ""
}

func (e *Element) Value() (string, bool) {
	if !e.isElement() || e.node.Namespace != "" {
		return "", false
	}
	if e.value != nil {
		return *e.value, true
	}
	switch e.node.DataAtom {
	case atom.Input, atom.Button, atom.Output, atom.Data:
		return attr(e.node, "value"), true
	case atom.Option:
		if hasAttr(e.node, "value") {
			return attr(e.node, "value"), true
		}
		return strings.TrimSpace(textContent(e.node)), true
	case atom.Textarea:
		return textContent(e.node), true
	case atom.Select:
		return selectValue(e.doc, e.node), true
	}
	return "", false
}

// SetValue sets the value property of a form control.
func (e *Element) SetValue(v string) error {
	if _, ok := e.Value(); !ok {
		return fmt.Errorf("element %s has no value property", e.NodeName())
	}
	e.value = &v
	return nil
}

func (e *Element) Parent() dom.Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// Contains is inclusive: an element contains itself.
func (e *Element) Contains(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil || o.doc != e.doc {
		return false
	}
	for n := o.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

func (e *Element) Connected() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

func (e *Element) classes() []string {
	return strings.Fields(attr(e.node, "class"))
}

func (e *Element) HasClass(name string) bool {
	if !e.isElement() {
		return false
	}
	return slices.Contains(e.classes(), name)
}

func (e *Element) AddClass(name string) error {
	if !e.isElement() {
		return errors.New("cannot add class to a non-element node")
	}
	cs := e.classes()
	if slices.Contains(cs, name) {
		return nil
	}
	setAttr(e.node, "class", strings.Join(append(cs, name), " "))
	return nil
}

func (e *Element) RemoveClass(name string) error {
	if !e.isElement() {
		return errors.New("cannot remove class from a non-element node")
	}
	if !hasAttr(e.node, "class") {
		return nil
	}
	cs := slices.DeleteFunc(e.classes(), func(c string) bool { return c == name })
	setAttr(e.node, "class", strings.Join(cs, " "))
	return nil
}

func (e *Element) Style(prop string) string {
	if !e.isElement() {
		return ""
	}
	return parseStyle(attr(e.node, "style")).get(prop)
}

func (e *Element) SetStyle(prop, value string) error {
	return e.SetStylePriority(prop, value, "")
}

func (e *Element) StylePriority(prop string) string {
	if !e.isElement() {
		return ""
	}
	if parseStyle(attr(e.node, "style")).important(prop) {
		return "important"
	}
	return ""
}

func (e *Element) SetStylePriority(prop, value, priority string) error {
	if !e.isElement() {
		return errors.New("cannot set style on a non-element node")
	}
	st := parseStyle(attr(e.node, "style"))
	st.setPriority(prop, value, strings.EqualFold(priority, "important"))
	if s := st.String(); s != "" {
		setAttr(e.node, "style", s)
	} else {
		removeAttr(e.node, "style")
	}
	return nil
}

func (e *Element) Bounds() (geometry.Box, error) {
	pb, ok := e.doc.pageBox(e)
	if !ok {
		return geometry.Box{}, nil
	}
	return geometry.Box{
		X:      pb.X - e.doc.scroll.X,
		Y:      pb.Y - e.doc.scroll.Y,
		Width:  pb.Width,
		Height: pb.Height,
	}, nil
}

func (e *Element) SetAttribute(name, value string) error {
	if !e.isElement() {
		return errors.New("cannot set attribute on a non-element node")
	}
	setAttr(e.node, strings.ToLower(name), value)
	return nil
}

func (e *Element) AppendChild(child dom.Element) error {
	c, ok := child.(*Element)
	if !ok || c == nil {
		return fmt.Errorf("cannot append %T to an html document", child)
	}
	if c.doc != e.doc {
		return errors.New("cannot append an element of another document")
	}
	if c.Contains(e) {
		return errors.New("cannot append an ancestor to its descendant")
	}
	if c.node.Parent != nil {
		c.node.Parent.RemoveChild(c.node)
	}
	e.node.AppendChild(c.node)
	return nil
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

func (e *Element) OuterHTML() (string, error) {
	return goquery.OuterHtml(goquery.NewDocumentFromNode(e.node).Selection)
}

func (e *Element) String() string {
	return e.NodeName()
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

func selectValue(d *Document, n *html.Node) string {
	var first, selected *html.Node
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && c.DataAtom == atom.Option {
			if first == nil {
				first = c
			}
			if hasAttr(c, "selected") {
				selected = c
				return false
			}
		}
		return true
	})
	if selected == nil {
		selected = first
	}
	if selected == nil {
		return ""
	}
	v, _ := d.wrap(selected).Value()
	return v
}
