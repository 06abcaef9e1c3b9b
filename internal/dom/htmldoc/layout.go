package htmldoc

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/geometry"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// layer is one visible element in paint order.
type layer struct {
	el          *Element
	box         geometry.Box // page coordinates
	declared    bool
	z           int
	order       int
	pointerNone bool
}

// declaredBox reads the element's own left/top/width/height.
func declaredBox(n *html.Node) (geometry.Box, bool) {
	st := parseStyle(attr(n, "style"))
	w, okW := pixels(st.get("width"))
	h, okH := pixels(st.get("height"))
	if !okW || !okH {
		return geometry.Box{}, false
	}
	x, _ := pixels(st.get("left"))
	y, _ := pixels(st.get("top"))
	return geometry.Box{X: x, Y: y, Width: w, Height: h}, true
}

func isDocumentLevelNode(n *html.Node) bool {
	return n.DataAtom == atom.Html || n.DataAtom == atom.Body
}

// layers returns the visible elements of the document sorted in paint
// order, bottom first.
func (d *Document) layers() []layer {
	var out []layer
	order := 0
	var visit func(n *html.Node, z int, pointerNone bool)
	visit = func(n *html.Node, z int, pointerNone bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			st := parseStyle(attr(c, "style"))
			if strings.EqualFold(st.get("display"), "none") {
				continue
			}
			cz := z
			if v, err := strconv.Atoi(st.get("z-index")); err == nil {
				cz = v
			}
			cp := pointerNone
			switch strings.ToLower(st.get("pointer-events")) {
			case "none":
				cp = true
			case "auto":
				cp = false
			}
			box, declared := declaredBox(c)
			order++
			out = append(out, layer{
				el:          d.wrap(c),
				box:         box,
				declared:    declared,
				z:           cz,
				order:       order,
				pointerNone: cp,
			})
			visit(c, cz, cp)
		}
	}
	visit(d.root, 0, false)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].z < out[j].z
	})
	return out
}

// extent is the page area covered by the document: the viewport plus
// every declared box.
func (d *Document) extent() geometry.Box {
	ext := geometry.Box{Width: d.viewport.Width, Height: d.viewport.Height}
	for _, l := range d.layers() {
		if l.declared {
			ext = ext.Union(l.box)
		}
	}
	return ext
}

// hidden reports whether n or one of its ancestors has display:none.
func hidden(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if strings.EqualFold(parseStyle(attr(n, "style")).get("display"), "none") {
			return true
		}
	}
	return false
}

// pageBox returns the element's box in page coordinates. Hidden and
// detached elements have no box.
func (d *Document) pageBox(e *Element) (geometry.Box, bool) {
	if !e.isElement() || !e.Connected() || hidden(e.node) {
		return geometry.Box{}, false
	}
	if b, ok := declaredBox(e.node); ok {
		return b, true
	}
	if isDocumentLevelNode(e.node) {
		return d.extent(), true
	}
	return geometry.Box{}, false
}

// ElementAt returns the topmost hit-testable element under the viewport
// point. Points inside the viewport that hit nothing resolve to the body,
// points outside the viewport resolve to nil.
func (d *Document) ElementAt(x, y float64) (dom.Element, error) {
	if !(geometry.Box{Width: d.viewport.Width, Height: d.viewport.Height}).Contains(x, y) {
		return nil, nil
	}
	px, py := x+d.scroll.X, y+d.scroll.Y
	ls := d.layers()
	for i := len(ls) - 1; i >= 0; i-- {
		l := ls[i]
		if l.pointerNone || !l.declared || isDocumentLevelNode(l.el.node) {
			continue
		}
		if l.box.Contains(px, py) {
			return l.el, nil
		}
	}
	if b := d.Body(); b != nil {
		return b, nil
	}
	return d.Root(), nil
}
