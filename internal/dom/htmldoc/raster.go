package htmldoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/jakopako/pinpoint/internal/dom"
	"github.com/jakopako/pinpoint/internal/geometry"
	"golang.org/x/image/colornames"
)

var emphasisFallback = color.RGBA{R: 0xff, G: 0xff, A: 0xff}

// MaxRasterSide bounds both sides of a rasterized image in pixels.
const MaxRasterSide = 8192

// ErrRasterTooLarge is returned for elements whose box exceeds MaxRasterSide.
var ErrRasterTooLarge = errors.New("element is too large to rasterize")

// Rasterize paints the subtree of el into a PNG. Only background colors,
// borders, outlines and box-shadow rings are painted.
func (d *Document) Rasterize(ctx context.Context, el dom.Element) (dom.Image, error) {
	if err := ctx.Err(); err != nil {
		return dom.Image{}, err
	}
	e, ok := el.(*Element)
	if !ok || e == nil {
		return dom.Image{}, fmt.Errorf("cannot rasterize %T in an html document", el)
	}
	region, ok := d.pageBox(e)
	if !ok || region.Empty() {
		return dom.Image{}, errors.New("cannot rasterize an element without a box")
	}

	if !(region.Width <= MaxRasterSide && region.Height <= MaxRasterSide) {
		return dom.Image{}, fmt.Errorf("%w: %vx%v", ErrRasterTooLarge, region.Width, region.Height)
	}
	w := int(math.Ceil(region.Width))
	h := int(math.Ceil(region.Height))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for _, l := range d.layers() {
		if !e.Contains(l.el) {
			continue
		}
		box := l.box
		if !l.declared {
			if !isDocumentLevelNode(l.el.node) {
				continue
			}
			box = d.extent()
		}
		paintLayer(img, l.el, translate(box, region))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return dom.Image{}, fmt.Errorf("error while encoding png: %w", err)
	}
	return dom.Image{Format: dom.ImageFormatPNG, Width: w, Height: h, Data: buf.Bytes()}, nil
}

func translate(b, origin geometry.Box) image.Rectangle {
	return image.Rect(
		int(math.Round(b.X-origin.X)),
		int(math.Round(b.Y-origin.Y)),
		int(math.Round(b.X-origin.X+b.Width)),
		int(math.Round(b.Y-origin.Y+b.Height)),
	)
}

func paintLayer(img *image.RGBA, e *Element, r image.Rectangle) {
	st := parseStyle(attr(e.node, "style"))
	if c, ok := parseColor(st.get("background-color")); ok {
		fill(img, r, c)
	} else if c, ok := parseColor(st.get("background")); ok {
		fill(img, r, c)
	}
	if width, c, ok := parseLine(st.get("border")); ok {
		ring(img, r, width, c)
	}
	if width, c, ok := parseLine(st.get("outline")); ok {
		ring(img, r.Inset(-width), width, c)
	}
	if s := st.get("box-shadow"); s != "" && !strings.EqualFold(s, "none") {
		c, ok := firstColor(s)
		if !ok {
			c = emphasisFallback
		}
		ring(img, r.Inset(-4), 4, c)
	}
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

// ring draws a frame of the given width along the inside of r.
func ring(img *image.RGBA, r image.Rectangle, width int, c color.RGBA) {
	if width <= 0 || r.Empty() {
		return
	}
	fill(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), c)
	fill(img, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), c)
	fill(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), c)
	fill(img, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// parseLine parses shorthands like "2px solid #888".
func parseLine(v string) (int, color.RGBA, bool) {
	if v == "" || strings.EqualFold(v, "none") {
		return 0, color.RGBA{}, false
	}
	width := 1
	for _, tok := range strings.Fields(v) {
		if px, ok := pixels(tok); ok && strings.HasSuffix(strings.ToLower(tok), "px") {
			width = int(math.Round(px))
			break
		}
	}
	c, ok := firstColor(v)
	if !ok {
		c = color.RGBA{A: 0xff}
	}
	return width, c, true
}

// firstColor returns the first color token of a CSS value.
func firstColor(v string) (color.RGBA, bool) {
	for _, part := range strings.Split(v, ",") {
		for _, tok := range strings.Fields(part) {
			if c, ok := parseColor(tok); ok {
				return c, true
			}
		}
	}
	return color.RGBA{}, false
}

// parseColor understands hex notation and named colors.
func parseColor(v string) (color.RGBA, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == "transparent" {
		return color.RGBA{}, false
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v[1:])
	}
	c, ok := colornames.Map[v]
	return c, ok
}

func parseHex(h string) (color.RGBA, bool) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6:
	default:
		return color.RGBA{}, false
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, true
}
